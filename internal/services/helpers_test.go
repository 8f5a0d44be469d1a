package services

import (
	"time"

	"leadrouter_backend/internal/models"
)

// Конструкторы тестовых данных, общие для тестов сервисов.

func testCategory(id string) models.Category {
	c := models.Category{Name: "category-" + id, IsActive: true}
	c.ID = id
	return c
}

func testCity(id string) models.City {
	c := models.City{Name: "city-" + id, IsActive: true}
	c.ID = id
	return c
}

func testSubCategory(id, categoryID string) models.SubCategory {
	s := models.SubCategory{
		Name:       "sub-" + id,
		CategoryID: categoryID,
		Type:       models.SubCategoryTypeBoolean,
		IsActive:   true,
	}
	s.ID = id
	return s
}

func testUser(id string, categories []models.Category, cities []models.City, subs []models.SubCategory) models.User {
	u := models.User{
		Handle:        "user-" + id,
		IsActive:      true,
		Categories:    categories,
		Cities:        cities,
		SubCategories: subs,
	}
	u.ID = id
	u.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return u
}

func testRequest(id, categoryID, cityID string, subs ...models.SubCategory) *models.Request {
	req := &models.Request{
		CategoryID:    categoryID,
		CityID:        cityID,
		Status:        models.RequestStatusNew,
		SubCategories: subs,
	}
	req.ID = id
	req.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return req
}
