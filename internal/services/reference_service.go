package services

import (
	"context"

	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/cache"
	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
)

type ReferenceService interface {
	ActiveCategories(ctx context.Context) ([]models.Category, error)
	ActiveCities(ctx context.Context) ([]models.City, error)
	ActiveSubCategories(categoryID string) ([]models.SubCategory, error)

	CreateCategory(name string) (*models.Category, error)
	CreateCity(name string) (*models.City, error)
	CreateSubCategory(categoryID, name string, subType models.SubCategoryType, minValue, maxValue *float64) (*models.SubCategory, error)

	SetCategoryActive(id string, active bool) error
	SetCityActive(id string, active bool) error
	SetSubCategoryActive(id string, active bool) error
}

type referenceService struct {
	referenceRepo repositories.ReferenceRepository
	cache         *cache.ReferenceCache
}

func NewReferenceService(referenceRepo repositories.ReferenceRepository, refCache *cache.ReferenceCache) ReferenceService {
	return &referenceService{
		referenceRepo: referenceRepo,
		cache:         refCache,
	}
}

func (s *referenceService) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if s.cache.Get(ctx, cache.KeyActiveCategories, &categories) {
		return categories, nil
	}

	categories, err := s.referenceRepo.FindActiveCategories()
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	s.cache.Set(ctx, cache.KeyActiveCategories, categories)
	return categories, nil
}

func (s *referenceService) ActiveCities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if s.cache.Get(ctx, cache.KeyActiveCities, &cities) {
		return cities, nil
	}

	cities, err := s.referenceRepo.FindActiveCities()
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	s.cache.Set(ctx, cache.KeyActiveCities, cities)
	return cities, nil
}

func (s *referenceService) ActiveSubCategories(categoryID string) ([]models.SubCategory, error) {
	subs, err := s.referenceRepo.FindActiveSubCategories(categoryID)
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return subs, nil
}

func (s *referenceService) CreateCategory(name string) (*models.Category, error) {
	if name == "" {
		return nil, appErrors.ValidationError(map[string]string{"name": "required"})
	}
	category := &models.Category{Name: name, IsActive: true}
	if err := s.referenceRepo.CreateCategory(category); err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	s.cache.Invalidate(context.Background(), cache.KeyActiveCategories)
	logger.Info("category created", "category_id", category.ID, "name", name)
	return category, nil
}

func (s *referenceService) CreateCity(name string) (*models.City, error) {
	if name == "" {
		return nil, appErrors.ValidationError(map[string]string{"name": "required"})
	}
	city := &models.City{Name: name, IsActive: true}
	if err := s.referenceRepo.CreateCity(city); err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	s.cache.Invalidate(context.Background(), cache.KeyActiveCities)
	logger.Info("city created", "city_id", city.ID, "name", name)
	return city, nil
}

func (s *referenceService) CreateSubCategory(categoryID, name string, subType models.SubCategoryType, minValue, maxValue *float64) (*models.SubCategory, error) {
	if name == "" {
		return nil, appErrors.ValidationError(map[string]string{"name": "required"})
	}
	if _, err := s.referenceRepo.FindCategoryByID(categoryID); err != nil {
		if appErrors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, appErrors.ErrCategoryNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}

	switch subType {
	case models.SubCategoryTypeBoolean, models.SubCategoryTypeEnum:
	case models.SubCategoryTypeRange:
		if minValue != nil && maxValue != nil && *minValue > *maxValue {
			return nil, appErrors.ValidationError(map[string]string{"range": "min greater than max"})
		}
	default:
		return nil, appErrors.ValidationError(map[string]string{"type": "unknown subcategory type"})
	}

	sub := &models.SubCategory{
		CategoryID: categoryID,
		Name:       name,
		Type:       subType,
		MinValue:   minValue,
		MaxValue:   maxValue,
		IsActive:   true,
	}
	if err := s.referenceRepo.CreateSubCategory(sub); err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return sub, nil
}

func (s *referenceService) SetCategoryActive(id string, active bool) error {
	if err := s.referenceRepo.SetCategoryActive(id, active); err != nil {
		if appErrors.Is(err, repositories.ErrCategoryNotFound) {
			return appErrors.ErrCategoryNotFound
		}
		return appErrors.DatabaseError(err)
	}
	s.cache.Invalidate(context.Background(), cache.KeyActiveCategories)
	return nil
}

func (s *referenceService) SetCityActive(id string, active bool) error {
	if err := s.referenceRepo.SetCityActive(id, active); err != nil {
		if appErrors.Is(err, repositories.ErrCityNotFound) {
			return appErrors.ErrCityNotFound
		}
		return appErrors.DatabaseError(err)
	}
	s.cache.Invalidate(context.Background(), cache.KeyActiveCities)
	return nil
}

func (s *referenceService) SetSubCategoryActive(id string, active bool) error {
	if err := s.referenceRepo.SetSubCategoryActive(id, active); err != nil {
		if appErrors.Is(err, repositories.ErrSubCategoryNotFound) {
			return appErrors.ErrSubCategoryNotFound
		}
		return appErrors.DatabaseError(err)
	}
	return nil
}
