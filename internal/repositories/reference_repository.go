package repositories

import (
	"errors"

	"gorm.io/gorm"

	"leadrouter_backend/internal/models"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCityNotFound        = errors.New("city not found")
	ErrSubCategoryNotFound = errors.New("subcategory not found")
)

type ReferenceRepository interface {
	FindCategoryByID(id string) (*models.Category, error)
	FindCityByID(id string) (*models.City, error)
	FindSubCategoriesByIDs(ids []string) ([]models.SubCategory, error)

	FindActiveCategories() ([]models.Category, error)
	FindActiveCities() ([]models.City, error)
	FindActiveSubCategories(categoryID string) ([]models.SubCategory, error)

	CreateCategory(category *models.Category) error
	CreateCity(city *models.City) error
	CreateSubCategory(sub *models.SubCategory) error

	SetCategoryActive(id string, active bool) error
	SetCityActive(id string, active bool) error
	SetSubCategoryActive(id string, active bool) error
}

type ReferenceRepositoryImpl struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &ReferenceRepositoryImpl{db: db}
}

func (r *ReferenceRepositoryImpl) FindCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	err := r.db.First(&category, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *ReferenceRepositoryImpl) FindCityByID(id string) (*models.City, error) {
	var city models.City
	err := r.db.First(&city, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCityNotFound
		}
		return nil, err
	}
	return &city, nil
}

func (r *ReferenceRepositoryImpl) FindSubCategoriesByIDs(ids []string) ([]models.SubCategory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var subs []models.SubCategory
	err := r.db.Where("id IN ?", ids).Find(&subs).Error
	if err != nil {
		return nil, err
	}
	if len(subs) != len(ids) {
		return nil, ErrSubCategoryNotFound
	}
	return subs, nil
}

func (r *ReferenceRepositoryImpl) FindActiveCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *ReferenceRepositoryImpl) FindActiveCities() ([]models.City, error) {
	var cities []models.City
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&cities).Error
	return cities, err
}

func (r *ReferenceRepositoryImpl) FindActiveSubCategories(categoryID string) ([]models.SubCategory, error) {
	var subs []models.SubCategory
	err := r.db.Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("name ASC").Find(&subs).Error
	return subs, err
}

func (r *ReferenceRepositoryImpl) CreateCategory(category *models.Category) error {
	return r.db.Create(category).Error
}

func (r *ReferenceRepositoryImpl) CreateCity(city *models.City) error {
	return r.db.Create(city).Error
}

func (r *ReferenceRepositoryImpl) CreateSubCategory(sub *models.SubCategory) error {
	return r.db.Create(sub).Error
}

func (r *ReferenceRepositoryImpl) SetCategoryActive(id string, active bool) error {
	return setActive(r.db, &models.Category{}, id, active, ErrCategoryNotFound)
}

func (r *ReferenceRepositoryImpl) SetCityActive(id string, active bool) error {
	return setActive(r.db, &models.City{}, id, active, ErrCityNotFound)
}

func (r *ReferenceRepositoryImpl) SetSubCategoryActive(id string, active bool) error {
	return setActive(r.db, &models.SubCategory{}, id, active, ErrSubCategoryNotFound)
}

func setActive(db *gorm.DB, model interface{}, id string, active bool, notFound error) error {
	result := db.Model(model).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}
