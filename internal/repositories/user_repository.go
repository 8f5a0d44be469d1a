package repositories

import (
	"errors"

	"gorm.io/gorm"

	"leadrouter_backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository interface {
	FindByID(id string) (*models.User, error)
	FindByHandle(handle string) (*models.User, error)
	// FindActiveWithDeclarations возвращает активных пользователей с
	// предзагруженными категориями, городами и подкатегориями.
	FindActiveWithDeclarations() ([]models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	Deactivate(userID string) error

	SetCategories(userID string, categories []models.Category) error
	SetCities(userID string, cities []models.City) error
	SetSubCategories(userID string, subs []models.SubCategory) error

	CountAll() (int64, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) FindByID(id string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Categories").Preload("Cities").Preload("SubCategories").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByHandle(handle string) (*models.User, error) {
	var user models.User
	err := r.db.Preload("Categories").Preload("Cities").Preload("SubCategories").
		First(&user, "handle = ?", handle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindActiveWithDeclarations() ([]models.User, error) {
	var users []models.User
	err := r.db.Preload("Categories").Preload("Cities").Preload("SubCategories").
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) Create(user *models.User) error {
	err := r.db.Create(user).Error
	if err != nil && isUniqueViolation(err) {
		return ErrUserAlreadyExists
	}
	return err
}

func (r *UserRepositoryImpl) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Deactivate выключает аккаунт. Жесткого удаления нет.
func (r *UserRepositoryImpl) Deactivate(userID string) error {
	result := r.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetCategories(userID string, categories []models.Category) error {
	return r.db.Model(&models.User{BaseModel: models.BaseModel{ID: userID}}).
		Association("Categories").Replace(categories)
}

func (r *UserRepositoryImpl) SetCities(userID string, cities []models.City) error {
	return r.db.Model(&models.User{BaseModel: models.BaseModel{ID: userID}}).
		Association("Cities").Replace(cities)
}

func (r *UserRepositoryImpl) SetSubCategories(userID string, subs []models.SubCategory) error {
	return r.db.Model(&models.User{BaseModel: models.BaseModel{ID: userID}}).
		Association("SubCategories").Replace(subs)
}

func (r *UserRepositoryImpl) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}
