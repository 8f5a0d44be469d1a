package services

import (
	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/pii"
	"leadrouter_backend/internal/repositories"
)

type UserService interface {
	// RegisterOrGet создает аккаунт при первом контакте либо
	// возвращает существующий по идентификатору.
	RegisterOrGet(handle, phone string) (*models.User, error)
	GetByID(id string) (*models.User, error)

	DeclareCategories(userID string, categoryIDs []string) error
	DeclareCities(userID string, cityIDs []string) error
	DeclareSubCategories(userID string, subCategoryIDs []string) error

	// Deactivate выключает аккаунт; жесткого удаления нет
	Deactivate(userID string) error

	Stats(userID string) (*repositories.UserDistributionStats, error)
}

type userService struct {
	userRepo         repositories.UserRepository
	referenceRepo    repositories.ReferenceRepository
	distributionRepo repositories.DistributionRepository
	codec            *pii.Codec
}

func NewUserService(
	userRepo repositories.UserRepository,
	referenceRepo repositories.ReferenceRepository,
	distributionRepo repositories.DistributionRepository,
	codec *pii.Codec,
) UserService {
	return &userService{
		userRepo:         userRepo,
		referenceRepo:    referenceRepo,
		distributionRepo: distributionRepo,
		codec:            codec,
	}
}

func (s *userService) RegisterOrGet(handle, phone string) (*models.User, error) {
	existing, err := s.userRepo.FindByHandle(handle)
	if err == nil {
		return existing, nil
	}
	if !appErrors.Is(err, repositories.ErrUserNotFound) {
		return nil, appErrors.DatabaseError(err)
	}

	encryptedPhone, err := s.codec.Encrypt(phone)
	if err != nil {
		return nil, appErrors.InternalError(err)
	}
	user := &models.User{
		Handle:   handle,
		Phone:    encryptedPhone,
		IsActive: true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if appErrors.Is(err, repositories.ErrUserAlreadyExists) {
			// Гонка на первом контакте: кто-то успел раньше
			return s.userRepo.FindByHandle(handle)
		}
		return nil, appErrors.DatabaseError(err)
	}

	logger.Info("user registered", "user_id", user.ID, "handle", handle)
	return user, nil
}

func (s *userService) GetByID(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}
	return user, nil
}

// Неактивные записи справочников нельзя объявлять в профиле, но на
// исторических записях они остаются.

func (s *userService) DeclareCategories(userID string, categoryIDs []string) error {
	categories := make([]models.Category, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		category, err := s.referenceRepo.FindCategoryByID(id)
		if err != nil {
			if appErrors.Is(err, repositories.ErrCategoryNotFound) {
				return appErrors.ErrCategoryNotFound
			}
			return appErrors.DatabaseError(err)
		}
		if !category.IsActive {
			return appErrors.ErrReferenceInactive.WithDetails(map[string]string{"category_id": id})
		}
		categories = append(categories, *category)
	}
	if err := s.userRepo.SetCategories(userID, categories); err != nil {
		return appErrors.DatabaseError(err)
	}
	return nil
}

func (s *userService) DeclareCities(userID string, cityIDs []string) error {
	cities := make([]models.City, 0, len(cityIDs))
	for _, id := range cityIDs {
		city, err := s.referenceRepo.FindCityByID(id)
		if err != nil {
			if appErrors.Is(err, repositories.ErrCityNotFound) {
				return appErrors.ErrCityNotFound
			}
			return appErrors.DatabaseError(err)
		}
		if !city.IsActive {
			return appErrors.ErrReferenceInactive.WithDetails(map[string]string{"city_id": id})
		}
		cities = append(cities, *city)
	}
	if err := s.userRepo.SetCities(userID, cities); err != nil {
		return appErrors.DatabaseError(err)
	}
	return nil
}

func (s *userService) DeclareSubCategories(userID string, subCategoryIDs []string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.DatabaseError(err)
	}

	subs, err := s.referenceRepo.FindSubCategoriesByIDs(subCategoryIDs)
	if err != nil {
		if appErrors.Is(err, repositories.ErrSubCategoryNotFound) {
			return appErrors.ErrSubCategoryNotFound
		}
		return appErrors.DatabaseError(err)
	}
	for _, sub := range subs {
		if !sub.IsActive {
			return appErrors.ErrReferenceInactive.WithDetails(map[string]string{"subcategory_id": sub.ID})
		}
		// Подкатегория имеет смысл только внутри объявленной категории
		if !user.HasCategory(sub.CategoryID) {
			return appErrors.ValidationError(map[string]string{
				"subcategory_id": sub.ID,
				"reason":         "parent category is not declared",
			})
		}
	}
	if err := s.userRepo.SetSubCategories(userID, subs); err != nil {
		return appErrors.DatabaseError(err)
	}
	return nil
}

func (s *userService) Deactivate(userID string) error {
	if err := s.userRepo.Deactivate(userID); err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return appErrors.ErrUserNotFound
		}
		return appErrors.DatabaseError(err)
	}
	logger.Info("user deactivated", "user_id", userID)
	return nil
}

func (s *userService) Stats(userID string) (*repositories.UserDistributionStats, error) {
	stats, err := s.distributionRepo.UserStats(userID)
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return stats, nil
}
