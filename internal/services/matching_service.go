package services

import (
	"sort"

	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
)

type MatchingService interface {
	// FindCandidates возвращает упорядоченный список подходящих
	// исполнителей для заявки. Выбор, сколько из них использовать,
	// делает аллокатор раундов.
	FindCandidates(request *models.Request) ([]models.User, error)
}

type matchingService struct {
	userRepo         repositories.UserRepository
	distributionRepo repositories.DistributionRepository
}

func NewMatchingService(
	userRepo repositories.UserRepository,
	distributionRepo repositories.DistributionRepository,
) MatchingService {
	return &matchingService{
		userRepo:         userRepo,
		distributionRepo: distributionRepo,
	}
}

// Трехуровневый подбор: точный -> частичный -> все активные.
// Следующий уровень пробуется только если предыдущий пуст.
func (s *matchingService) FindCandidates(request *models.Request) ([]models.User, error) {
	users, err := s.userRepo.FindActiveWithDeclarations()
	if err != nil {
		return nil, err
	}

	candidates := filterUsers(users, func(u *models.User) bool {
		if !u.HasCategory(request.CategoryID) || !u.HasCity(request.CityID) {
			return false
		}
		return u.HasAllSubCategories(request.SubCategories)
	})

	if len(candidates) == 0 {
		// Частичный уровень: категория ИЛИ город, подкатегории не учитываются
		candidates = filterUsers(users, func(u *models.User) bool {
			return u.HasCategory(request.CategoryID) || u.HasCity(request.CityID)
		})
	}

	if len(candidates) == 0 {
		candidates = users
	}

	if err := s.sortByLoad(candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// sortByLoad сортирует по возрастанию текущего числа назначений,
// при равенстве - по идентификатору.
func (s *matchingService) sortByLoad(users []models.User) error {
	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	counts, err := s.distributionRepo.CountByUsers(ids)
	if err != nil {
		return err
	}

	sort.SliceStable(users, func(i, j int) bool {
		ci, cj := counts[users[i].ID], counts[users[j].ID]
		if ci != cj {
			return ci < cj
		}
		return users[i].ID < users[j].ID
	})
	return nil
}

func filterUsers(users []models.User, keep func(*models.User) bool) []models.User {
	var out []models.User
	for i := range users {
		if keep(&users[i]) {
			out = append(out, users[i])
		}
	}
	return out
}
