package services

import (
	"errors"
	"time"

	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
)

// AllocatorConfig - константы раунда рассылки.
type AllocatorConfig struct {
	PrimarySize     int
	ReserveSize     int
	DistributionTTL time.Duration
	// ExcludePriorAssignees: не выбирать исполнителей, уже получавших
	// распределение по этой заявке в прошлых раундах. По умолчанию
	// выключено - каждому дается еще один шанс.
	ExcludePriorAssignees bool
}

type AllocationService interface {
	// AllocateRound создает pending-распределения раунда. Повторный
	// вызов для того же раунда без изменения состояния ничего не
	// добавляет. Пустой список кандидатов - no-op.
	AllocateRound(request *models.Request, candidates []models.User, roundIndex int) ([]models.Distribution, error)
}

type allocationService struct {
	distributionRepo repositories.DistributionRepository
	cfg              AllocatorConfig
	now              func() time.Time
}

func NewAllocationService(distributionRepo repositories.DistributionRepository, cfg AllocatorConfig) AllocationService {
	return &allocationService{
		distributionRepo: distributionRepo,
		cfg:              cfg,
		now:              time.Now,
	}
}

func (s *allocationService) AllocateRound(request *models.Request, candidates []models.User, roundIndex int) ([]models.Distribution, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ordered := make([]models.User, len(candidates))
	copy(ordered, candidates)
	// Четный раунд - как есть, нечетный - в обратном порядке, чтобы не
	// отдавать лучшие позиции одним и тем же исполнителям.
	if roundIndex%2 == 1 {
		reverse(ordered)
	}

	pending, err := s.distributionRepo.FindPendingByRequest(request.ID)
	if err != nil {
		return nil, err
	}
	hasPending := make(map[string]bool, len(pending))
	for _, d := range pending {
		hasPending[d.UserID] = true
	}

	excluded := make(map[string]bool)
	if s.cfg.ExcludePriorAssignees {
		prior, err := s.distributionRepo.FindByRequest(request.ID)
		if err != nil {
			return nil, err
		}
		for _, d := range prior {
			if d.Status != models.DistributionStatusPending {
				excluded[d.UserID] = true
			}
		}
	}

	var created []models.Distribution
	selected := 0
	poolLimit := s.cfg.PrimarySize + s.cfg.ReserveSize

	for i := range ordered {
		if i >= poolLimit || selected >= s.cfg.PrimarySize {
			break
		}
		user := &ordered[i]
		if excluded[user.ID] {
			continue
		}
		// Существующая pending-строка остается как есть (идемпотентность)
		if hasPending[user.ID] {
			selected++
			continue
		}

		d := models.Distribution{
			RequestID: request.ID,
			UserID:    user.ID,
			Status:    models.DistributionStatusPending,
			Round:     roundIndex,
			ExpiresAt: s.now().Add(s.cfg.DistributionTTL),
		}
		if err := s.distributionRepo.Create(&d); err != nil {
			if errors.Is(err, repositories.ErrPendingExists) {
				// Гонка на вставке: строка уже создана кем-то еще,
				// считаем пользователя выбранным
				selected++
				continue
			}
			return created, err
		}
		created = append(created, d)
		selected++
	}

	return created, nil
}

func reverse(users []models.User) {
	for i, j := 0, len(users)-1; i < j; i, j = i+1, j-1 {
		users[i], users[j] = users[j], users[i]
	}
}
