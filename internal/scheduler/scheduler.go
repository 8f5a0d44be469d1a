package scheduler

import (
	"context"
	"time"

	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
	"leadrouter_backend/internal/services"
)

// Scheduler - однопоточный цикл распределения. Источник тиков
// инжектируется, чтобы тесты могли гнать тики детерминированно,
// без реального времени.
type Scheduler struct {
	requestRepo      repositories.RequestRepository
	distributionRepo repositories.DistributionRepository
	lifecycle        services.LifecycleService

	ticks <-chan time.Time
	now   func() time.Time
}

func New(
	requestRepo repositories.RequestRepository,
	distributionRepo repositories.DistributionRepository,
	lifecycle services.LifecycleService,
	ticks <-chan time.Time,
) *Scheduler {
	return &Scheduler{
		requestRepo:      requestRepo,
		distributionRepo: distributionRepo,
		lifecycle:        lifecycle,
		ticks:            ticks,
		now:              time.Now,
	}
}

// Run крутит цикл до отмены контекста. Обходы внутри тика идут строго
// последовательно: параллельные обходы могли бы выдать один раунд
// дважды.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("distribution scheduler started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("distribution scheduler stopped")
			return
		case <-s.ticks:
			s.RunTick(ctx)
		}
	}
}

// RunTick выполняет один тик: новые заявки, восстановление после
// сбоев, просроченные распределения. Отмена контекста прерывает тик
// между обходами.
func (s *Scheduler) RunTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.sweepNewRequests()
	if ctx.Err() != nil {
		return
	}
	s.sweepStalled()
	if ctx.Err() != nil {
		return
	}
	s.sweepExpirations()
}

// sweepNewRequests раздает первый раунд заявкам в порядке создания.
func (s *Scheduler) sweepNewRequests() {
	started := s.now()
	requests, err := s.requestRepo.FindByStatus(models.RequestStatusNew)
	if err != nil {
		logger.WithError(err).Error("sweep failed to list new requests")
		return
	}

	failed := 0
	for _, req := range requests {
		if err := s.lifecycle.AllocateNextRound(req.ID); err != nil {
			// Ошибка одной заявки не прерывает обход
			failed++
			logger.WithError(err).Error("failed to allocate first round", "request_id", req.ID)
		}
	}
	logger.SweepLog("new_requests", len(requests), failed, s.now().Sub(started))
}

// sweepStalled подхватывает заявки, зависшие между раундами:
// distributing без живых строк (аллокация упала на полпути) и
// not_actual, ждущие открытия ворот.
func (s *Scheduler) sweepStalled() {
	started := s.now()
	processed, failed := 0, 0

	distributing, err := s.requestRepo.FindByStatus(models.RequestStatusDistributing)
	if err != nil {
		logger.WithError(err).Error("sweep failed to list distributing requests")
		return
	}
	for _, req := range distributing {
		pending, err := s.distributionRepo.CountPendingByRequest(req.ID)
		if err != nil {
			failed++
			logger.WithError(err).Error("failed to count pending distributions", "request_id", req.ID)
			continue
		}
		if pending > 0 {
			continue
		}
		processed++
		if err := s.lifecycle.AllocateNextRound(req.ID); err != nil {
			failed++
			logger.WithError(err).Error("failed to re-allocate stalled request", "request_id", req.ID)
		}
	}

	awaiting, err := s.requestRepo.FindByStatus(models.RequestStatusNotActual)
	if err != nil {
		logger.WithError(err).Error("sweep failed to list awaiting requests")
		return
	}
	for _, req := range awaiting {
		processed++
		if err := s.lifecycle.AllocateNextRound(req.ID); err != nil {
			failed++
			logger.WithError(err).Error("failed to advance awaiting request", "request_id", req.ID)
		}
	}

	logger.SweepLog("stalled_requests", processed, failed, s.now().Sub(started))
}

// sweepExpirations закрывает просроченные pending-строки и сразу
// оценивает ворота раундов владеющей заявки. Таймаут хранится в
// данных: пропущенный тик только откладывает обнаружение.
func (s *Scheduler) sweepExpirations() {
	started := s.now()
	expired, err := s.distributionRepo.FindExpiredPending(s.now())
	if err != nil {
		logger.WithError(err).Error("sweep failed to list expired distributions")
		return
	}

	failed := 0
	seen := make(map[string]bool)
	for _, d := range expired {
		if err := s.lifecycle.Expire(d.ID); err != nil {
			failed++
			logger.WithError(err).Error("failed to expire distribution", "distribution_id", d.ID)
			continue
		}
		seen[d.RequestID] = true
	}
	for requestID := range seen {
		if err := s.lifecycle.AllocateNextRound(requestID); err != nil {
			failed++
			logger.WithError(err).Error("failed to evaluate round gate", "request_id", requestID)
		}
	}

	logger.SweepLog("expirations", len(expired), failed, s.now().Sub(started))
}
