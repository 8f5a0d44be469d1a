package services

import (
	"sync"
	"time"

	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/repositories"
)

// LifecycleConfig - ворота раундов.
type LifecycleConfig struct {
	MaxRounds     int
	RoundInterval time.Duration
}

type LifecycleService interface {
	// Ответы исполнителей
	Accept(distributionID string) error
	Reject(distributionID string) error
	// Expire вызывается планировщиком для просроченных pending-строк
	Expire(distributionID string) error

	// AllocateNextRound проверяет ворота раундов и, если они открыты,
	// запускает подбор и аллокацию следующего раунда. Отказ ворот по
	// лимиту раундов - это обычный терминальный переход в expired,
	// не ошибка.
	AllocateNextRound(requestID string) error

	// Терминальные переходы оператора
	Complete(requestID string) error
	Cancel(requestID string) error
}

type lifecycleService struct {
	requestRepo      repositories.RequestRepository
	distributionRepo repositories.DistributionRepository
	matching         MatchingService
	allocation       AllocationService
	cfg              LifecycleConfig
	now              func() time.Time

	// Все изменяющие жизненный цикл операции по одной заявке
	// сериализуются: аллокация раунда и параллельный accept не должны
	// гоняться за статусом.
	locks sync.Map // requestID -> *sync.Mutex
}

func NewLifecycleService(
	requestRepo repositories.RequestRepository,
	distributionRepo repositories.DistributionRepository,
	matching MatchingService,
	allocation AllocationService,
	cfg LifecycleConfig,
) LifecycleService {
	return &lifecycleService{
		requestRepo:      requestRepo,
		distributionRepo: distributionRepo,
		matching:         matching,
		allocation:       allocation,
		cfg:              cfg,
		now:              time.Now,
	}
}

func (s *lifecycleService) lockRequest(requestID string) func() {
	muAny, _ := s.locks.LoadOrStore(requestID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// -------------------------------
// Ответы по распределениям
// -------------------------------

func (s *lifecycleService) Accept(distributionID string) error {
	d, err := s.distributionRepo.FindByID(distributionID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrDistributionNotFound) {
			return appErrors.ErrDistributionNotFound
		}
		return appErrors.DatabaseError(err)
	}

	unlock := s.lockRequest(d.RequestID)
	defer unlock()

	now := s.now()
	responseTime := int64(now.Sub(d.CreatedAt).Seconds())
	ok, err := s.distributionRepo.UpdateFromPending(distributionID, models.DistributionStatusAccepted, map[string]interface{}{
		"responded_at":  now,
		"response_time": responseTime,
		"is_converted":  true,
	})
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if !ok {
		return s.terminalConflict(distributionID, models.DistributionStatusAccepted)
	}

	// Заявка переходит в in_progress; идемпотентно, если уже там
	req, err := s.requestRepo.FindByID(d.RequestID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if err := s.ensureInProgress(req); err != nil {
		return err
	}

	logger.Info("distribution accepted",
		"distribution_id", distributionID,
		"request_id", d.RequestID,
		"user_id", d.UserID,
		"response_time_secs", responseTime,
	)
	return nil
}

func (s *lifecycleService) Reject(distributionID string) error {
	return s.resolveNonAccepted(distributionID, models.DistributionStatusRejected, true)
}

func (s *lifecycleService) Expire(distributionID string) error {
	return s.resolveNonAccepted(distributionID, models.DistributionStatusExpired, false)
}

// resolveNonAccepted закрывает pending-строку отказом или просрочкой и
// переводит заявку в ожидание следующего раунда, если это была
// последняя живая строка.
func (s *lifecycleService) resolveNonAccepted(distributionID string, to models.DistributionStatus, recordResponseTime bool) error {
	d, err := s.distributionRepo.FindByID(distributionID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrDistributionNotFound) {
			return appErrors.ErrDistributionNotFound
		}
		return appErrors.DatabaseError(err)
	}

	unlock := s.lockRequest(d.RequestID)
	defer unlock()

	now := s.now()
	fields := map[string]interface{}{"responded_at": now}
	if recordResponseTime {
		fields["response_time"] = int64(now.Sub(d.CreatedAt).Seconds())
	}
	ok, err := s.distributionRepo.UpdateFromPending(distributionID, to, fields)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if !ok {
		return s.terminalConflict(distributionID, to)
	}

	logger.Info("distribution resolved",
		"distribution_id", distributionID,
		"request_id", d.RequestID,
		"status", string(to),
	)

	return s.evaluateAfterResolution(d.RequestID)
}

// ensureInProgress доводит заявку до in_progress после принятого
// распределения. Заявка, застрявшая в new или not_actual (сбой между
// аллокацией и обновлением статуса), проходит через distributing -
// таблица переходов остается закрытой.
func (s *lifecycleService) ensureInProgress(req *models.Request) error {
	if req.Status == models.RequestStatusInProgress || req.Status.IsTerminal() {
		return nil
	}
	if !req.Status.CanTransitionTo(models.RequestStatusInProgress) {
		if !req.Status.CanTransitionTo(models.RequestStatusDistributing) {
			return nil
		}
		if err := s.requestRepo.UpdateStatus(req.ID, req.Status, models.RequestStatusDistributing); err != nil {
			return appErrors.DatabaseError(err)
		}
		req.Status = models.RequestStatusDistributing
	}
	if err := s.requestRepo.UpdateStatus(req.ID, req.Status, models.RequestStatusInProgress); err != nil {
		return appErrors.DatabaseError(err)
	}
	req.Status = models.RequestStatusInProgress
	return nil
}

// terminalConflict разбирает неудачный переход из pending: повторный
// тот же переход идемпотентен, любой другой - конфликт.
func (s *lifecycleService) terminalConflict(distributionID string, wanted models.DistributionStatus) error {
	d, err := s.distributionRepo.FindByID(distributionID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if d.Status == wanted {
		return nil
	}
	return appErrors.ErrInvalidTransition.WithDetails(map[string]string{
		"distribution_id": distributionID,
		"status":          string(d.Status),
	})
}

// evaluateAfterResolution: если по заявке не осталось живых строк и
// никто не принимал, заявка ждет следующего раунда либо навсегда
// исчерпана по лимиту.
func (s *lifecycleService) evaluateAfterResolution(requestID string) error {
	pending, err := s.distributionRepo.CountPendingByRequest(requestID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if pending > 0 {
		return nil
	}
	accepted, err := s.distributionRepo.HasAccepted(requestID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if accepted {
		return nil
	}

	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if req.Status.IsTerminal() {
		return nil
	}

	next := models.RequestStatusNotActual
	if req.RoundCount >= s.cfg.MaxRounds {
		next = models.RequestStatusExpired
	}
	if req.Status == next || !req.Status.CanTransitionTo(next) {
		return nil
	}
	if err := s.requestRepo.UpdateStatus(requestID, req.Status, next); err != nil {
		return appErrors.DatabaseError(err)
	}
	logger.Info("request awaiting outcome", "request_id", requestID, "status", string(next))
	return nil
}

// -------------------------------
// Раунды
// -------------------------------

func (s *lifecycleService) AllocateNextRound(requestID string) error {
	unlock := s.lockRequest(requestID)
	defer unlock()

	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrRequestNotFound) {
			return appErrors.ErrRequestNotFound
		}
		return appErrors.DatabaseError(err)
	}

	if req.Status.IsTerminal() || req.Status == models.RequestStatusInProgress {
		return nil
	}

	// Принятое распределение закрывает раунды: заявка уже за
	// исполнителем, даже если статус отстал после сбоя
	accepted, err := s.distributionRepo.HasAccepted(requestID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if accepted {
		return s.ensureInProgress(req)
	}

	// Ворота раундов: лимит числа раундов
	if req.RoundCount >= s.cfg.MaxRounds {
		if req.Status.CanTransitionTo(models.RequestStatusExpired) {
			if err := s.requestRepo.UpdateStatus(requestID, req.Status, models.RequestStatusExpired); err != nil {
				return appErrors.DatabaseError(err)
			}
			logger.Info("request expired: round limit reached",
				"request_id", requestID,
				"round_count", req.RoundCount,
			)
		}
		return nil
	}

	// Восстановление после сбоя: раунд уже материализован, а статус
	// обновить не успели
	if err := s.reconcileStatus(req); err != nil {
		return err
	}

	// Ворота раундов: минимальный интервал с момента последнего раунда
	if req.LastRoundAt != nil && s.now().Sub(*req.LastRoundAt) < s.cfg.RoundInterval {
		return nil
	}

	candidates, err := s.matching.FindCandidates(req)
	if err != nil {
		return appErrors.DatabaseError(err)
	}

	roundIndex := req.RoundCount
	created, err := s.allocation.AllocateRound(req, candidates, roundIndex)
	if err != nil {
		return appErrors.DatabaseError(err)
	}

	if len(created) > 0 {
		if err := s.requestRepo.MarkRoundAllocated(requestID, s.now()); err != nil {
			return appErrors.DatabaseError(err)
		}
	}

	if err := s.reconcileStatus(req); err != nil {
		return err
	}

	if len(created) > 0 {
		logger.Info("round allocated",
			"request_id", requestID,
			"round", roundIndex,
			"distributions", len(created),
		)
	}
	return nil
}

// reconcileStatus переводит заявку в distributing, если по ней есть
// живые pending-строки, а статус еще этого не отражает.
func (s *lifecycleService) reconcileStatus(req *models.Request) error {
	if req.Status == models.RequestStatusDistributing ||
		!req.Status.CanTransitionTo(models.RequestStatusDistributing) {
		return nil
	}
	pending, err := s.distributionRepo.CountPendingByRequest(req.ID)
	if err != nil {
		return appErrors.DatabaseError(err)
	}
	if pending == 0 {
		return nil
	}
	if err := s.requestRepo.UpdateStatus(req.ID, req.Status, models.RequestStatusDistributing); err != nil {
		return appErrors.DatabaseError(err)
	}
	req.Status = models.RequestStatusDistributing
	return nil
}

// -------------------------------
// Операторские переходы
// -------------------------------

func (s *lifecycleService) Complete(requestID string) error {
	return s.operatorTransition(requestID, models.RequestStatusCompleted)
}

func (s *lifecycleService) Cancel(requestID string) error {
	return s.operatorTransition(requestID, models.RequestStatusCancelled)
}

func (s *lifecycleService) operatorTransition(requestID string, to models.RequestStatus) error {
	unlock := s.lockRequest(requestID)
	defer unlock()

	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrRequestNotFound) {
			return appErrors.ErrRequestNotFound
		}
		return appErrors.DatabaseError(err)
	}
	if !req.Status.CanTransitionTo(to) {
		return appErrors.ErrInvalidTransition.WithDetails(map[string]string{
			"request_id": requestID,
			"from":       string(req.Status),
			"to":         string(to),
		})
	}
	if err := s.requestRepo.UpdateStatus(requestID, req.Status, to); err != nil {
		return appErrors.DatabaseError(err)
	}
	logger.Info("request closed by operator", "request_id", requestID, "status", string(to))
	return nil
}
