package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"leadrouter_backend/internal/appErrors"
	"leadrouter_backend/internal/logger"
	"leadrouter_backend/internal/models"
	"leadrouter_backend/internal/pii"
	"leadrouter_backend/internal/repositories"
)

// Доля маскируемых цифр телефона при показе до принятия заявки.
const phoneMaskPercent = 0.6

type SubmitRequestInput struct {
	CategoryID     string
	CityID         string
	SubCategoryIDs []string
	ClientName     string
	ClientPhone    string
	Address        string
	Description    string
	Area           *float64
	EstimatedCost  *float64
	IsDemo         bool
}

// DistributionDetail - карточка заявки для исполнителя. Состав
// PII-полей зависит от статуса распределения и демо-флага.
type DistributionDetail struct {
	DistributionID string                    `json:"distribution_id"`
	RequestID      string                    `json:"request_id"`
	Status         models.DistributionStatus `json:"status"`
	Category       string                    `json:"category"`
	City           string                    `json:"city"`
	Description    string                    `json:"description"`
	Area           *float64                  `json:"area,omitempty"`
	EstimatedCost  *float64                  `json:"estimated_cost,omitempty"`
	ClientName     string                    `json:"client_name,omitempty"`
	ClientPhone    string                    `json:"client_phone"`
	Address        string                    `json:"address,omitempty"`
	ExpiresAt      time.Time                 `json:"expires_at"`
	IsDemo         bool                      `json:"is_demo"`
}

// CRMExport - одноразовый расшифрованный снимок для внешней
// sales-tracking системы.
type CRMExport struct {
	RequestID     string               `json:"request_id"`
	ClientName    string               `json:"client_name"`
	ClientPhone   string               `json:"client_phone"`
	Address       string               `json:"address"`
	Description   string               `json:"description"`
	Category      string               `json:"category"`
	City          string               `json:"city"`
	Area          *float64             `json:"area,omitempty"`
	EstimatedCost *float64             `json:"estimated_cost,omitempty"`
	Status        models.RequestStatus `json:"status"`
	RoundCount    int                  `json:"round_count"`
	CreatedAt     time.Time            `json:"created_at"`
}

type RequestService interface {
	// Submit - единая точка входа для чат-извлечения, демо-генератора
	// и админки. Возвращает идентификатор созданной заявки.
	Submit(input SubmitRequestInput) (string, error)

	// RespondToDistribution - ответ исполнителя. decision: accept|reject.
	RespondToDistribution(distributionID, viewerUserID string, accept bool) error

	// RenderDistributionDetail отдает карточку с PII по правилам
	// маскирования. Смотреть может только назначенный исполнитель
	// или администратор.
	RenderDistributionDetail(distributionID, viewerUserID string) (*DistributionDetail, error)

	// ExportForCRM - осознанное пересечение границы доверия,
	// обязательно журналируется как событие безопасности.
	ExportForCRM(requestID, actorID string) (*CRMExport, error)

	GetRequest(requestID string) (*models.Request, error)
	ListUserDistributions(userID string, limit, offset int) ([]models.Distribution, error)
}

type requestService struct {
	requestRepo      repositories.RequestRepository
	distributionRepo repositories.DistributionRepository
	userRepo         repositories.UserRepository
	referenceRepo    repositories.ReferenceRepository
	auditRepo        repositories.AuditRepository
	lifecycle        LifecycleService
	codec            *pii.Codec
}

func NewRequestService(
	requestRepo repositories.RequestRepository,
	distributionRepo repositories.DistributionRepository,
	userRepo repositories.UserRepository,
	referenceRepo repositories.ReferenceRepository,
	auditRepo repositories.AuditRepository,
	lifecycle LifecycleService,
	codec *pii.Codec,
) RequestService {
	return &requestService{
		requestRepo:      requestRepo,
		distributionRepo: distributionRepo,
		userRepo:         userRepo,
		referenceRepo:    referenceRepo,
		auditRepo:        auditRepo,
		lifecycle:        lifecycle,
		codec:            codec,
	}
}

func (s *requestService) Submit(input SubmitRequestInput) (string, error) {
	category, err := s.referenceRepo.FindCategoryByID(input.CategoryID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrCategoryNotFound) {
			return "", appErrors.ErrCategoryNotFound
		}
		return "", appErrors.DatabaseError(err)
	}
	if !category.IsActive {
		return "", appErrors.ErrReferenceInactive.WithDetails(map[string]string{"category_id": category.ID})
	}

	city, err := s.referenceRepo.FindCityByID(input.CityID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrCityNotFound) {
			return "", appErrors.ErrCityNotFound
		}
		return "", appErrors.DatabaseError(err)
	}
	if !city.IsActive {
		return "", appErrors.ErrReferenceInactive.WithDetails(map[string]string{"city_id": city.ID})
	}

	subs, err := s.referenceRepo.FindSubCategoriesByIDs(input.SubCategoryIDs)
	if err != nil {
		if appErrors.Is(err, repositories.ErrSubCategoryNotFound) {
			return "", appErrors.ErrSubCategoryNotFound
		}
		return "", appErrors.DatabaseError(err)
	}
	for _, sub := range subs {
		if sub.CategoryID != category.ID {
			return "", appErrors.ValidationError(map[string]string{
				"subcategory_id": sub.ID,
				"reason":         "subcategory belongs to another category",
			})
		}
		if !sub.IsActive {
			return "", appErrors.ErrReferenceInactive.WithDetails(map[string]string{"subcategory_id": sub.ID})
		}
	}

	request := models.Request{
		Description:   input.Description,
		Area:          input.Area,
		EstimatedCost: input.EstimatedCost,
		CategoryID:    category.ID,
		CityID:        city.ID,
		Status:        models.RequestStatusNew,
		IsDemo:        input.IsDemo,
		SubCategories: subs,
	}

	if input.IsDemo {
		// Демо-заявки синтетические: шифрование не нужно, телефон
		// хранится уже замаскированным
		request.ClientName = input.ClientName
		request.ClientPhone = pii.Mask(input.ClientPhone, phoneMaskPercent)
		request.Address = input.Address
	} else {
		if request.ClientName, err = s.codec.Encrypt(input.ClientName); err != nil {
			return "", appErrors.InternalError(err)
		}
		if request.ClientPhone, err = s.codec.Encrypt(input.ClientPhone); err != nil {
			return "", appErrors.InternalError(err)
		}
		if request.Address, err = s.codec.Encrypt(input.Address); err != nil {
			return "", appErrors.InternalError(err)
		}
	}

	if err := s.requestRepo.Create(&request); err != nil {
		return "", appErrors.DatabaseError(err)
	}

	logger.Info("request submitted",
		"request_id", request.ID,
		"category", category.Name,
		"city", city.Name,
		"is_demo", request.IsDemo,
	)
	return request.ID, nil
}

func (s *requestService) RespondToDistribution(distributionID, viewerUserID string, accept bool) error {
	d, err := s.distributionRepo.FindByID(distributionID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrDistributionNotFound) {
			return appErrors.ErrDistributionNotFound
		}
		return appErrors.DatabaseError(err)
	}
	if d.UserID != viewerUserID {
		return appErrors.ErrForbidden
	}

	if accept {
		return s.lifecycle.Accept(distributionID)
	}
	return s.lifecycle.Reject(distributionID)
}

func (s *requestService) RenderDistributionDetail(distributionID, viewerUserID string) (*DistributionDetail, error) {
	d, err := s.distributionRepo.FindByID(distributionID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrDistributionNotFound) {
			return nil, appErrors.ErrDistributionNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}

	viewer, err := s.userRepo.FindByID(viewerUserID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrUserNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}
	if d.UserID != viewer.ID && !viewer.IsAdmin {
		return nil, appErrors.ErrForbidden
	}

	req := &d.Request
	detail := &DistributionDetail{
		DistributionID: d.ID,
		RequestID:      req.ID,
		Status:         d.Status,
		Category:       req.Category.Name,
		City:           req.City.Name,
		Description:    req.Description,
		Area:           req.Area,
		EstimatedCost:  req.EstimatedCost,
		ExpiresAt:      d.ExpiresAt,
		IsDemo:         req.IsDemo,
	}

	if d.Status == models.DistributionStatusAccepted {
		// После принятия: реальные заявки расшифровываются, демо
		// показывает сохраненный замаскированный телефон
		if req.IsDemo {
			detail.ClientName = req.ClientName
			detail.ClientPhone = req.ClientPhone
			detail.Address = req.Address
		} else {
			detail.ClientName = s.decryptOrRedact(req.ID, "client_name", req.ClientName)
			detail.ClientPhone = s.decryptOrRedact(req.ID, "client_phone", req.ClientPhone)
			detail.Address = s.decryptOrRedact(req.ID, "address", req.Address)
		}
		return detail, nil
	}

	// До принятия телефон показывается замаскированным вне зависимости
	// от демо-флага, имя и адрес не раскрываются
	if req.IsDemo {
		detail.ClientPhone = req.ClientPhone
	} else {
		plain := s.decryptOrRedact(req.ID, "client_phone", req.ClientPhone)
		if plain == pii.Redacted {
			detail.ClientPhone = pii.Redacted
		} else {
			detail.ClientPhone = pii.Mask(plain, phoneMaskPercent)
		}
	}
	return detail, nil
}

// decryptOrRedact расшифровывает поле; при сбое возвращает заглушку и
// журналирует событие безопасности. Сырой шифротекст наружу не уходит.
func (s *requestService) decryptOrRedact(requestID, field, token string) string {
	plain, err := s.codec.Decrypt(token)
	if err != nil {
		logger.SecurityLog("decryption_failure", "request_id", requestID, "field", field)
		s.writeAudit(models.AuditEventDecryptionFailure, nil, map[string]string{
			"request_id": requestID,
			"field":      field,
		})
		return pii.Redacted
	}
	return plain
}

func (s *requestService) ExportForCRM(requestID, actorID string) (*CRMExport, error) {
	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrRequestNotFound) {
			return nil, appErrors.ErrRequestNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}

	export := &CRMExport{
		RequestID:     req.ID,
		Description:   req.Description,
		Category:      req.Category.Name,
		City:          req.City.Name,
		Area:          req.Area,
		EstimatedCost: req.EstimatedCost,
		Status:        req.Status,
		RoundCount:    req.RoundCount,
		CreatedAt:     req.CreatedAt,
	}

	if req.IsDemo {
		export.ClientName = req.ClientName
		export.ClientPhone = req.ClientPhone
		export.Address = req.Address
	} else {
		export.ClientName = s.decryptOrRedact(req.ID, "client_name", req.ClientName)
		export.ClientPhone = s.decryptOrRedact(req.ID, "client_phone", req.ClientPhone)
		export.Address = s.decryptOrRedact(req.ID, "address", req.Address)
	}

	// Экспорт PII за границу доверия всегда оставляет след
	logger.SecurityLog("crm_export", "request_id", req.ID, "actor_id", actorID)
	s.writeAudit(models.AuditEventCRMExport, &actorID, map[string]string{
		"request_id": req.ID,
	})

	return export, nil
}

func (s *requestService) GetRequest(requestID string) (*models.Request, error) {
	req, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrRequestNotFound) {
			return nil, appErrors.ErrRequestNotFound
		}
		return nil, appErrors.DatabaseError(err)
	}
	return req, nil
}

func (s *requestService) ListUserDistributions(userID string, limit, offset int) ([]models.Distribution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.distributionRepo.FindByUser(userID, limit, offset)
	if err != nil {
		return nil, appErrors.DatabaseError(err)
	}
	return list, nil
}

func (s *requestService) writeAudit(eventType models.AuditEventType, actorID *string, payload map[string]string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Error("failed to marshal audit payload")
		return
	}
	event := &models.AuditEvent{
		Type:    eventType,
		ActorID: actorID,
		Payload: datatypes.JSON(raw),
	}
	if err := s.auditRepo.Create(event); err != nil {
		// Журнал не должен ронять основную операцию
		logger.WithError(err).Error("failed to persist audit event", "type", string(eventType))
	}
}
