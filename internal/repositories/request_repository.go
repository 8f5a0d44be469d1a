package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"leadrouter_backend/internal/models"
)

var ErrRequestNotFound = errors.New("request not found")

type RequestRepository interface {
	Create(request *models.Request) error
	FindByID(id string) (*models.Request, error)
	// FindByStatus возвращает заявки в порядке создания - обходы
	// планировщика обрабатывают их строго в этом порядке.
	FindByStatus(status models.RequestStatus) ([]models.Request, error)
	Update(request *models.Request) error
	UpdateStatus(id string, from, to models.RequestStatus) error
	// MarkRoundAllocated атомарно инкрементирует round_count и
	// фиксирует время раунда.
	MarkRoundAllocated(id string, at time.Time) error

	// DeleteOlderThan удаляет терминальные заявки старше порога вместе
	// с их распределениями. Возвращает число удаленных заявок.
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

type RequestRepositoryImpl struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &RequestRepositoryImpl{db: db}
}

func (r *RequestRepositoryImpl) Create(request *models.Request) error {
	return r.db.Create(request).Error
}

func (r *RequestRepositoryImpl) FindByID(id string) (*models.Request, error) {
	var request models.Request
	err := r.db.Preload("Category").Preload("City").Preload("SubCategories").
		First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *RequestRepositoryImpl) FindByStatus(status models.RequestStatus) ([]models.Request, error) {
	var requests []models.Request
	err := r.db.Preload("Category").Preload("City").Preload("SubCategories").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *RequestRepositoryImpl) Update(request *models.Request) error {
	return r.db.Save(request).Error
}

// UpdateStatus переводит статус только из ожидаемого состояния - это
// оптимистическая проверка против гонки с параллельным переходом.
func (r *RequestRepositoryImpl) UpdateStatus(id string, from, to models.RequestStatus) error {
	result := r.db.Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepositoryImpl) MarkRoundAllocated(id string, at time.Time) error {
	result := r.db.Model(&models.Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"round_count":   gorm.Expr("round_count + 1"),
			"last_round_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepositoryImpl) DeleteOlderThan(cutoff time.Time) (int64, error) {
	terminal := []models.RequestStatus{
		models.RequestStatusExpired,
		models.RequestStatusCompleted,
		models.RequestStatusCancelled,
	}

	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Request{}).
			Where("status IN ? AND updated_at < ?", terminal, cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("request_id IN ?", ids).
			Delete(&models.Distribution{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM request_subcategories WHERE request_id IN ?", ids).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Request{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}
