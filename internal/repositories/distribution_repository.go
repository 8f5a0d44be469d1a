package repositories

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"leadrouter_backend/internal/models"
)

var (
	ErrDistributionNotFound = errors.New("distribution not found")
	// ErrPendingExists - нарушен частичный уникальный индекс
	// (request_id, user_id) WHERE status = 'pending'.
	ErrPendingExists = errors.New("pending distribution already exists")
)

type DistributionRepository interface {
	// Create вставляет новую строку. Если на пару (request, user) уже
	// есть pending-строка, возвращает ErrPendingExists: конфликт
	// разрешается на уровне хранилища, а не pre-check'ом.
	Create(d *models.Distribution) error
	FindByID(id string) (*models.Distribution, error)
	FindByRequest(requestID string) ([]models.Distribution, error)
	FindPendingByRequest(requestID string) ([]models.Distribution, error)
	FindExpiredPending(now time.Time) ([]models.Distribution, error)
	FindByUser(userID string, limit, offset int) ([]models.Distribution, error)

	// UpdateFromPending переводит строку из pending в терминальный
	// статус. RowsAffected == 0 значит, что строку уже перевели.
	UpdateFromPending(id string, to models.DistributionStatus, fields map[string]interface{}) (bool, error)

	CountPendingByRequest(requestID string) (int64, error)
	HasAccepted(requestID string) (bool, error)
	// CountByUsers возвращает число назначений на пользователя -
	// производный distribution_count для балансировки нагрузки.
	CountByUsers(userIDs []string) (map[string]int64, error)

	UserStats(userID string) (*UserDistributionStats, error)
}

// UserDistributionStats - агрегаты по исполнителю.
type UserDistributionStats struct {
	Total               int64
	Accepted            int64
	Rejected            int64
	Expired             int64
	Converted           int64
	AvgResponseTimeSecs float64
}

type DistributionRepositoryImpl struct {
	db *gorm.DB
}

func NewDistributionRepository(db *gorm.DB) DistributionRepository {
	return &DistributionRepositoryImpl{db: db}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *DistributionRepositoryImpl) Create(d *models.Distribution) error {
	err := r.db.Create(d).Error
	if err != nil && isUniqueViolation(err) {
		return ErrPendingExists
	}
	return err
}

func (r *DistributionRepositoryImpl) FindByID(id string) (*models.Distribution, error) {
	var d models.Distribution
	err := r.db.Preload("Request").Preload("Request.Category").Preload("Request.City").
		Preload("User").
		First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDistributionNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DistributionRepositoryImpl) FindByRequest(requestID string) ([]models.Distribution, error) {
	var list []models.Distribution
	err := r.db.Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *DistributionRepositoryImpl) FindPendingByRequest(requestID string) ([]models.Distribution, error) {
	var list []models.Distribution
	err := r.db.Where("request_id = ? AND status = ?", requestID, models.DistributionStatusPending).
		Find(&list).Error
	return list, err
}

func (r *DistributionRepositoryImpl) FindExpiredPending(now time.Time) ([]models.Distribution, error) {
	var list []models.Distribution
	err := r.db.Where("status = ? AND expires_at < ?", models.DistributionStatusPending, now).
		Order("expires_at ASC").
		Find(&list).Error
	return list, err
}

func (r *DistributionRepositoryImpl) FindByUser(userID string, limit, offset int) ([]models.Distribution, error) {
	var list []models.Distribution
	err := r.db.Preload("Request").Preload("Request.Category").Preload("Request.City").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *DistributionRepositoryImpl) UpdateFromPending(id string, to models.DistributionStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.Model(&models.Distribution{}).
		Where("id = ? AND status = ?", id, models.DistributionStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DistributionRepositoryImpl) CountPendingByRequest(requestID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Distribution{}).
		Where("request_id = ? AND status = ?", requestID, models.DistributionStatusPending).
		Count(&count).Error
	return count, err
}

func (r *DistributionRepositoryImpl) HasAccepted(requestID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Distribution{}).
		Where("request_id = ? AND status = ?", requestID, models.DistributionStatusAccepted).
		Count(&count).Error
	return count > 0, err
}

func (r *DistributionRepositoryImpl) CountByUsers(userIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	type row struct {
		UserID string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Distribution{}).
		Select("user_id, COUNT(*) as count").
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rec := range rows {
		counts[rec.UserID] = rec.Count
	}
	return counts, nil
}

func (r *DistributionRepositoryImpl) UserStats(userID string) (*UserDistributionStats, error) {
	stats := &UserDistributionStats{}
	err := r.db.Model(&models.Distribution{}).
		Select(
			"COUNT(*) as total, "+
				"COUNT(*) FILTER (WHERE status = 'accepted') as accepted, "+
				"COUNT(*) FILTER (WHERE status = 'rejected') as rejected, "+
				"COUNT(*) FILTER (WHERE status = 'expired') as expired, "+
				"COUNT(*) FILTER (WHERE is_converted) as converted, "+
				"COALESCE(AVG(response_time), 0) as avg_response_time_secs").
		Where("user_id = ?", userID).
		Scan(stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
