package repositories

import (
	"gorm.io/gorm"

	"leadrouter_backend/internal/models"
)

type AuditRepository interface {
	Create(event *models.AuditEvent) error
	FindRecent(limit int) ([]models.AuditEvent, error)
}

type AuditRepositoryImpl struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

func (r *AuditRepositoryImpl) Create(event *models.AuditEvent) error {
	return r.db.Create(event).Error
}

func (r *AuditRepositoryImpl) FindRecent(limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := r.db.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
