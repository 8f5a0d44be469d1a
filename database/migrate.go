package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"leadrouter_backend/internal/config"
	"leadrouter_backend/internal/models"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с URL из config.yaml
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.City{},
		&models.SubCategory{},
		&models.Request{},
		&models.Distribution{},
		&models.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// Частичный уникальный индекс: не больше одной pending-строки на
	// пару (request, user). AutoMigrate частичные индексы не умеет.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_distributions_pending
		ON distributions (request_id, user_id)
		WHERE status = 'pending'
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create pending uniqueness index: %w", err)
	}

	return nil
}
