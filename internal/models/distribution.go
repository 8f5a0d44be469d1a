package models

import "time"

// Distribution - одно назначение заявки одному исполнителю.
// Уникальность pending-строки на пару (request, user) обеспечивается
// частичным уникальным индексом, см. database/migrate.go.
type Distribution struct {
	BaseModel
	RequestID string             `gorm:"not null;index"`
	UserID    string             `gorm:"not null;index"`
	Status    DistributionStatus `gorm:"type:varchar(20);default:'pending';index"`
	Round     int                `gorm:"default:0"`

	ExpiresAt   time.Time `gorm:"not null"`
	RespondedAt *time.Time
	// ResponseTime - секунды от создания до терминального ответа.
	ResponseTime *int64
	IsConverted  bool `gorm:"default:false"`

	// Relations
	Request Request `gorm:"foreignKey:RequestID"`
	User    User    `gorm:"foreignKey:UserID"`
}
