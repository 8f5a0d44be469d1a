package models

import "gorm.io/datatypes"

// AuditEvent - журнал событий безопасности: экспорт в CRM (пересечение
// границы доверия) и сбои расшифровки.
type AuditEvent struct {
	BaseModel
	Type    AuditEventType `gorm:"type:varchar(40);not null;index"`
	ActorID *string        `gorm:"index"`
	Payload datatypes.JSON `gorm:"type:jsonb"`
}
