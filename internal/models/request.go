package models

import "time"

// Request - заявка клиента. PII-поля (имя, телефон, адрес) хранятся
// зашифрованными, кроме демо-заявок: там телефон уже замаскирован.
type Request struct {
	BaseModel
	ClientName    string
	ClientPhone   string
	Address       string
	Description   string
	Area          *float64
	EstimatedCost *float64

	CategoryID string        `gorm:"not null;index"`
	CityID     string        `gorm:"not null;index"`
	Status     RequestStatus `gorm:"type:varchar(20);default:'new';index"`
	IsDemo     bool          `gorm:"default:false"`

	// RoundCount - сколько раундов рассылки уже выполнено.
	RoundCount  int `gorm:"default:0"`
	LastRoundAt *time.Time

	// Relations
	Category      Category      `gorm:"foreignKey:CategoryID"`
	City          City          `gorm:"foreignKey:CityID"`
	SubCategories []SubCategory `gorm:"many2many:request_subcategories"`
	Distributions []Distribution `gorm:"foreignKey:RequestID"`
}
