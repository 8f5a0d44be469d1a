package models

// Справочники. Неактивные записи исключаются из подбора и из выбора
// в новых профилях, но остаются на исторических записях.

type Category struct {
	BaseModel
	Name     string `gorm:"uniqueIndex;not null"`
	IsActive bool   `gorm:"default:true"`

	SubCategories []SubCategory `gorm:"foreignKey:CategoryID"`
}

type City struct {
	BaseModel
	Name     string `gorm:"uniqueIndex;not null"`
	IsActive bool   `gorm:"default:true"`
}

// SubCategory принадлежит ровно одной категории. Для числового типа
// границы MinValue/MaxValue задают допустимый диапазон.
type SubCategory struct {
	BaseModel
	CategoryID string          `gorm:"not null;index"`
	Name       string          `gorm:"not null"`
	Type       SubCategoryType `gorm:"type:varchar(20);default:'boolean'"`
	MinValue   *float64
	MaxValue   *float64
	IsActive   bool `gorm:"default:true"`
}
