package models

// User - аккаунт исполнителя. Создается при первом контакте,
// никогда не удаляется, только деактивируется.
type User struct {
	BaseModel
	Handle   string `gorm:"uniqueIndex;not null"`
	Phone    string // зашифрованный токен, см. internal/pii
	IsActive bool   `gorm:"default:true;index"`
	IsAdmin  bool   `gorm:"default:false"`

	// Relations
	Categories    []Category    `gorm:"many2many:user_categories"`
	Cities        []City        `gorm:"many2many:user_cities"`
	SubCategories []SubCategory `gorm:"many2many:user_subcategories"`
}

func (u *User) HasCategory(categoryID string) bool {
	for _, c := range u.Categories {
		if c.ID == categoryID {
			return true
		}
	}
	return false
}

func (u *User) HasCity(cityID string) bool {
	for _, c := range u.Cities {
		if c.ID == cityID {
			return true
		}
	}
	return false
}

// HasAllSubCategories проверяет, что пользователь объявил каждую
// подкатегорию из списка (AND-ограничение заявки).
func (u *User) HasAllSubCategories(subs []SubCategory) bool {
	for _, want := range subs {
		found := false
		for _, have := range u.SubCategories {
			if have.ID == want.ID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
