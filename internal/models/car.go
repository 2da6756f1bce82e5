package models

import (
	"strconv"
	"time"
)

type Car struct {
	ID        uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Year      int           `gorm:"index;not null"           json:"year"`
	CreatedAt time.Time     `gorm:"index"                    json:"created_at"`
	Names     []CarLanguage `gorm:"foreignKey:CarID"         json:"-"`
	Users     []*User       `gorm:"many2many:user_cars"      json:"-"`
}

// CarLanguage holds a car's display name in one language. The composite key
// guarantees at most one name per (car, language) pair.
type CarLanguage struct {
	CarID      uint     `gorm:"primaryKey;autoIncrement:false" json:"car_id"`
	LanguageID uint     `gorm:"primaryKey;autoIncrement:false" json:"language_id"`
	Name       string   `gorm:"size:124;index;not null"        json:"name"`
	Language   Language `json:"-"`
}

// LocalizedName resolves the car's name for the given language code, falling
// back to the default code when no exact entry exists. Names must be loaded
// with their Language. With withYear set and a known year the result is
// "name|year".
func (c *Car) LocalizedName(code string, withYear bool) string {
	var name, fallback string
	for _, cl := range c.Names {
		switch cl.Language.Code {
		case code:
			name = cl.Name
		case DefaultLanguageCode:
			fallback = cl.Name
		}
	}
	if name == "" {
		name = fallback
	}
	if !withYear || c.Year == 0 {
		return name
	}
	return name + "|" + strconv.Itoa(c.Year)
}
