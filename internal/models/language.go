package models

import "gorm.io/gorm"

// DefaultLanguageCode is the fallback for localized lookups.
const DefaultLanguageCode = "en"

type Language struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Code string `gorm:"size:5;uniqueIndex;not null"  json:"code"`
}

// InsertLanguages seeds the supported language catalog. Re-running it does
// not duplicate rows.
func InsertLanguages(db *gorm.DB) error {
	values := []Language{
		{Name: "English", Code: "en"},
		{Name: "Русский", Code: "ru"},
	}
	for _, v := range values {
		var exist Language
		err := db.Where("code = ?", v.Code).First(&exist).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&Language{Name: v.Name, Code: v.Code}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Choice is one selectable entry for rendering language inputs.
type Choice struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// LanguageChoices lists the catalog in a stable order for select inputs and
// per-language form fields.
func LanguageChoices(db *gorm.DB) ([]Choice, error) {
	var langs []Language
	if err := db.Order("id ASC").Find(&langs).Error; err != nil {
		return nil, err
	}
	choices := make([]Choice, len(langs))
	for i, l := range langs {
		choices[i] = Choice{ID: l.ID, Code: l.Code, Name: l.Name}
	}
	return choices, nil
}

func LanguageByCode(db *gorm.DB, code string) (*Language, error) {
	var lang Language
	if err := db.Where("code = ?", code).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}
