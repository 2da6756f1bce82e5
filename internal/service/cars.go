package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/errs"
	"github.com/koyabica/carrent/internal/models"
)

const minCarYear = 1900

func validateYear(year int) error {
	current := time.Now().Year()
	if year < minCarYear || year > current {
		return errs.NewValidation("year", fmt.Sprintf("must be between %d and %d", minCarYear, current))
	}
	return nil
}

// CreateCar registers a car with one localized name per submitted language
// code. The default-language name is mandatory, everything else optional;
// codes outside the catalog are dropped.
func CreateCar(db *gorm.DB, year int, names map[string]string) (*models.Car, error) {
	if err := validateYear(year); err != nil {
		return nil, err
	}
	if names[models.DefaultLanguageCode] == "" {
		return nil, errs.NewValidation("name", "a name in the default language is required")
	}

	var langs []models.Language
	if err := db.Order("id ASC").Find(&langs).Error; err != nil {
		return nil, err
	}

	car := models.Car{Year: year}
	for _, lang := range langs {
		name, ok := names[lang.Code]
		if !ok || name == "" {
			continue
		}
		car.Names = append(car.Names, models.CarLanguage{
			LanguageID: lang.ID,
			Name:       name,
			Language:   lang,
		})
	}

	if err := db.Create(&car).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

// UpdateCar reconciles the car's localized names so that afterwards they
// match exactly the supported catalog intersected with the submitted data:
// submitted names of supported languages are upserted, everything else is
// deleted.
func UpdateCar(db *gorm.DB, car *models.Car, year int, names map[string]string) error {
	if err := validateYear(year); err != nil {
		return err
	}
	if names[models.DefaultLanguageCode] == "" {
		return errs.NewValidation("name", "a name in the default language is required")
	}

	var langs []models.Language
	if err := db.Order("id ASC").Find(&langs).Error; err != nil {
		return err
	}
	supported := make(map[uint]models.Language, len(langs))
	for _, lang := range langs {
		supported[lang.ID] = lang
	}

	seen := make(map[uint]bool, len(car.Names))
	kept := car.Names[:0]
	for _, existing := range car.Names {
		lang, ok := supported[existing.LanguageID]
		name := ""
		if ok {
			name = names[lang.Code]
		}
		if name == "" {
			if err := db.Delete(&models.CarLanguage{}, "car_id = ? AND language_id = ?",
				car.ID, existing.LanguageID).Error; err != nil {
				return err
			}
			continue
		}
		existing.Name = name
		existing.Language = lang
		if err := db.Model(&models.CarLanguage{}).
			Where("car_id = ? AND language_id = ?", car.ID, existing.LanguageID).
			Update("name", name).Error; err != nil {
			return err
		}
		kept = append(kept, existing)
		seen[existing.LanguageID] = true
	}

	for _, lang := range langs {
		name := names[lang.Code]
		if name == "" || seen[lang.ID] {
			continue
		}
		entry := models.CarLanguage{CarID: car.ID, LanguageID: lang.ID, Name: name, Language: lang}
		if err := db.Create(&entry).Error; err != nil {
			return err
		}
		kept = append(kept, entry)
	}
	car.Names = kept

	car.Year = year
	return db.Model(car).Update("year", year).Error
}

// DeleteCar runs the explicit two-phase cascade: detach the owning users,
// drop the localized names, then the car itself. Owners survive.
func DeleteCar(db *gorm.DB, car *models.Car) error {
	if err := db.Model(car).Association("Users").Clear(); err != nil {
		return err
	}
	if err := db.Delete(&models.CarLanguage{}, "car_id = ?", car.ID).Error; err != nil {
		return err
	}
	return db.Delete(car).Error
}

// CarByID loads a car with its localized names.
func CarByID(db *gorm.DB, id uint) (*models.Car, error) {
	var car models.Car
	err := db.Preload("Names.Language").First(&car, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &car, nil
}

// OwnsCar reports whether the ownership edge already exists.
func OwnsCar(db *gorm.DB, user *models.User, car *models.Car) (bool, error) {
	var count int64
	err := db.Table("user_cars").
		Where("user_id = ? AND car_id = ?", user.ID, car.ID).
		Count(&count).Error
	return count > 0, err
}

// AddCar creates the ownership edge. Adding an already-owned car is a no-op.
func AddCar(db *gorm.DB, user *models.User, car *models.Car) error {
	owned, err := OwnsCar(db, user, car)
	if err != nil || owned {
		return err
	}
	return db.Model(user).Association("Cars").Append(car)
}

// RemoveCar drops the ownership edge. Removing a car the user does not own
// is a no-op.
func RemoveCar(db *gorm.DB, user *models.User, car *models.Car) error {
	return db.Model(user).Association("Cars").Delete(car)
}

// CountOwners counts the users holding an ownership edge to the car.
func CountOwners(db *gorm.DB, car *models.Car) int64 {
	return db.Model(car).Association("Users").Count()
}

// CountCars counts the cars owned by the user.
func CountCars(db *gorm.DB, user *models.User) int64 {
	return db.Model(user).Association("Cars").Count()
}
