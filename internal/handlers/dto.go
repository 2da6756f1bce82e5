package handlers

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/models"
	"github.com/koyabica/carrent/internal/service"
)

type selfLinks struct {
	Self string `json:"self"`
}

type userLinks struct {
	Self string `json:"self"`
	Cars string `json:"cars"`
}

type userSummary struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	LanguageCode string    `json:"language_code"`
	CarCount     int64     `json:"car_count"`
	Links        userLinks `json:"_links"`
}

// newUserSummary builds the API shape of a user. The email field is only
// present when the caller passed the self-or-admin check.
func newUserSummary(db *gorm.DB, u *models.User, includeEmail bool) userSummary {
	s := userSummary{
		ID:           u.ID,
		Username:     u.Username,
		LanguageCode: u.Language.Code,
		CarCount:     service.CountCars(db, u),
		Links: userLinks{
			Self: fmt.Sprintf("/api/v1/users/%d", u.ID),
			Cars: fmt.Sprintf("/api/v1/users/%d/cars", u.ID),
		},
	}
	if includeEmail {
		s.Email = u.Email
	}
	return s
}

type carSummary struct {
	ID          uint      `json:"id"`
	Year        int       `json:"year"`
	UsersCount  int64     `json:"users_count"`
	Name        string    `json:"name"`
	DefaultName string    `json:"default_name,omitempty"`
	Links       selfLinks `json:"_links"`
}

// newCarSummary localizes the car for langCode. Off the default language the
// default name rides along for disambiguation.
func newCarSummary(db *gorm.DB, car *models.Car, langCode string) carSummary {
	s := carSummary{
		ID:         car.ID,
		Year:       car.Year,
		UsersCount: service.CountOwners(db, car),
		Name:       car.LocalizedName(langCode, false),
		Links:      selfLinks{Self: fmt.Sprintf("/api/v1/cars/%d", car.ID)},
	}
	if langCode != models.DefaultLanguageCode {
		s.DefaultName = car.LocalizedName(models.DefaultLanguageCode, false)
	}
	return s
}

// displayLanguage picks the language cars are localized to: the caller's
// assigned language, overridable per request.
func displayLanguage(langQuery string, caller *models.User) string {
	if langQuery != "" {
		return langQuery
	}
	if caller.Language.Code != "" {
		return caller.Language.Code
	}
	return models.DefaultLanguageCode
}
