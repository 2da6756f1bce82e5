package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/models"
)

type LanguageHandler struct {
	DB *gorm.DB
}

// GetLanguages lists the supported languages in a stable order, ready for
// select inputs and per-language form fields.
func (h *LanguageHandler) GetLanguages(c echo.Context) error {
	choices, err := models.LanguageChoices(h.DB)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, choices)
}
