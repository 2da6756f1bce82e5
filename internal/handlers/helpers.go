package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/errs"
	"github.com/koyabica/carrent/internal/util"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func pageParams(c echo.Context) (page, perPage int) {
	page = parseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	perPage = parseIntDefault(c.QueryParam("per_page"), util.DefaultPageSize)
	_, perPage = util.Calculate(page, perPage)
	return page, perPage
}

func pageLink(base string, perPage int) func(page int) string {
	return func(page int) string {
		return fmt.Sprintf("%s?page=%d&per_page=%d", base, page, perPage)
	}
}

// httpError maps the core error taxonomy onto HTTP statuses. Anything
// unclassified is an internal error and stays opaque to the caller.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errs.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrInvalidCredentials),
		errors.Is(err, errs.ErrInvalidToken),
		errors.Is(err, errs.ErrExpiredToken):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
