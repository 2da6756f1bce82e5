package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/koyabica/carrent/internal/models"
)

// PermissionRequired denies callers whose role lacks the capability. It runs
// after RequireToken, so the identity is already confirmed and the answer is
// forbidden, not unauthorized.
func PermissionRequired(p models.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentUser(c).Can(p) {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			return next(c)
		}
	}
}

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return PermissionRequired(models.PermissionAdmin)(next)
}

// CanAccessUser implements the self-or-admin rule for user resources.
func CanAccessUser(caller *models.User, ownerID uint) bool {
	return caller.ID == ownerID || caller.IsAdministrator()
}
