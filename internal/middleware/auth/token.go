package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/models"
	"github.com/koyabica/carrent/internal/service"
)

const userContextKey = "current_user"

type TokenAuth struct {
	DB *gorm.DB
}

// RequireToken resolves the bearer token to a caller identity. Absent,
// unknown and expired tokens all get the same unauthorized answer.
func (t *TokenAuth) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := service.CheckAPIToken(t.DB, bearerToken(c))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "token lookup failed")
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// CurrentUser returns the authenticated caller, or the anonymous identity
// when nobody is logged in. Never nil.
func CurrentUser(c echo.Context) *models.User {
	if v := c.Get(userContextKey); v != nil {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return models.AnonymousUser()
}
