package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/config"
	"github.com/koyabica/carrent/internal/models"
	"github.com/koyabica/carrent/internal/service"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func newCtx(token string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireToken(t *testing.T) {
	db := initTestDB(t)
	ta := &TokenAuth{DB: db}

	user, err := service.Register(db, service.UserData{
		Username: "john", Email: "john@example.com",
		Password: "password", LanguageCode: "en",
	}, "")
	require.NoError(t, err)
	token, err := service.IssueAPIToken(db, user, service.DefaultTokenTTL)
	require.NoError(t, err)

	c := newCtx(token)
	require.NoError(t, ta.RequireToken(okHandler)(c))
	require.Equal(t, user.ID, CurrentUser(c).ID)

	for _, bad := range []string{"", "deadbeef"} {
		err := ta.RequireToken(okHandler)(newCtx(bad))
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, he.Code)
	}
}

func TestCurrentUserDefaultsToAnonymous(t *testing.T) {
	c := newCtx("")
	user := CurrentUser(c)
	require.NotNil(t, user)
	require.False(t, user.Can(models.PermissionUser))
}

func TestPermissionRequired(t *testing.T) {
	db := initTestDB(t)
	ta := &TokenAuth{DB: db}

	admin, err := service.Register(db, service.UserData{
		Username: "root", Email: "admin@example.com",
		Password: "password", LanguageCode: "en",
	}, "admin@example.com")
	require.NoError(t, err)
	regular, err := service.Register(db, service.UserData{
		Username: "john", Email: "john@example.com",
		Password: "password", LanguageCode: "en",
	}, "")
	require.NoError(t, err)

	adminToken, err := service.IssueAPIToken(db, admin, service.DefaultTokenTTL)
	require.NoError(t, err)
	userToken, err := service.IssueAPIToken(db, regular, service.DefaultTokenTTL)
	require.NoError(t, err)

	guarded := ta.RequireToken(AdminOnly(okHandler))

	require.NoError(t, guarded(newCtx(adminToken)))

	err = guarded(newCtx(userToken))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestCanAccessUser(t *testing.T) {
	adminRole := models.Role{}
	adminRole.Add(models.PermissionUser)
	adminRole.Add(models.PermissionAdmin)

	admin := &models.User{ID: 1, Role: adminRole}
	self := &models.User{ID: 2}

	require.True(t, CanAccessUser(self, 2))
	require.False(t, CanAccessUser(self, 3))
	require.True(t, CanAccessUser(admin, 3))
	require.False(t, CanAccessUser(models.AnonymousUser(), 3))
}
