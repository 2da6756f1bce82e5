package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/config"
	"github.com/koyabica/carrent/internal/errs"
	"github.com/koyabica/carrent/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func registerTestUser(t *testing.T, db *gorm.DB, username, email string) *models.User {
	user, err := Register(db, UserData{
		Username:     username,
		Email:        email,
		Password:     "password",
		LanguageCode: "en",
	}, "")
	require.NoError(t, err)
	return user
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	db := initTestDB(t)

	user := registerTestUser(t, db, "john", "john@example.com")
	require.NotZero(t, user.ID)
	require.Equal(t, "en", user.Language.Code)
	require.NotEqual(t, "password", user.PasswordHash)
	require.True(t, user.Can(models.PermissionUser))
	require.False(t, user.IsAdministrator())
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	db := initTestDB(t)

	user, err := Register(db, UserData{
		Username:     "root",
		Email:        "admin@example.com",
		Password:     "password",
		LanguageCode: "en",
	}, "admin@example.com")
	require.NoError(t, err)
	require.True(t, user.IsAdministrator())
}

func TestRegisterDuplicates(t *testing.T) {
	db := initTestDB(t)
	registerTestUser(t, db, "john", "john@example.com")

	_, err := Register(db, UserData{
		Username: "john", Email: "other@example.com",
		Password: "password", LanguageCode: "en",
	}, "")
	require.ErrorIs(t, err, errs.ErrDuplicateUsername)

	_, err = Register(db, UserData{
		Username: "jane", Email: "john@example.com",
		Password: "password", LanguageCode: "en",
	}, "")
	require.ErrorIs(t, err, errs.ErrDuplicateEmail)
}

func TestRegisterMissingFields(t *testing.T) {
	db := initTestDB(t)

	_, err := Register(db, UserData{Username: "john"}, "")
	require.True(t, errs.IsValidation(err))

	_, err = Register(db, UserData{
		Username: "john", Email: "john@example.com",
		Password: "password", LanguageCode: "xx",
	}, "")
	require.True(t, errs.IsValidation(err))
}

// A racing insert that slips past the pre-check surfaces as a translated
// duplicated-key error; duplicateKind decides which constraint lost.
func TestDuplicateKeyConversion(t *testing.T) {
	db := initTestDB(t)
	first := registerTestUser(t, db, "john", "john@example.com")

	err := db.Create(&models.User{
		Username:     "john",
		Email:        "race@example.com",
		PasswordHash: "x",
		LanguageID:   first.LanguageID,
		RoleID:       first.RoleID,
	}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.ErrorIs(t, duplicateKind(db, "john"), errs.ErrDuplicateUsername)
	require.ErrorIs(t, duplicateKind(db, "nobody"), errs.ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	db := initTestDB(t)
	registerTestUser(t, db, "john", "john@example.com")

	user, err := Authenticate(db, "john", "password")
	require.NoError(t, err)
	require.Equal(t, "john", user.Username)
	require.Equal(t, "en", user.Language.Code)

	_, err = Authenticate(db, "john", "wrong")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)

	_, err = Authenticate(db, "nobody", "password")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestAPITokenLifecycle(t *testing.T) {
	db := initTestDB(t)
	user := registerTestUser(t, db, "john", "john@example.com")

	token, err := IssueAPIToken(db, user, DefaultTokenTTL)
	require.NoError(t, err)
	require.Len(t, token, 64)

	// Still plenty of validity left: the same token comes back.
	again, err := IssueAPIToken(db, user, DefaultTokenTTL)
	require.NoError(t, err)
	require.Equal(t, token, again)

	found, err := CheckAPIToken(db, token)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)
	require.Equal(t, "en", found.Language.Code)

	// Under a minute of validity left: a fresh token replaces it.
	nearExpiry := time.Now().Add(30 * time.Second)
	user.TokenExpiresAt = &nearExpiry
	require.NoError(t, db.Model(user).Update("token_expires_at", nearExpiry).Error)
	rotated, err := IssueAPIToken(db, user, DefaultTokenTTL)
	require.NoError(t, err)
	require.NotEqual(t, token, rotated)

	require.NoError(t, RevokeAPIToken(db, user))
	gone, err := CheckAPIToken(db, rotated)
	require.NoError(t, err)
	require.Nil(t, gone)

	unknown, err := CheckAPIToken(db, "deadbeef")
	require.NoError(t, err)
	require.Nil(t, unknown)
}

func TestResetToken(t *testing.T) {
	db := initTestDB(t)
	user := registerTestUser(t, db, "john", "john@example.com")
	secret := []byte("test-secret")

	token, err := IssueResetToken(secret, user, 10*time.Minute)
	require.NoError(t, err)

	found := VerifyResetToken(db, secret, token)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)

	expired, err := IssueResetToken(secret, user, -time.Minute)
	require.NoError(t, err)
	require.Nil(t, VerifyResetToken(db, secret, expired))

	require.Nil(t, VerifyResetToken(db, secret, "garbage"))
	require.Nil(t, VerifyResetToken(db, []byte("other-secret"), token))
}

func TestApplyUserData(t *testing.T) {
	db := initTestDB(t)
	user := registerTestUser(t, db, "john", "john@example.com")
	registerTestUser(t, db, "jane", "jane@example.com")

	err := ApplyUserData(db, user, UserData{Username: "jane"})
	require.ErrorIs(t, err, errs.ErrDuplicateUsername)

	require.NoError(t, ApplyUserData(db, user, UserData{Username: "johnny", LanguageCode: "ru"}))
	reloaded, err := UserByID(db, user.ID)
	require.NoError(t, err)
	require.Equal(t, "johnny", reloaded.Username)
	require.Equal(t, "ru", reloaded.Language.Code)

	err = ApplyUserData(db, user, UserData{LanguageCode: "xx"})
	require.True(t, errs.IsValidation(err))
}

func TestDeleteUserKeepsCars(t *testing.T) {
	db := initTestDB(t)
	user := registerTestUser(t, db, "john", "john@example.com")

	car, err := CreateCar(db, 2020, map[string]string{"en": "Sedan"})
	require.NoError(t, err)
	require.NoError(t, AddCar(db, user, car))

	require.NoError(t, DeleteUser(db, user))

	var edges int64
	require.NoError(t, db.Table("user_cars").Count(&edges).Error)
	require.EqualValues(t, 0, edges)

	_, err = CarByID(db, car.ID)
	require.NoError(t, err)
}
