package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/errs"
	"github.com/koyabica/carrent/internal/hash"
	"github.com/koyabica/carrent/internal/models"
)

// DefaultTokenTTL is how long a freshly issued API token stays valid.
const DefaultTokenTTL = time.Hour

// tokenGrace: an existing token is reused as long as it has at least this
// much validity left, so bursty clients don't rotate it needlessly.
const tokenGrace = 60 * time.Second

type UserData struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	LanguageCode string `json:"language_code"`
}

// Register creates a new user. Username and email are checked before the
// insert; a concurrent registration that slips past the check surfaces as
// gorm.ErrDuplicatedKey and is converted back into the matching duplicate
// failure. The role is the default one unless the email matches the
// configured bootstrap admin address.
func Register(db *gorm.DB, data UserData, adminEmail string) (*models.User, error) {
	if data.Username == "" || data.Email == "" || data.Password == "" || data.LanguageCode == "" {
		return nil, errs.NewValidation("user", "must include username, email, language and password fields")
	}

	if err := checkDuplicates(db, nil, data.Username, data.Email); err != nil {
		return nil, err
	}

	lang, err := models.LanguageByCode(db, data.LanguageCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewValidation("language_code", "unknown language code")
		}
		return nil, err
	}

	passwordHash, err := hash.HashPassword(data.Password)
	if err != nil {
		return nil, err
	}

	roleName := "user"
	if adminEmail != "" && data.Email == adminEmail {
		roleName = "admin"
	}
	var role models.Role
	if roleName == "user" {
		defRole, err := models.DefaultRole(db)
		if err != nil {
			return nil, err
		}
		role = *defRole
	} else if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, err
	}

	user := models.User{
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: passwordHash,
		LanguageID:   lang.ID,
		Language:     *lang,
		RoleID:       role.ID,
		Role:         role,
	}
	if err := db.Omit("Language", "Role").Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateKind(db, data.Username)
		}
		return nil, err
	}

	return &user, nil
}

// duplicateKind decides which uniqueness constraint lost the race.
func duplicateKind(db *gorm.DB, username string) error {
	var count int64
	db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return errs.ErrDuplicateUsername
	}
	return errs.ErrDuplicateEmail
}

func checkDuplicates(db *gorm.DB, self *models.User, username, email string) error {
	if username != "" && (self == nil || username != self.Username) {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.ErrDuplicateUsername
		}
	}
	if email != "" && (self == nil || email != self.Email) {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.ErrDuplicateEmail
		}
	}
	return nil
}

// ApplyUserData updates an existing user from a partial payload, re-checking
// uniqueness for changed username/email. Unknown fields are the caller's
// problem; empty ones are left untouched.
func ApplyUserData(db *gorm.DB, user *models.User, data UserData) error {
	if err := checkDuplicates(db, user, data.Username, data.Email); err != nil {
		return err
	}
	if data.Username != "" {
		user.Username = data.Username
	}
	if data.Email != "" {
		user.Email = data.Email
	}
	if data.LanguageCode != "" {
		lang, err := models.LanguageByCode(db, data.LanguageCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NewValidation("language_code", "unknown language code")
			}
			return err
		}
		user.LanguageID = lang.ID
		user.Language = *lang
	}
	if data.Password != "" {
		passwordHash, err := hash.HashPassword(data.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = passwordHash
	}
	if err := db.Omit("Language", "Role", "Cars").Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicateKind(db, data.Username)
		}
		return err
	}
	return nil
}

// UserByID loads a user with its role and language.
func UserByID(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := db.Preload("Role").Preload("Language").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies a username/password pair. The same failure comes
// back whether the user is unknown or the password wrong.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.Preload("Role").Preload("Language").Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, errs.ErrInvalidCredentials
	}
	return &user, nil
}

// DeleteUser removes the user and its ownership edges. Owned cars stay.
func DeleteUser(db *gorm.DB, user *models.User) error {
	if err := db.Model(user).Association("Cars").Clear(); err != nil {
		return err
	}
	return db.Delete(user).Error
}

// IssueResetToken signs a short-lived password-reset token carrying the
// user id.
func IssueResetToken(secret []byte, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"reset_password": user.ID,
		"exp":            time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// VerifyResetToken resolves a reset token back to its user. Malformed,
// mis-signed and expired tokens all come back as no user, never as an error
// the caller has to tell apart.
func VerifyResetToken(db *gorm.DB, secret []byte, token string) *models.User {
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !t.Valid {
		return nil
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id, ok := claims["reset_password"].(float64)
	if !ok {
		return nil
	}
	var user models.User
	if err := db.Preload("Role").Preload("Language").First(&user, uint(id)).Error; err != nil {
		return nil
	}
	return &user
}

// IssueAPIToken hands out the user's bearer token, reusing the current one
// while it still has more than a minute to live.
func IssueAPIToken(db *gorm.DB, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	if user.Token != nil && user.TokenExpiresAt != nil && user.TokenExpiresAt.After(now.Add(tokenGrace)) {
		return *user.Token, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)
	expires := now.Add(ttl)

	user.Token = &token
	user.TokenExpiresAt = &expires
	err := db.Model(user).Updates(map[string]any{
		"token":            token,
		"token_expires_at": expires,
	}).Error
	if err != nil {
		return "", err
	}
	return token, nil
}

// RevokeAPIToken pushes the token's expiry into the past. The row survives,
// so expiry stays the single source of truth for in-flight requests.
func RevokeAPIToken(db *gorm.DB, user *models.User) error {
	expired := time.Now().Add(-time.Second)
	user.TokenExpiresAt = &expired
	return db.Model(user).Update("token_expires_at", expired).Error
}

// CheckAPIToken resolves a bearer token to its user, or to nobody when the
// token is unknown or past its expiry.
func CheckAPIToken(db *gorm.DB, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	var user models.User
	err := db.Preload("Role").Preload("Language").Where("token = ?", token).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if user.TokenExpiresAt == nil || user.TokenExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &user, nil
}
