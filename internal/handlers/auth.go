package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/middleware/auth"
	"github.com/koyabica/carrent/internal/models"
	"github.com/koyabica/carrent/internal/mykafka"
	"github.com/koyabica/carrent/internal/service"
)

const resetTokenTTL = 10 * time.Minute

type AuthHandler struct {
	DB       *gorm.DB
	Secret   []byte
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.NoticeTopic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Login trades a username/password pair for a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := service.Authenticate(h.DB, req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	var token string
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		token, err = service.IssueAPIToken(tx, user, service.DefaultTokenTTL)
		return err
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// Logout revokes the caller's token by expiring it.
func (h *AuthHandler) Logout(c echo.Context) error {
	user := auth.CurrentUser(c)
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		return service.RevokeAPIToken(tx, user)
	})
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestPasswordReset issues a signed reset token and hands it to the mail
// collaborator. The answer is the same whether the email is known or not.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var user models.User
	if h.DB.Preload("Language").Where("email = ?", req.Email).First(&user).Error == nil {
		token, err := service.IssueResetToken(h.Secret, &user, resetTokenTTL)
		if err == nil {
			h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
				"type":     "password_reset_requested",
				"user_id":  user.ID,
				"email":    user.Email,
				"token":    token,
				"language": user.Language.Code,
			})
		}
	}

	return c.JSON(http.StatusAccepted, echo.Map{"message": "check your email for the instructions to reset your password"})
}

// ResetPassword consumes a reset token and stores the new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user := service.VerifyResetToken(h.DB, h.Secret, req.Token)
	if user == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired reset token")
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		return service.ApplyUserData(tx, user, service.UserData{Password: req.Password})
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "your password has been reset"})
}
