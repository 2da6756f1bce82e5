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
	"github.com/koyabica/carrent/internal/serialize"
	"github.com/koyabica/carrent/internal/service"
	"github.com/koyabica/carrent/internal/util"
)

type UserHandler struct {
	DB         *gorm.DB
	Producer   *mykafka.Producer
	AdminEmail string
}

func (h *UserHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.NoticeTopic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// CreateUser registers a new user from a JSON payload. Open endpoint.
func (h *UserHandler) CreateUser(c echo.Context) error {
	var data service.UserData
	if err := c.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var user *models.User
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = service.Register(tx, data, h.AdminEmail)
		return err
	})
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/v1/users/%d", user.ID))
	return c.JSON(http.StatusCreated, newUserSummary(h.DB, user, true))
}

// GetUser returns one user. Email is visible to the subject and to
// administrators only.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := service.UserByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}
	caller := auth.CurrentUser(c)
	return c.JSON(http.StatusOK, newUserSummary(h.DB, user, auth.CanAccessUser(caller, user.ID)))
}

// GetUsers lists users as a paginated collection.
func (h *UserHandler) GetUsers(c echo.Context) error {
	page, perPage := pageParams(c)
	offset, limit := util.Calculate(page, perPage)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return httpError(err)
	}
	var users []models.User
	if err := h.DB.Preload("Role").Preload("Language").
		Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return httpError(err)
	}

	caller := auth.CurrentUser(c)
	data := serialize.NewCollection(users, total, page, perPage,
		pageLink("/api/v1/users", perPage),
		func(u models.User) any {
			return newUserSummary(h.DB, &u, auth.CanAccessUser(caller, u.ID))
		})
	return c.JSON(http.StatusOK, data)
}

// GetUserCars lists the cars owned by one user, localized for the caller.
func (h *UserHandler) GetUserCars(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := service.UserByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}

	page, perPage := pageParams(c)
	offset, limit := util.Calculate(page, perPage)

	total := service.CountCars(h.DB, user)
	var cars []models.Car
	err = h.DB.Model(&models.Car{}).Preload("Names.Language").
		Joins("JOIN user_cars ON user_cars.car_id = cars.id AND user_cars.user_id = ?", user.ID).
		Order("cars.created_at DESC").Offset(offset).Limit(limit).
		Find(&cars).Error
	if err != nil {
		return httpError(err)
	}

	langCode := displayLanguage(c.QueryParam("lang"), auth.CurrentUser(c))
	data := serialize.NewCollection(cars, total, page, perPage,
		pageLink(fmt.Sprintf("/api/v1/users/%d/cars", user.ID), perPage),
		func(car models.Car) any {
			return newCarSummary(h.DB, &car, langCode)
		})
	return c.JSON(http.StatusOK, data)
}

// UpdateUser edits a user. Self-or-admin.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := service.UserByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}
	if !auth.CanAccessUser(auth.CurrentUser(c), user.ID) {
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}

	var data service.UserData
	if err := c.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.ApplyUserData(tx, user, data)
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newUserSummary(h.DB, user, true))
}

// DeleteUser removes a user; their cars stay. Admin only.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := service.UserByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.DeleteUser(tx, user)
	})
	if err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddCarToUser creates the ownership edge and notifies the mail consumer.
// Admin only; adding an already-owned car is a no-op.
func (h *UserHandler) AddCarToUser(c echo.Context) error {
	user, car, err := h.userAndCar(c)
	if err != nil {
		return err
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.AddCar(tx, user, car)
	})
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "car_assigned",
		"user_id":  user.ID,
		"email":    user.Email,
		"car_id":   car.ID,
		"car_name": car.LocalizedName(user.Language.Code, true),
	})
	return c.JSON(http.StatusOK, newUserSummary(h.DB, user, true))
}

// RemoveCarFromUser drops the ownership edge and notifies the mail consumer.
// Admin only; removing a non-owned car is a no-op.
func (h *UserHandler) RemoveCarFromUser(c echo.Context) error {
	user, car, err := h.userAndCar(c)
	if err != nil {
		return err
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.RemoveCar(tx, user, car)
	})
	if err != nil {
		return httpError(err)
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "car_removed",
		"user_id":  user.ID,
		"email":    user.Email,
		"car_id":   car.ID,
		"car_name": car.LocalizedName(user.Language.Code, true),
	})
	return c.JSON(http.StatusOK, newUserSummary(h.DB, user, true))
}

func (h *UserHandler) userAndCar(c echo.Context) (*models.User, *models.Car, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	carID, err := idParam(c, "car_id")
	if err != nil {
		return nil, nil, err
	}
	user, err := service.UserByID(h.DB, id)
	if err != nil {
		return nil, nil, httpError(err)
	}
	car, err := service.CarByID(h.DB, carID)
	if err != nil {
		return nil, nil, httpError(err)
	}
	return user, car, nil
}
