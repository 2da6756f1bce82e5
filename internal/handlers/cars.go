package handlers

import (
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/middleware/auth"
	"github.com/koyabica/carrent/internal/models"
	"github.com/koyabica/carrent/internal/serialize"
	"github.com/koyabica/carrent/internal/service"
	"github.com/koyabica/carrent/internal/service/search"
	"github.com/koyabica/carrent/internal/util"
)

type CarHandler struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

type carRequest struct {
	Year  int               `json:"year"`
	Names map[string]string `json:"names"`
}

func (h *CarHandler) index(c echo.Context, car *models.Car) {
	if h.ES == nil {
		return
	}
	if err := search.IndexCar(c.Request().Context(), h.ES, h.Index, car); err != nil {
		c.Logger().Errorf("ES index error: %v", err)
	}
}

// GetCar returns one car localized for the caller.
func (h *CarHandler) GetCar(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	car, err := service.CarByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}
	langCode := displayLanguage(c.QueryParam("lang"), auth.CurrentUser(c))
	return c.JSON(http.StatusOK, newCarSummary(h.DB, car, langCode))
}

// GetCars lists cars newest-first as a paginated collection.
func (h *CarHandler) GetCars(c echo.Context) error {
	page, perPage := pageParams(c)
	offset, limit := util.Calculate(page, perPage)

	var total int64
	if err := h.DB.Model(&models.Car{}).Count(&total).Error; err != nil {
		return httpError(err)
	}
	var cars []models.Car
	err := h.DB.Preload("Names.Language").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&cars).Error
	if err != nil {
		return httpError(err)
	}

	langCode := displayLanguage(c.QueryParam("lang"), auth.CurrentUser(c))
	data := serialize.NewCollection(cars, total, page, perPage,
		pageLink("/api/v1/cars", perPage),
		func(car models.Car) any {
			return newCarSummary(h.DB, &car, langCode)
		})
	return c.JSON(http.StatusOK, data)
}

// CreateCar registers a car with its localized names. Admin only.
func (h *CarHandler) CreateCar(c echo.Context) error {
	var req carRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var car *models.Car
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		car, err = service.CreateCar(tx, req.Year, req.Names)
		return err
	})
	if err != nil {
		return httpError(err)
	}

	h.index(c, car)

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/v1/cars/%d", car.ID))
	return c.JSON(http.StatusCreated, newCarSummary(h.DB, car, models.DefaultLanguageCode))
}

// UpdateCar reconciles year and localized names. Admin only.
func (h *CarHandler) UpdateCar(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	car, err := service.CarByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}

	var req carRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.UpdateCar(tx, car, req.Year, req.Names)
	})
	if err != nil {
		return httpError(err)
	}

	h.index(c, car)
	return c.JSON(http.StatusOK, newCarSummary(h.DB, car, models.DefaultLanguageCode))
}

// DeleteCar removes the car, its localized names and its ownership edges.
// The owning users stay. Admin only.
func (h *CarHandler) DeleteCar(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	car, err := service.CarByID(h.DB, id)
	if err != nil {
		return httpError(err)
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		return service.DeleteCar(tx, car)
	})
	if err != nil {
		return httpError(err)
	}

	if h.ES != nil {
		if err := search.DeleteCar(c.Request().Context(), h.ES, h.Index, car.ID); err != nil {
			c.Logger().Errorf("ES delete error: %v", err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}
