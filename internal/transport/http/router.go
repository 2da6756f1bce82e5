package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/koyabica/carrent/internal/handlers"
	"github.com/koyabica/carrent/internal/middleware/auth"
)

type Deps struct {
	DB              *gorm.DB
	TokenAuth       *auth.TokenAuth
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	CarHandler      *handlers.CarHandler
	SearchHandler   *handlers.SearchHandler
	LanguageHandler *handlers.LanguageHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	// Open endpoints.
	v1.POST("/users", d.UserHandler.CreateUser)
	v1.POST("/tokens", d.AuthHandler.Login)
	v1.POST("/reset_password", d.AuthHandler.RequestPasswordReset)
	v1.POST("/reset_password/confirm", d.AuthHandler.ResetPassword)
	v1.GET("/languages", d.LanguageHandler.GetLanguages)

	// Everything below requires a valid bearer token.
	authed := v1.Group("", d.TokenAuth.RequireToken)

	authed.DELETE("/tokens", d.AuthHandler.Logout)

	authed.GET("/users", d.UserHandler.GetUsers)
	authed.GET("/users/:id", d.UserHandler.GetUser)
	authed.GET("/users/:id/cars", d.UserHandler.GetUserCars)
	authed.PUT("/users/:id", d.UserHandler.UpdateUser)
	authed.DELETE("/users/:id", d.UserHandler.DeleteUser, auth.AdminOnly)
	authed.POST("/users/:id/cars/:car_id", d.UserHandler.AddCarToUser, auth.AdminOnly)
	authed.DELETE("/users/:id/cars/:car_id", d.UserHandler.RemoveCarFromUser, auth.AdminOnly)

	authed.GET("/cars", d.CarHandler.GetCars)
	authed.GET("/cars/search", d.SearchHandler.Search)
	authed.GET("/cars/:id", d.CarHandler.GetCar)
	authed.POST("/cars", d.CarHandler.CreateCar, auth.AdminOnly)
	authed.PUT("/cars/:id", d.CarHandler.UpdateCar, auth.AdminOnly)
	authed.DELETE("/cars/:id", d.CarHandler.DeleteCar, auth.AdminOnly)
}
