package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/koyabica/carrent/internal/config"
	"github.com/koyabica/carrent/internal/es"
	"github.com/koyabica/carrent/internal/handlers"
	"github.com/koyabica/carrent/internal/logging"
	authmw "github.com/koyabica/carrent/internal/middleware/auth"
	"github.com/koyabica/carrent/internal/mykafka"
	httpserver "github.com/koyabica/carrent/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	secret := []byte(configuration.SECRET_KEY)
	deps := httpserver.Deps{
		DB:              db,
		TokenAuth:       &authmw.TokenAuth{DB: db},
		AuthHandler:     &handlers.AuthHandler{DB: db, Secret: secret, Producer: prod},
		UserHandler:     &handlers.UserHandler{DB: db, Producer: prod, AdminEmail: configuration.ADMIN_EMAIL},
		CarHandler:      &handlers.CarHandler{DB: db, ES: esClient, Index: es.CarIndex},
		SearchHandler:   &handlers.SearchHandler{ES: esClient, Index: es.CarIndex},
		LanguageHandler: &handlers.LanguageHandler{DB: db},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", configuration.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "err", err)
	}

	logger.Info("shutdown complete")
}
