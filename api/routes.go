package api

import (
	"fmt"
	"log/slog"

	"github.com/garnizeh/devmarket/internal/config"
	"github.com/garnizeh/devmarket/internal/db"
	"github.com/garnizeh/devmarket/internal/identity"
	"github.com/garnizeh/devmarket/internal/marketplace"
	"github.com/garnizeh/devmarket/internal/repository/sqlite"
	"github.com/garnizeh/devmarket/internal/storage"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/garnizeh/devmarket/schemas"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository and services
	repo := sqlite.New(db, logger)

	ids, err := identity.NewService(repo, identity.NewTokenCodec(cfg.JWTSecret, cfg.TokenDuration), cfg.BcryptCost, logger)
	if err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}
	validator, err := validation.New(schemas.FS)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	logger.Info("request schemas loaded", slog.Any("schemas", validator.Names()))
	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	market := marketplace.NewService(repo, files, cfg.MaxUploadBytes, logger)

	// Create handlers
	systemHandler := &SystemHandler{DB: db.GetConn()}
	authHandler := NewAuthHandler(ids, validator)
	userHandler := NewUserHandler(market)
	projectHandler := NewProjectHandler(market, validator)
	taskHandler := NewTaskHandler(market, validator, cfg.MaxUploadBytes)
	paymentHandler := NewPaymentHandler(market, validator)
	adminHandler := NewAdminHandler(market)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/v1/auth/login", authHandler.Login).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(AuthMiddleware(ids))

	apiV1.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")

	apiV1.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	apiV1.HandleFunc("/users/developers", userHandler.Developers).Methods("GET")
	apiV1.HandleFunc("/users", userHandler.List).Methods("GET")

	apiV1.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	apiV1.HandleFunc("/projects", projectHandler.List).Methods("GET")
	apiV1.HandleFunc("/projects/{id:[0-9]+}", projectHandler.Get).Methods("GET")
	apiV1.HandleFunc("/projects/{id:[0-9]+}", projectHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/projects/{id:[0-9]+}", projectHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/projects/{id:[0-9]+}/tasks", projectHandler.Tasks).Methods("GET")

	apiV1.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	apiV1.HandleFunc("/tasks", taskHandler.List).Methods("GET")
	apiV1.HandleFunc("/tasks/my", taskHandler.Mine).Methods("GET")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Get).Methods("GET")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Update).Methods("PUT")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}", taskHandler.Delete).Methods("DELETE")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}/start", taskHandler.Start).Methods("PATCH")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}/submit", taskHandler.Submit).Methods("POST")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}/download", taskHandler.Download).Methods("GET")
	apiV1.HandleFunc("/tasks/{id:[0-9]+}/payment", paymentHandler.ForTask).Methods("GET")

	apiV1.HandleFunc("/payments", paymentHandler.Create).Methods("POST")
	apiV1.HandleFunc("/payments", paymentHandler.List).Methods("GET")

	apiV1.HandleFunc("/admin/stats", adminHandler.Stats).Methods("GET")

	return r, nil
}
