package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	dbfs "github.com/garnizeh/devmarket/db"
	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/config"
	"github.com/garnizeh/devmarket/internal/db"
	"github.com/garnizeh/devmarket/internal/identity"
	"github.com/garnizeh/devmarket/internal/repository/sqlite"
	"github.com/garnizeh/devmarket/pkg/models"
)

// Applies migrations. When MARKET_ADMIN_EMAIL and MARKET_ADMIN_PASSWORD are
// set, also creates that admin account unless the email is already taken.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	email, password := os.Getenv("MARKET_ADMIN_EMAIL"), os.Getenv("MARKET_ADMIN_PASSWORD")
	if email != "" && password != "" {
		ids, err := identity.NewService(sqlite.New(database, logger), identity.NewTokenCodec(cfg.JWTSecret, cfg.TokenDuration), cfg.BcryptCost, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Identity error: %v\n", err)
			os.Exit(1)
		}

		_, err = ids.Provision(ctx, email, password, models.RoleAdmin)
		switch {
		case errors.Is(err, apperr.ErrDuplicateEmail):
			fmt.Printf("Admin %s already exists.\n", email)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Admin seed error: %v\n", err)
			os.Exit(1)
		default:
			fmt.Printf("Admin %s created.\n", email)
		}
	}

	fmt.Println("Database initialized successfully.")
}
