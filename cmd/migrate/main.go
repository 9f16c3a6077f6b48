// Command migrate applies the embedded database migrations.
//
//	migrate up | down | status
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/config"
	"github.com/boddenberg/linkbio-api-go/internal/infra/migrations"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"

	"go.uber.org/zap"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := migrations.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	switch cmd {
	case "up":
		err = migrations.Up(ctx, db, logger)
	case "down":
		err = migrations.Down(ctx, db, logger)
	case "status":
		err = migrations.Status(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|status]\n")
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("migration failed", zap.String("command", cmd), zap.Error(err))
	}
}
