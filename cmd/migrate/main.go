package main

// Run database migrations:
//   go run ./cmd/migrate            # apply pending migrations
//   go run ./cmd/migrate -cmd status
//   go run ./cmd/migrate -cmd down  # roll back the latest migration

import (
	"context"
	"flag"
	"log"
	"os"

	"bidsflow-backend/internal/shared/config"
	"bidsflow-backend/internal/shared/storage/db"
)

func main() {
	command := flag.String("cmd", db.MigrateUp, "migration command: up, down or status")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.OptionsFor(db.ProfileMigrate))
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, *command); err != nil {
		log.Printf("migrate %s failed: %v", *command, err)
		os.Exit(1)
	}
	log.Printf("migrate %s done", *command)
}
