package main

// Run database migrations:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate status   print migration status

import (
	"context"
	"log"
	"os"

	"ats-checker/internal/shared/config"
	"ats-checker/internal/shared/storage/db"
	"ats-checker/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if logger, err := telemetry.New(false, cfg.LogDebug); err == nil {
		telemetry.SetLogger(logger)
	}
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if command != "up" && command != "status" {
		log.Printf("unknown command %q (want up or status)", command)
		os.Exit(2)
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	run := db.RunMigrations
	if command == "status" {
		run = db.MigrationStatus
	}
	if err := run(ctx, sqlDB); err != nil {
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
}
