// @title DigComp self-assessment API
// @version 1.0
// @description Backend for the DigComp digital competence self-assessment quiz.

// @host localhost:8080
// @BasePath /api

package main

import (
	"context"
	"digcomp_backend/internal/app"
	"digcomp_backend/internal/config"
	"digcomp_backend/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "run database migrations on start, even in release mode")
	seedFile := flag.String("seed", "", "import a YAML question bank before serving")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly
	cfg.SeedFile = *seedFile

	application := app.NewApp(cfg, configDir)
	defer logger.Log.Sync()

	if cfg.SeedFile != "" {
		if err := application.Seed(context.Background(), cfg.SeedFile); err != nil {
			logger.Log.Fatal("Seed import failed", zap.Error(err))
		}
	}

	if cfg.MigrateOnly {
		logger.Log.Info("Database migration finished, exiting")
		return
	}

	application.Run()
}
