// Imports a question bank without starting the server, e.g. after editing
// the seed file on a running deployment.
//
// Usage: go run scripts/import_bank.go configs/seed.example.yaml

package main

import (
	"context"
	"digcomp_backend/internal/config"
	"digcomp_backend/internal/repository"
	"digcomp_backend/internal/seed"
	"digcomp_backend/pkg/database"
	"digcomp_backend/pkg/logger"
	"log"
	"os"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <seed.yaml>", os.Args[0])
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ForceMigrate = true

	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	st, err := seed.ImportFile(context.Background(), os.Args[1],
		repository.NewQuestionRepository(db), repository.NewResourceRepository(db))
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported %d questions, %d resources, %d links", st.Questions, st.Resources, st.Links)
}
