package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pubstats/adapters/postgres"
	"pubstats/app"
	"pubstats/internal/migration"
	"pubstats/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// migrate imports previously exported analysis results into the run archive.
// Each JSON file in the results directory holds one family analysis result.
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <results_dir>")
	}

	databaseURL := os.Args[1]
	resultsDir := os.Args[2]

	log.Printf("Starting migration from %s to database", resultsDir)

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := postgres.NewRunRepository(db)

	files, err := findResultFiles(resultsDir)
	if err != nil {
		log.Fatalf("Failed to find result files: %v", err)
	}
	log.Printf("Found %d result files to migrate", len(files))

	migrated := 0
	skipped := 0

	for _, file := range files {
		result, payload, err := loadResultFromFile(file)
		if err != nil {
			log.Printf("Failed to load result from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := repo.GetRun(ctx, result.RunID); err == nil {
			log.Printf("Run %s already archived, skipping %s", result.RunID, filepath.Base(file))
			skipped++
			continue
		}

		run := models.NewAnalysisRun(
			result.RunID,
			result.FamilyHash,
			result.Config,
			len(result.Questions),
			result.SignificantCount(),
			payload,
		)
		run.CreatedAt = result.ComputedAt.Time()

		if err := repo.SaveRun(ctx, run); err != nil {
			log.Printf("Failed to save run %s: %v", result.RunID, err)
			skipped++
			continue
		}

		migrated++
		log.Printf("Migrated run %s from %s", result.RunID, filepath.Base(file))
	}

	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}

func findResultFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadResultFromFile(filePath string) (*app.FamilyResult, []byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	var result app.FamilyResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, nil, err
	}
	if result.RunID == "" {
		return nil, nil, fmt.Errorf("result file has no run_id")
	}

	return &result, data, nil
}
