package main

import (
	"context"
	"log"

	"pubstats/adapters/postgres"
	"pubstats/app"
	"pubstats/internal/config"
	"pubstats/internal/errors"
	"pubstats/internal/migration"
	"pubstats/ports"
	"pubstats/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection and schema
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The run archive is optional: without DATABASE_URL analyses are
	// computed and returned but not persisted
	var runs ports.RunRepository
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		runs = postgres.NewRunRepository(db)
	} else {
		log.Println("DATABASE_URL not set, running without a run archive")
	}

	service := app.NewFamilyAnalysisService(runs)

	uiApp := ui.NewApp(ui.Config{
		Port:     appConfig.Server.Port,
		Defaults: appConfig.AnalysisDefaults(),
	}, service, runs)

	addr := ":" + appConfig.Server.Port
	if err := uiApp.Start(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
