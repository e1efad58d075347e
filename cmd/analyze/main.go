package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"pubstats/app"
	"pubstats/domain/stats"
	"pubstats/internal/config"

	"github.com/joho/godotenv"
)

// analyze runs one family analysis from a JSON request file and prints the
// result, for working with exported survey data without a running server.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: analyze <request.json>")
	}

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read request file: %v", err)
	}

	var req app.FamilyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("Failed to parse request file: %v", err)
	}
	if req.Config == (stats.AnalysisConfig{}) {
		req.Config = appConfig.AnalysisDefaults()
	}

	service := app.NewFamilyAnalysisService(nil)
	result, err := service.AnalyzeFamily(context.Background(), req)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}
