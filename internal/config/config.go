package config

import (
	"os"
	"strconv"

	"pubstats/domain/stats"
	"pubstats/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. The run archive is
// optional: with an empty URL the service runs without persistence.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// AnalysisConfig holds the per-run statistical settings loaded at startup.
// It is converted to a domain value and passed explicitly into each call so
// the engine never reads ambient state.
type AnalysisConfig struct {
	Alpha       float64
	Method      string
	PrimaryTest string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Analysis: AnalysisConfig{
			Alpha:       getEnvFloatOrDefault("ANALYSIS_ALPHA", 0.05),
			Method:      getEnvOrDefault("ANALYSIS_CORRECTION", string(stats.MethodBonferroniThenFDR)),
			PrimaryTest: getEnvOrDefault("ANALYSIS_PRIMARY_TEST", string(stats.TestWelchT)),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// AnalysisDefaults converts the loaded settings into the domain configuration
// value the engine consumes.
func (c *Config) AnalysisDefaults() stats.AnalysisConfig {
	return stats.AnalysisConfig{
		Alpha:       c.Analysis.Alpha,
		Method:      stats.CorrectionMethod(c.Analysis.Method),
		PrimaryTest: stats.TestType(c.Analysis.PrimaryTest),
	}
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ANALYSIS_ALPHA must be in (0, 1)")
	}

	switch stats.CorrectionMethod(config.Analysis.Method) {
	case stats.MethodBonferroniThenFDR, stats.MethodBonferroni, stats.MethodFDR:
	default:
		return errors.ConfigInvalid("ANALYSIS_CORRECTION must be one of bonferroni_then_fdr, bonferroni, fdr_bh")
	}

	switch stats.TestType(config.Analysis.PrimaryTest) {
	case stats.TestWelchT, stats.TestMannWhitney:
	default:
		return errors.ConfigInvalid("ANALYSIS_PRIMARY_TEST must be welch_ttest or mann_whitney_u")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
