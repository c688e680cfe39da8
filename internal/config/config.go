// Package config loads mandibill configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"mandibill/internal/logger"
)

type Config struct {
	// OpenAI Configuration (scan and voice capture)
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration (Vision OCR, Document AI capture)
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Google Sheets ledger export
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Local bill store
	DatabasePath string

	// Shop profile applied to new bills
	ShopName    string
	ShopPhone   string
	ShopAddress string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment. Credentials for the AI and
// Sheets services are optional here; the commands that need them fail with a
// specific error when they are missing, so purely local billing works with no
// configuration at all.
func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Bills"),
		DatabasePath:          getEnv("MANDIBILL_DB", defaultDatabasePath()),
		ShopName:              getEnv("SHOP_NAME", ""),
		ShopPhone:             getEnv("SHOP_PHONE", ""),
		ShopAddress:           getEnv("SHOP_ADDRESS", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("MANDIBILL_DB could not be resolved to a path")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mandibill.db"
	}
	return filepath.Join(home, ".mandibill", "mandibill.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
