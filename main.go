package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"mandibill/cmd"
	"mandibill/internal/config"
	"mandibill/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		// Initialize logger with configuration
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	appLog := logger.WithComponent("main")
	appLog.Info().Msg("Starting Mandibill CLI")

	cmd.Execute()

	appLog.Info().Msg("Mandibill CLI shutdown")
	os.Exit(0)
}
