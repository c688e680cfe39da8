package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mandibill/internal/config"
	"mandibill/internal/logger"
	"mandibill/internal/store"
	"mandibill/pkg/models"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "mandibill",
	Short: "Mandibill - mandi bill settlement from the command line",
	Long: `Mandibill settles grain-market (mandi) bills: weighed lots, katt
deductions, maund pricing, commission, labor, bardana, brokerage, and bilty
charges on both the deduction and addition side.

Bills are plain JSON documents. They can be typed in, captured from a photo
of a handwritten parchi, or dictated as a voice note, then settled, saved
locally, and exported to a Google Sheets ledger.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Mandibill CLI executed")

		fmt.Println("Welcome to Mandibill!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// signalContext creates a context with a timeout that is also canceled on
// SIGINT/SIGTERM.
func signalContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// readInvoiceFile loads a bill JSON document from disk.
func readInvoiceFile(path string) (models.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to read bill file: %w", err)
	}

	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("failed to parse bill file %s: %w", path, err)
	}
	return inv, nil
}

// writeJSON pretty-prints v to outputPath, or stdout when the path is empty.
func writeJSON(v any, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal output to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Output written to file")
		return nil
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}

// openStore opens the bill database at the configured path.
func openStore(log zerolog.Logger) (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	s, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Error().
			Err(err).
			Str("path", cfg.DatabasePath).
			Msg("Failed to open bill database")
		return nil, fmt.Errorf("failed to open bill database at %s: %w", cfg.DatabasePath, err)
	}

	log.Debug().Str("path", cfg.DatabasePath).Msg("Bill database opened")
	return s, nil
}
