package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mandibill/internal/logger"
	"mandibill/pkg/models"
)

var bardanaCmd = &cobra.Command{
	Use:   "bardana",
	Short: "Track the empty-sack (bardana) stock",
	Long: `Keep the ledger of empty sacks the shop holds. "bardana in" records
bags received, "bardana out" records bags issued to parties, "bardana stock"
prints the current net count, and "bardana log" prints the full ledger.`,
	Example: `  # Record 200 new bags
  mandibill bardana in 200 --note "new jute bags"

  # Issue 50 bags to a party
  mandibill bardana out 50 --note "issued to Akram"

  # Current stock
  mandibill bardana stock

  # Full movement log
  mandibill bardana log`,
}

var bardanaInCmd = &cobra.Command{
	Use:   "in [quantity]",
	Short: "Record empty sacks received into stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBardanaMove(cmd, args, models.BardanaIn)
	},
}

var bardanaOutCmd = &cobra.Command{
	Use:   "out [quantity]",
	Short: "Record empty sacks issued from stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBardanaMove(cmd, args, models.BardanaOut)
	},
}

var bardanaStockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Print the current net sack count",
	Args:  cobra.NoArgs,
	RunE:  runBardanaStock,
}

var bardanaLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Print the full bardana ledger",
	Args:  cobra.NoArgs,
	RunE:  runBardanaLog,
}

func init() {
	rootCmd.AddCommand(bardanaCmd)
	bardanaCmd.AddCommand(bardanaInCmd)
	bardanaCmd.AddCommand(bardanaOutCmd)
	bardanaCmd.AddCommand(bardanaStockCmd)
	bardanaCmd.AddCommand(bardanaLogCmd)

	for _, c := range []*cobra.Command{bardanaInCmd, bardanaOutCmd} {
		c.Flags().String("note", "", "Note for the ledger entry")
		c.Flags().String("date", "", "Entry date YYYY-MM-DD (default: today)")
		c.Flags().Int("timeout", 30, "Processing timeout in seconds")
	}
	bardanaStockCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
	bardanaLogCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	bardanaLogCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
}

func runBardanaMove(cmd *cobra.Command, args []string, direction models.BardanaDirection) error {
	log := logger.WithComponent("bardana")

	note, _ := cmd.Flags().GetString("note")
	date, _ := cmd.Flags().GetString("date")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	quantity, err := strconv.ParseFloat(args[0], 64)
	if err != nil || quantity <= 0 {
		return fmt.Errorf("quantity must be a positive number, got %q", args[0])
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	entry, err := s.AddBardanaEntry(ctx, models.BardanaEntry{
		Date:      date,
		Direction: direction,
		Quantity:  quantity,
		Note:      note,
	})
	if err != nil {
		return fmt.Errorf("failed to record bardana entry: %w", err)
	}

	stock, err := s.BardanaStock(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute bardana stock: %w", err)
	}

	fmt.Printf("Recorded %g bag(s) %s on %s. Current stock: %g\n",
		entry.Quantity, entry.Direction, entry.Date, stock)
	return nil
}

func runBardanaStock(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bardana")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	stock, err := s.BardanaStock(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute bardana stock: %w", err)
	}

	fmt.Printf("%g\n", stock)
	return nil
}

func runBardanaLog(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("bardana")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.BardanaEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to read bardana ledger: %w", err)
	}

	return writeJSON(entries, outputPath, log)
}
