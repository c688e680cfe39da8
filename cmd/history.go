package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/internal/store"
	"mandibill/pkg/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved bills",
	Long: `Browse the bills saved in the local database. "history list" shows
summaries newest first, "history show" prints one bill with its full
settlement breakdown, and "history delete" removes a bill.`,
	Example: `  # List all saved bills
  mandibill history list

  # List bills for one party
  mandibill history list --party "Akram"

  # Show a bill with its settlement
  mandibill history show 7c0b4a9e-...

  # Delete a bill
  mandibill history delete 7c0b4a9e-...`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved bills, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [bill-id]",
	Short: "Show a saved bill with its settlement breakdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [bill-id]",
	Short: "Delete a saved bill",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

// HistoryBillOutput is the JSON output of "history show".
type HistoryBillOutput struct {
	Invoice    models.Invoice    `json:"invoice"`
	Settlement settlement.Result `json:"settlement"`
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyListCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	historyListCmd.Flags().String("party", "", "Filter by party name substring")
	historyListCmd.Flags().Int("limit", 0, "Maximum number of bills to list (0 = all)")
	historyListCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")

	historyShowCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	historyShowCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")

	historyDeleteCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("history")

	outputPath, _ := cmd.Flags().GetString("output")
	party, _ := cmd.Flags().GetString("party")
	limit, _ := cmd.Flags().GetInt("limit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	bills, err := s.ListBills(ctx, party, limit)
	if err != nil {
		return fmt.Errorf("failed to list bills: %w", err)
	}

	log.Info().
		Int("bills", len(bills)).
		Str("party", party).
		Msg("Listed saved bills")

	return writeJSON(bills, outputPath, log)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("history")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	billID := args[0]

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	inv, err := s.GetBill(ctx, billID)
	if err != nil {
		if errors.Is(err, store.ErrBillNotFound) {
			return fmt.Errorf("no bill with ID %s", billID)
		}
		return fmt.Errorf("failed to load bill: %w", err)
	}

	output := HistoryBillOutput{
		Invoice:    inv,
		Settlement: settlement.Settle(inv),
	}
	return writeJSON(output, outputPath, log)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("history")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	billID := args[0]

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteBill(ctx, billID); err != nil {
		if errors.Is(err, store.ErrBillNotFound) {
			return fmt.Errorf("no bill with ID %s", billID)
		}
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	fmt.Printf("Deleted bill %s\n", billID)
	return nil
}
