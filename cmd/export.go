package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mandibill/internal/config"
	"mandibill/internal/logger"
	"mandibill/internal/sheets"
	"mandibill/pkg/models"
)

var exportCmd = &cobra.Command{
	Use:   "export [bill-id...]",
	Short: "Export settled bills to a Google Sheets ledger",
	Long: `Settle saved bills and append one row per bill to a Google Sheets
worksheet: bill number, date, party, broker, bags, net weight, the
maund/kg split, gross value, additions, deductions, and net payable.

Without arguments every saved bill is exported; with bill IDs only those
bills are. The worksheet is created with a header row when missing.

Required environment variables:
  GOOGLE_SHEET_URL - URL of the target spreadsheet
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - Google Cloud access
  GOOGLE_SHEET_WORKSHEET - worksheet name (default "Bills")`,
	Example: `  # Export every saved bill
  mandibill export

  # Export two specific bills
  mandibill export 7c0b4a9e-... 91d2e3f4-...

  # Export to a different worksheet
  mandibill export --sheet "August 2026"`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("sheet", "", "Worksheet name (default: GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	sheetName, _ := cmd.Flags().GetString("sheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is not set. Point it at the ledger spreadsheet")
	}
	if sheetName == "" {
		sheetName = cfg.GoogleSheetWorksheet
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	var bills []models.Invoice
	if len(args) > 0 {
		for _, id := range args {
			inv, err := s.GetBill(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load bill %s: %w", id, err)
			}
			bills = append(bills, inv)
		}
	} else {
		summaries, err := s.ListBills(ctx, "", 0)
		if err != nil {
			return fmt.Errorf("failed to list bills: %w", err)
		}
		for _, summary := range summaries {
			inv, err := s.GetBill(ctx, summary.ID)
			if err != nil {
				return fmt.Errorf("failed to load bill %s: %w", summary.ID, err)
			}
			bills = append(bills, inv)
		}
	}

	if len(bills) == 0 {
		return fmt.Errorf("no bills to export")
	}

	sheetsService, err := sheets.NewService(ctx, cfg.GoogleSheetURL)
	if err != nil {
		return fmt.Errorf("failed to connect to Google Sheets: %w", err)
	}

	if err := sheetsService.AppendBills(ctx, bills, sheetName); err != nil {
		return fmt.Errorf("failed to export bills: %w", err)
	}

	log.Info().
		Int("bills", len(bills)).
		Str("sheet", sheetName).
		Msg("Bills exported to Google Sheets")

	fmt.Printf("Exported %d bill(s) to worksheet %q\n", len(bills), sheetName)
	return nil
}
