package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mandibill/internal/config"
	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a blank bill with the next bill number",
	Long: `Create a new bill JSON document pre-filled with the shop header from the
environment (SHOP_NAME, SHOP_PHONE, SHOP_ADDRESS), today's date, and the
next bill number in sequence.

The bill number continues from the last saved bill, keeping its prefix and
zero padding ("INV-0099" is followed by "INV-0100"). The first bill of a
fresh database is numbered 1001.`,
	Example: `  # Print a blank bill to stdout
  mandibill new

  # Write it to a file, ready to edit
  mandibill new -o bill.json

  # Override the party and rate up front
  mandibill new --party "Haji Akram" --rate 3200 -o bill.json`,
	Args: cobra.NoArgs,
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	newCmd.Flags().String("party", "", "Party name")
	newCmd.Flags().Float64("rate", 0, "Default rate per maund")
	newCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
}

func runNew(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("new")

	outputPath, _ := cmd.Flags().GetString("output")
	party, _ := cmd.Flags().GetString("party")
	rate, _ := cmd.Flags().GetFloat64("rate")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signalContext(timeoutSecs, log)
	defer cancel()

	s, err := openStore(log)
	if err != nil {
		return err
	}
	defer s.Close()

	last, err := s.LastBillNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last bill number: %w", err)
	}

	inv := models.Invoice{
		ShopName:     cfg.ShopName,
		Address:      cfg.ShopAddress,
		Phone:        cfg.ShopPhone,
		BillNumber:   settlement.NextBillNumber(last),
		PartyName:    party,
		Date:         time.Now().Format("2006-01-02"),
		RatePerMaund: rate,
	}

	log.Info().
		Str("bill_number", inv.BillNumber).
		Str("last_bill_number", last).
		Msg("New bill created")

	return writeJSON(inv, outputPath, log)
}
