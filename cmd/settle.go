package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

var settleCmd = &cobra.Command{
	Use:   "settle [bill-file]",
	Short: "Settle a bill and print the full calculation breakdown",
	Long: `Read a bill JSON document and compute its settlement: total bags,
katt weight, gross and net weight, net maunds, per-lot gross sale value,
the deduction and addition charge sides, custom expenses, and the final
net payable amount.

The input file is never modified. The output is a JSON document with every
intermediate figure, so a disputed bill can be walked through line by line.`,
	Example: `  # Settle a bill and print the breakdown
  mandibill settle bill.json

  # Save the breakdown to a file
  mandibill settle bill.json -o settled.json

  # Settle and store the bill in the local database
  mandibill settle bill.json --save`,
	Args: cobra.ExactArgs(1),
	RunE: runSettle,
}

// SettleOutput is the JSON output of the settle command.
type SettleOutput struct {
	Invoice    models.Invoice    `json:"invoice"`
	Settlement settlement.Result `json:"settlement"`
	Metadata   SettleMetadata    `json:"metadata"`
}

// SettleMetadata describes the settlement run.
type SettleMetadata struct {
	FileName  string    `json:"file_name"`
	SettledAt time.Time `json:"settled_at"`
	Saved     bool      `json:"saved"`
	BillID    string    `json:"bill_id,omitempty"`
}

func init() {
	rootCmd.AddCommand(settleCmd)

	settleCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	settleCmd.Flags().Bool("save", false, "Store the bill in the local database")
	settleCmd.Flags().Int("timeout", 30, "Processing timeout in seconds")
}

func runSettle(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("settle")

	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	billPath := args[0]

	log.Info().
		Str("file", billPath).
		Bool("save", save).
		Msg("Settling bill")

	inv, err := readInvoiceFile(billPath)
	if err != nil {
		return err
	}

	result := settlement.Settle(inv)

	log.Info().
		Str("bill_number", inv.BillNumber).
		Str("party", inv.PartyName).
		Float64("total_bags", result.TotalBags).
		Float64("net_weight", result.NetWeight).
		Float64("net_payable", result.NetPayable).
		Msg("Bill settled")

	output := SettleOutput{
		Invoice:    inv,
		Settlement: result,
		Metadata: SettleMetadata{
			FileName:  billPath,
			SettledAt: time.Now(),
		},
	}

	if save {
		ctx, cancel := signalContext(timeoutSecs, log)
		defer cancel()

		s, err := openStore(log)
		if err != nil {
			return err
		}
		defer s.Close()

		saved, err := s.SaveBill(ctx, inv)
		if err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}
		output.Invoice = saved
		output.Metadata.Saved = true
		output.Metadata.BillID = saved.ID
	}

	return writeJSON(output, outputPath, log)
}
