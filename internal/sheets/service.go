// Package sheets exports settled bills to a Google Sheets ledger so the
// shop's accountant can work from a shared spreadsheet instead of the local
// database.
package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

// ledgerColumns covers columns A through M.
const ledgerColumns = 13

// Service handles Google Sheets operations.
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// LedgerRow is one settled bill as it appears in the spreadsheet.
type LedgerRow struct {
	BillNumber  string
	Date        string
	PartyName   string
	BrokerName  string
	TotalBags   float64
	NetWeightKg float64
	Maunds      float64
	RemainderKg float64
	GrossValue  float64
	Additions   float64
	Deductions  float64
	NetPayable  float64
	ExportedAt  string
}

// NewService creates a Sheets service for the spreadsheet at sheetURL.
// Credentials come from GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
func NewService(ctx context.Context, sheetURL string) (*Service, error) {
	const op = "NewService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func extractSpreadsheetID(url string) (string, error) {
	re := regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	matches := re.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", fmt.Errorf("invalid Google Sheets URL format")
	}
	return matches[1], nil
}

// AppendBills settles each bill and appends one ledger row per bill to the
// named sheet, creating the sheet and its header row when missing.
func (s *Service) AppendBills(ctx context.Context, bills []models.Invoice, sheetName string) error {
	const op = "AppendBills"

	s.log.Info().
		Str("sheet", sheetName).
		Int("bills", len(bills)).
		Msg("Exporting bills to Google Sheet")

	if err := s.ensureSheetWithHeaders(ctx, sheetName); err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	exportedAt := time.Now().Format("2006-01-02 15:04:05")
	var values [][]interface{}
	for _, bill := range bills {
		values = append(values, rowToValues(buildLedgerRow(bill, exportedAt)))
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err := s.sheetsService.Spreadsheets.Values.Append(
		s.spreadsheetID,
		sheetName+"!A:M",
		valueRange,
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	s.log.Info().
		Int("rows_written", len(values)).
		Msg("Successfully exported bills to Google Sheet")

	return nil
}

// buildLedgerRow runs the settlement and flattens it into spreadsheet columns.
func buildLedgerRow(bill models.Invoice, exportedAt string) LedgerRow {
	result := settlement.Settle(bill)
	return LedgerRow{
		BillNumber:  bill.BillNumber,
		Date:        bill.Date,
		PartyName:   bill.PartyName,
		BrokerName:  bill.BrokerName,
		TotalBags:   result.TotalBags,
		NetWeightKg: result.NetWeight,
		Maunds:      result.Maunds,
		RemainderKg: result.RemainderKg,
		GrossValue:  result.GrossSaleValue,
		Additions:   result.TotalAdditions,
		Deductions:  result.TotalDeductions,
		NetPayable:  result.NetPayable,
		ExportedAt:  exportedAt,
	}
}

// rowToValues converts LedgerRow to an interface slice for the Sheets API.
func rowToValues(row LedgerRow) []interface{} {
	return []interface{}{
		row.BillNumber,  // A: Bill No
		row.Date,        // B: Date
		row.PartyName,   // C: Party
		row.BrokerName,  // D: Broker
		row.TotalBags,   // E: Bags
		row.NetWeightKg, // F: Net Weight (kg)
		row.Maunds,      // G: Maunds
		row.RemainderKg, // H: Kg
		row.GrossValue,  // I: Gross Value
		row.Additions,   // J: Additions
		row.Deductions,  // K: Deductions
		row.NetPayable,  // L: Net Payable
		row.ExportedAt,  // M: Exported
	}
}

// ensureSheetWithHeaders ensures the sheet exists and has the header row.
func (s *Service) ensureSheetWithHeaders(ctx context.Context, sheetName string) error {
	const op = "ensureSheetWithHeaders"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	var sheetExists bool
	var sheetID int64
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			sheetExists = true
			sheetID = sheet.Properties.SheetId
			break
		}
	}

	if !sheetExists {
		s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

		batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				}},
			},
		}
		resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to create sheet: %w", op, err)
		}
		sheetID = resp.Replies[0].AddSheet.Properties.SheetId
	}

	headerRange := fmt.Sprintf("%s!A1:M1", sheetName)
	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to get headers: %w", op, err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		s.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")

		headers := [][]interface{}{
			{
				"Bill No", "Date", "Party", "Broker", "Bags",
				"Net Weight (kg)", "Maunds", "Kg", "Gross Value",
				"Additions", "Deductions", "Net Payable", "Exported",
			},
		}

		valueRange := &sheets.ValueRange{Values: headers}
		_, err = s.sheetsService.Spreadsheets.Values.Update(
			s.spreadsheetID,
			headerRange,
			valueRange,
		).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("%s: failed to add headers: %w", op, err)
		}

		if err := s.formatHeaders(ctx, sheetID); err != nil {
			s.log.Warn().Err(err).Msg("Failed to format headers, continuing anyway")
		}
	}

	return nil
}

// formatHeaders makes the header row bold and auto-sizes the columns.
func (s *Service) formatHeaders(ctx context.Context, sheetID int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   ledgerColumns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   ledgerColumns,
				},
			},
		},
	}

	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}
	return nil
}
