package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandibill/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleInvoice(billNumber, party, date string) models.Invoice {
	return models.Invoice{
		ShopName:     "Madina Rice Mills",
		BillNumber:   billNumber,
		PartyName:    party,
		Date:         date,
		RatePerMaund: 3000,
		Items: []models.InvoiceItem{
			{ID: "i1", Description: "Wheat", Quantity: 10, Weight: 600, Rate: 3000},
		},
	}
}

func TestSaveAndGetBill(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveBill(ctx, sampleInvoice("1001", "Haji Akram", "2026-08-14"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	loaded, err := s.GetBill(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Wheat", loaded.Items[0].Description)
}

func TestSaveBillUpsertsByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveBill(ctx, sampleInvoice("1001", "Haji Akram", "2026-08-14"))
	require.NoError(t, err)

	saved.PartyName = "Haji Akram & Sons"
	saved.Items = append(saved.Items, models.InvoiceItem{
		ID: "i2", Description: "Kanak chhaan", Quantity: 5, Weight: 250, Rate: 1500,
	})
	again, err := s.SaveBill(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	bills, err := s.ListBills(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Haji Akram & Sons", bills[0].PartyName)

	loaded, err := s.GetBill(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 2)
}

func TestListBillsOrderAndFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveBill(ctx, sampleInvoice("1001", "Haji Akram", "2026-08-10"))
	require.NoError(t, err)
	_, err = s.SaveBill(ctx, sampleInvoice("1002", "Chaudhry Aslam", "2026-08-12"))
	require.NoError(t, err)
	_, err = s.SaveBill(ctx, sampleInvoice("1003", "Haji Akram", "2026-08-11"))
	require.NoError(t, err)

	bills, err := s.ListBills(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, bills, 3)
	assert.Equal(t, "1002", bills[0].BillNumber)
	assert.Equal(t, "1003", bills[1].BillNumber)
	assert.Equal(t, "1001", bills[2].BillNumber)

	akram, err := s.ListBills(ctx, "Akram", 0)
	require.NoError(t, err)
	assert.Len(t, akram, 2)

	limited, err := s.ListBills(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestListBillsCarriesNetPayable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// 600 kg at 3000/maund is 15 maunds worth 45000.
	_, err := s.SaveBill(ctx, sampleInvoice("1001", "Haji Akram", "2026-08-14"))
	require.NoError(t, err)

	bills, err := s.ListBills(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.InDelta(t, 45000.0, bills[0].NetPayable, 1e-9)
}

func TestDeleteBill(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveBill(ctx, sampleInvoice("1001", "Haji Akram", "2026-08-14"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteBill(ctx, saved.ID))

	_, err = s.GetBill(ctx, saved.ID)
	assert.True(t, errors.Is(err, ErrBillNotFound))

	err = s.DeleteBill(ctx, "missing")
	assert.True(t, errors.Is(err, ErrBillNotFound))
}

func TestLastBillNumberAdvancesOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	last, err := s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", last)

	require.NoError(t, s.RememberBillNumber(ctx, "INV-0100"))
	last, err = s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0100", last)

	// Re-saving an older bill must not wind the sequence backwards.
	require.NoError(t, s.RememberBillNumber(ctx, "INV-0042"))
	last, err = s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0100", last)

	require.NoError(t, s.RememberBillNumber(ctx, "INV-0101"))
	last, err = s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0101", last)

	// Blank numbers are ignored entirely.
	require.NoError(t, s.RememberBillNumber(ctx, ""))
	last, err = s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0101", last)
}

func TestLastBillNumberOrdersLongNumbers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Digit runs past int64 still order correctly.
	nines := "99999999999999999999"
	require.NoError(t, s.RememberBillNumber(ctx, nines))

	rollover := "1" + strings.Repeat("0", 20)
	require.NoError(t, s.RememberBillNumber(ctx, rollover))

	last, err := s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, rollover, last)

	// The long number keeps beating shorter ones.
	require.NoError(t, s.RememberBillNumber(ctx, "INV-1001"))
	last, err = s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, rollover, last)
}

func TestNumberAdvances(t *testing.T) {
	tests := []struct {
		name     string
		next     string
		current  string
		advances bool
	}{
		{"simple increment", "1002", "1001", true},
		{"equal does not advance", "1001", "1001", false},
		{"smaller does not advance", "1000", "1001", false},
		{"padding ignored", "INV-0101", "INV-0100", true},
		{"longer digit run wins", "10000000000000000000", "9999999999999999999", true},
		{"digitless orders lowest", "DRAFT", "1001", false},
		{"anything beats digitless", "1", "DRAFT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.advances, numberAdvances(tt.next, tt.current))
		})
	}
}

func TestSaveBillRemembersNumber(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveBill(ctx, sampleInvoice("1005", "Haji Akram", "2026-08-14"))
	require.NoError(t, err)

	last, err := s.LastBillNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1005", last)
}

func TestBardanaLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in, err := s.AddBardanaEntry(ctx, models.BardanaEntry{
		Date: "2026-08-01", Direction: models.BardanaIn, Quantity: 200, Note: "new jute bags",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)

	_, err = s.AddBardanaEntry(ctx, models.BardanaEntry{
		Date: "2026-08-03", Direction: models.BardanaOut, Quantity: 50, Note: "issued to Akram",
	})
	require.NoError(t, err)

	entries, err := s.BardanaEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.BardanaIn, entries[0].Direction)
	assert.Equal(t, models.BardanaOut, entries[1].Direction)

	stock, err := s.BardanaStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150.0, stock)
}

func TestBardanaRejectsInvalidDirection(t *testing.T) {
	s := openTestStore(t)

	_, err := s.AddBardanaEntry(context.Background(), models.BardanaEntry{
		Direction: "sideways", Quantity: 10,
	})
	require.Error(t, err)
}
