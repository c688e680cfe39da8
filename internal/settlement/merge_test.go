package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandibill/pkg/models"
)

func strp(s string) *string   { return &s }
func fltp(f float64) *float64 { return &f }

func TestMergeOverwritesPresentScalars(t *testing.T) {
	inv := models.Invoice{
		PartyName:    "Haji Akram",
		TrolleyNo:    "LEV-123",
		RatePerMaund: 2000,
	}
	frag := models.InvoiceFragment{
		PartyName:    strp("Malik Traders"),
		RatePerMaund: fltp(2150),
	}

	out := Merge(inv, frag)

	assert.Equal(t, "Malik Traders", out.PartyName)
	assert.InDelta(t, 2150.0, out.RatePerMaund, 1e-9)
	// Absent on the fragment, untouched on the result.
	assert.Equal(t, "LEV-123", out.TrolleyNo)
}

func TestMergeEmptyStringStillOverwrites(t *testing.T) {
	// Present-but-empty is a deliberate clear, distinct from absent.
	inv := models.Invoice{BrokerName: "Chaudhry Sb"}
	out := Merge(inv, models.InvoiceFragment{BrokerName: strp("")})
	assert.Equal(t, "", out.BrokerName)
}

func TestMergeConcatenatesCollections(t *testing.T) {
	inv := models.Invoice{
		Items:   []models.InvoiceItem{{ID: "1", Description: "dhaan"}},
		Weights: []models.WeightEntry{{ID: "w1", Weight: 60}},
	}
	frag := models.InvoiceFragment{
		Items:   []models.InvoiceItem{{ID: "2", Description: "gandum"}},
		Weights: []models.WeightEntry{{ID: "w2", Weight: 58}, {ID: "w3", Weight: 61}},
	}

	out := Merge(inv, frag)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "dhaan", out.Items[0].Description)
	assert.Equal(t, "gandum", out.Items[1].Description)
	require.Len(t, out.Weights, 3)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	inv := models.Invoice{
		PartyName: "before",
		Items:     []models.InvoiceItem{{ID: "1"}},
	}
	frag := models.InvoiceFragment{
		PartyName: strp("after"),
		Items:     []models.InvoiceItem{{ID: "2"}},
	}

	out := Merge(inv, frag)
	out.Items[0].ID = "mutated"

	assert.Equal(t, "before", inv.PartyName)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "1", inv.Items[0].ID)
}

func TestMergeEmptyFragmentIsIdentity(t *testing.T) {
	inv := models.Invoice{
		BillNumber: "1007",
		Items:      []models.InvoiceItem{{ID: "1", Quantity: 10, Weight: 600, Rate: 2000}},
	}

	out := Merge(inv, models.InvoiceFragment{})

	assert.Equal(t, Settle(inv), Settle(out))
	assert.Equal(t, inv.BillNumber, out.BillNumber)
}
