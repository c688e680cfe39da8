package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandibill/pkg/models"
)

func TestSettleEmptyInvoice(t *testing.T) {
	r := Settle(models.Invoice{})

	assert.Zero(t, r.TotalBags)
	assert.Zero(t, r.GrossWeight)
	assert.Zero(t, r.NetWeight)
	assert.Zero(t, r.GrossSaleValue)
	assert.Zero(t, r.TotalAdditions)
	assert.Zero(t, r.TotalDeductions)
	assert.Zero(t, r.NetPayable)
	assert.Zero(t, r.Maunds)
	assert.Zero(t, r.RemainderKg)
}

func TestSettleSingleItem(t *testing.T) {
	tests := []struct {
		name           string
		item           models.InvoiceItem
		wantBags       float64
		wantKatt       float64
		wantNetWeight  float64
		wantNetMaunds  float64
		wantGrossValue float64
	}{
		{
			name:           "no katt",
			item:           models.InvoiceItem{Quantity: 10, Weight: 600, Katt: 0, Rate: 2000},
			wantBags:       10,
			wantKatt:       0,
			wantNetWeight:  600,
			wantNetMaunds:  15,
			wantGrossValue: 30000,
		},
		{
			name:           "katt deducted per bag",
			item:           models.InvoiceItem{Quantity: 10, Weight: 600, Katt: 1, Rate: 2000},
			wantBags:       10,
			wantKatt:       10,
			wantNetWeight:  590,
			wantNetMaunds:  14.75,
			wantGrossValue: 29500,
		},
		{
			name:           "zero rate yields zero value",
			item:           models.InvoiceItem{Quantity: 5, Weight: 200, Katt: 2, Rate: 0},
			wantBags:       5,
			wantKatt:       10,
			wantNetWeight:  190,
			wantNetMaunds:  4.75,
			wantGrossValue: 0,
		},
		{
			name:           "fractional quantity",
			item:           models.InvoiceItem{Quantity: 2.5, Weight: 100, Katt: 2, Rate: 400},
			wantBags:       2.5,
			wantKatt:       5,
			wantNetWeight:  95,
			wantNetMaunds:  2.375,
			wantGrossValue: 950,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Settle(models.Invoice{Items: []models.InvoiceItem{tt.item}})

			assert.InDelta(t, tt.wantBags, r.TotalBags, 1e-9)
			assert.InDelta(t, tt.wantKatt, r.TotalKattWeight, 1e-9)
			assert.InDelta(t, tt.wantNetWeight, r.NetWeight, 1e-9)
			assert.InDelta(t, tt.wantNetMaunds, r.NetMaunds, 1e-9)
			assert.InDelta(t, tt.wantGrossValue, r.GrossSaleValue, 1e-9)
		})
	}
}

func TestSettlePerItemPricing(t *testing.T) {
	// Two lots at different rates must each be priced on their own net
	// maunds. Pricing the aggregate at an averaged rate gives 29500 here,
	// the correct answer is 29000.
	inv := models.Invoice{Items: []models.InvoiceItem{
		{Quantity: 10, Weight: 400, Katt: 0, Rate: 2000}, // 10 maunds x 2000
		{Quantity: 5, Weight: 200, Katt: 0, Rate: 1800},  // 5 maunds x 1800
	}}

	r := Settle(inv)
	assert.InDelta(t, 29000.0, r.GrossSaleValue, 1e-9)
}

func TestSettleWeightFallback(t *testing.T) {
	manual := []models.WeightEntry{{Weight: 100}, {Weight: 50}}

	t.Run("manual weights used when items carry none", func(t *testing.T) {
		inv := models.Invoice{
			Items:   []models.InvoiceItem{{Quantity: 4, Weight: 0}},
			Weights: manual,
		}
		r := Settle(inv)
		assert.InDelta(t, 0.0, r.TotalItemsWeight, 1e-9)
		assert.InDelta(t, 150.0, r.GrossWeight, 1e-9)
	})

	t.Run("item weights win over manual entries", func(t *testing.T) {
		inv := models.Invoice{
			Items:   []models.InvoiceItem{{Quantity: 10, Weight: 600}},
			Weights: manual,
		}
		r := Settle(inv)
		// No double count: the 150 kg of manual entries is ignored.
		assert.InDelta(t, 600.0, r.GrossWeight, 1e-9)
	})

	t.Run("manual weights alone", func(t *testing.T) {
		r := Settle(models.Invoice{Weights: manual})
		assert.InDelta(t, 150.0, r.GrossWeight, 1e-9)
		assert.InDelta(t, 150.0, r.NetWeight, 1e-9)
	})
}

func TestSettleCommission(t *testing.T) {
	inv := models.Invoice{
		Items: []models.InvoiceItem{{Quantity: 5, Weight: 200, Katt: 0, Rate: 2000}}, // 10000 gross
		Charges: models.ChargeConfig{
			Deduction: models.ChargeRates{CommissionPct: 2},
		},
	}

	r := Settle(inv)
	require.InDelta(t, 10000.0, r.GrossSaleValue, 1e-9)
	assert.InDelta(t, 200.0, r.Deductions.Commission, 1e-9)
	assert.InDelta(t, 200.0, r.TotalDeductions, 1e-9)
	assert.InDelta(t, 9800.0, r.NetPayable, 1e-9)
}

func TestSettleStandardChargesBothSides(t *testing.T) {
	inv := models.Invoice{
		Items: []models.InvoiceItem{{Quantity: 10, Weight: 600, Katt: 1, Rate: 2000}},
		Charges: models.ChargeConfig{
			Deduction: models.ChargeRates{
				CommissionPct:     2,   // 29500 x 2% = 590
				LaborCharges:      250, // flat
				BardanaRatePerBag: 15,  // 10 x 15 = 150
				BrokeragePerMaund: 10,  // 14.75 x 10 = 147.5
				BiltyCharges:      500, // flat
			},
			Addition: models.ChargeRates{
				CommissionPct:     1, // 295
				BardanaRatePerBag: 5, // 50
			},
		},
	}

	r := Settle(inv)

	assert.InDelta(t, 590.0, r.Deductions.Commission, 1e-9)
	assert.InDelta(t, 250.0, r.Deductions.Labor, 1e-9)
	assert.InDelta(t, 150.0, r.Deductions.Bardana, 1e-9)
	assert.InDelta(t, 147.5, r.Deductions.Brokerage, 1e-9)
	assert.InDelta(t, 500.0, r.Deductions.Bilty, 1e-9)
	assert.InDelta(t, 1637.5, r.TotalDeductions, 1e-9)

	assert.InDelta(t, 295.0, r.Additions.Commission, 1e-9)
	assert.InDelta(t, 50.0, r.Additions.Bardana, 1e-9)
	assert.InDelta(t, 345.0, r.TotalAdditions, 1e-9)

	assert.InDelta(t, 29500+345-1637.5, r.NetPayable, 1e-9)
}

func TestSettleCustomExpenses(t *testing.T) {
	inv := models.Invoice{
		Items: []models.InvoiceItem{{Quantity: 1, Weight: 40, Katt: 0, Rate: 1000}}, // 1000 gross
		CustomExpenses: []models.CustomExpense{
			{Name: "palledari", Amount: 500, Impact: models.ImpactAddition},
			{Name: "chungi", Amount: 300, Impact: models.ImpactDeduction},
		},
	}

	r := Settle(inv)
	assert.InDelta(t, 500.0, r.CustomAdditionsTotal, 1e-9)
	assert.InDelta(t, 300.0, r.CustomDeductionsTotal, 1e-9)
	assert.InDelta(t, 500.0, r.TotalAdditions, 1e-9)
	assert.InDelta(t, 300.0, r.TotalDeductions, 1e-9)
	assert.InDelta(t, 1200.0, r.NetPayable, 1e-9)
}

func TestSettleNegativeNetWeightPropagates(t *testing.T) {
	// Katt larger than the weighed mass is a data-entry mistake; the engine
	// reports it rather than clamping.
	inv := models.Invoice{
		Items: []models.InvoiceItem{{Quantity: 10, Weight: 50, Katt: 20, Rate: 1000}},
	}

	r := Settle(inv)
	assert.InDelta(t, -150.0, r.NetWeight, 1e-9)
	assert.InDelta(t, -3.75, r.NetMaunds, 1e-9)
	assert.True(t, r.GrossSaleValue < 0)
}

func TestSettleMaundSplit(t *testing.T) {
	tests := []struct {
		name     string
		netKg    float64
		wantMan  float64
		wantKilo float64
	}{
		{"exact maunds", 600, 15, 0},
		{"maunds and kilos", 590, 14, 30},
		{"under one maund", 25, 0, 25},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Settle(models.Invoice{
				Weights: []models.WeightEntry{{Weight: tt.netKg}},
			})
			assert.InDelta(t, tt.wantMan, r.Maunds, 1e-9)
			assert.InDelta(t, tt.wantKilo, r.RemainderKg, 1e-9)
		})
	}
}

func TestSettleIdempotent(t *testing.T) {
	inv := models.Invoice{
		BillNumber: "1007",
		Items: []models.InvoiceItem{
			{ID: "a", Quantity: 10, Weight: 600, Katt: 1, Rate: 2000},
			{ID: "b", Quantity: 3, Weight: 185.5, Katt: 0.5, Rate: 1850},
		},
		Weights: []models.WeightEntry{{Weight: 77}},
		Charges: models.ChargeConfig{
			Deduction: models.ChargeRates{CommissionPct: 2.5, BardanaRatePerBag: 12, BrokeragePerMaund: 8, LaborCharges: 300, BiltyCharges: 450},
			Addition:  models.ChargeRates{CommissionPct: 0.5, LaborCharges: 100},
		},
		CustomExpenses: []models.CustomExpense{{Amount: 120, Impact: models.ImpactDeduction}},
	}

	first := Settle(inv)
	second := Settle(inv)

	assert.Equal(t, first, second)
}
