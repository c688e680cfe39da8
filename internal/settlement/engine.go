// Package settlement computes the final payable amount for a mandi bill.
//
// Everything in this package is a pure function of its input: no I/O, no
// stored state, no validation. Malformed entries are not rejected; zero
// values stand in for anything missing and negative inputs flow through the
// arithmetic unchanged. A negative net weight or net payable is a data-entry
// problem for the caller to surface, not an error here.
package settlement

import (
	"math"

	"mandibill/pkg/models"
)

// KgPerMaund is the fixed mass of one maund. It is a domain constant, not
// configuration.
const KgPerMaund = 40.0

// ChargeSet is the five standard charge amounts computed for one side of the
// ledger (deduction or addition).
type ChargeSet struct {
	Commission float64 `json:"commission"` // grossSaleValue × pct / 100
	Labor      float64 `json:"labor"`      // flat
	Bardana    float64 `json:"bardana"`    // totalBags × ratePerBag
	Brokerage  float64 `json:"brokerage"`  // netMaunds × ratePerMaund
	Bilty      float64 `json:"bilty"`      // flat
}

// Sum returns the total of the five standard charges.
func (c ChargeSet) Sum() float64 {
	return c.Commission + c.Labor + c.Bardana + c.Brokerage + c.Bilty
}

// Result is the full settlement derivation for one invoice.
type Result struct {
	TotalBags          float64 `json:"totalBags"`
	TotalKattWeight    float64 `json:"totalKattWeight"`    // kg
	TotalItemsWeight   float64 `json:"totalItemsWeight"`   // kg
	TotalManualWeights float64 `json:"totalManualWeights"` // kg
	GrossWeight        float64 `json:"grossWeight"`        // kg; item weights, else manual fallback
	NetWeight          float64 `json:"netWeight"`          // kg; gross − katt, may be negative
	NetMaunds          float64 `json:"netMaunds"`

	GrossSaleValue float64 `json:"grossSaleValue"`

	Deductions ChargeSet `json:"deductions"`
	Additions  ChargeSet `json:"additions"`

	CustomAdditionsTotal  float64 `json:"customAdditionsTotal"`
	CustomDeductionsTotal float64 `json:"customDeductionsTotal"`

	TotalAdditions  float64 `json:"totalAdditions"`
	TotalDeductions float64 `json:"totalDeductions"`
	NetPayable      float64 `json:"netPayable"`

	// Human-readable "maunds and kilos" split of net weight. Display only;
	// no payable figure depends on these.
	Maunds      float64 `json:"maunds"`
	RemainderKg float64 `json:"remainderKg"`
}

// Settle derives the complete settlement for one invoice snapshot. The input
// is never mutated; calling Settle twice on the same value yields identical
// results.
func Settle(inv models.Invoice) Result {
	var r Result

	for _, it := range inv.Items {
		r.TotalBags += it.Quantity
		r.TotalKattWeight += it.Quantity * it.Katt
		r.TotalItemsWeight += it.Weight

		// Each lot is priced on its own net maunds at its own rate. The
		// aggregate netMaunds × some average rate is NOT equivalent.
		itemNet := it.Weight - it.Quantity*it.Katt
		r.GrossSaleValue += itemNet / KgPerMaund * it.Rate
	}

	for _, w := range inv.Weights {
		r.TotalManualWeights += w.Weight
	}

	// Itemized weights win; the manual entries are a fallback for bills
	// weighed before the lots are typed in. Never both, or switching input
	// modes mid-bill would double-count.
	r.GrossWeight = r.TotalItemsWeight
	if r.TotalItemsWeight <= 0 {
		r.GrossWeight = r.TotalManualWeights
	}

	r.NetWeight = r.GrossWeight - r.TotalKattWeight
	r.NetMaunds = r.NetWeight / KgPerMaund

	r.Deductions = chargeSet(inv.Charges.Deduction, r.GrossSaleValue, r.TotalBags, r.NetMaunds)
	r.Additions = chargeSet(inv.Charges.Addition, r.GrossSaleValue, r.TotalBags, r.NetMaunds)

	for _, e := range inv.CustomExpenses {
		if e.Impact == models.ImpactAddition {
			r.CustomAdditionsTotal += e.Amount
		} else {
			r.CustomDeductionsTotal += e.Amount
		}
	}

	r.TotalAdditions = r.Additions.Sum() + r.CustomAdditionsTotal
	r.TotalDeductions = r.Deductions.Sum() + r.CustomDeductionsTotal
	r.NetPayable = r.GrossSaleValue + r.TotalAdditions - r.TotalDeductions

	r.Maunds = math.Floor(r.NetMaunds)
	r.RemainderKg = math.Round((r.NetMaunds - r.Maunds) * KgPerMaund)

	return r
}

// chargeSet applies one side's rates to the shared bases. Labor and bilty are
// flat amounts; mandis that bill labor per bag enter the multiplied total.
func chargeSet(rates models.ChargeRates, grossSaleValue, totalBags, netMaunds float64) ChargeSet {
	return ChargeSet{
		Commission: grossSaleValue * rates.CommissionPct / 100,
		Labor:      rates.LaborCharges,
		Bardana:    totalBags * rates.BardanaRatePerBag,
		Brokerage:  netMaunds * rates.BrokeragePerMaund,
		Bilty:      rates.BiltyCharges,
	}
}
