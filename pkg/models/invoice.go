// Package models defines the mandi billing data model shared across the
// settlement engine, capture adapters, store, and CLI.
package models

// ExpenseImpact states whether a custom expense increases or decreases the
// final payable amount. The wire values ("plus"/"minus") match the documents
// produced by earlier versions of the app.
type ExpenseImpact string

const (
	ImpactAddition  ExpenseImpact = "plus"
	ImpactDeduction ExpenseImpact = "minus"
)

// InvoiceItem is one weighed lot of goods on the bill.
type InvoiceItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"` // free-text commodity name
	Quantity    float64 `json:"quantity"`    // bag count; the UI allows decimals
	Weight      float64 `json:"weight"`      // gross weighed mass for the lot, kg
	Katt        float64 `json:"katt"`        // per-bag tare deduction, kg
	Rate        float64 `json:"rate"`        // price per maund (40 kg) for this lot
	Bharti      float64 `json:"bharti"`      // nominal bag capacity, kg; informational only
}

// WeightEntry is a manually recorded weighment. These are a fallback input
// mode: they count toward gross weight only when no item carries weight.
type WeightEntry struct {
	ID     string  `json:"id"`
	Weight float64 `json:"weight"` // kg
	Label  string  `json:"label"`
}

// CustomExpense is a free-form named charge added by the user.
type CustomExpense struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Amount float64       `json:"amount"`
	Impact ExpenseImpact `json:"impact"`
}

// ChargeRates holds one side of the charge configuration. Commission is a
// percentage of gross sale value, bardana is per bag, brokerage is per net
// maund, and labor and bilty are flat already-totaled amounts.
type ChargeRates struct {
	CommissionPct     float64 `json:"commissionRate"`
	LaborCharges      float64 `json:"laborCharges"`
	BardanaRatePerBag float64 `json:"khaliBardanaRate"`
	BrokeragePerMaund float64 `json:"brokerageRate"`
	BiltyCharges      float64 `json:"biltyCharges"`
}

// ChargeConfig carries the full dual-ledger charge configuration: deduction
// rates billed against the party and addition rates billed the other way.
// Both sides are always present and independently configured. The older
// single-signed-rate scheme is not supported.
type ChargeConfig struct {
	Deduction ChargeRates `json:"deduction"`
	Addition  ChargeRates `json:"addition"`
}

// Invoice is the aggregate root: header fields, the weighed lots, fallback
// weighments, the charge configuration, and free-form expenses. Zero values
// stand in for anything absent, so a partially filled document decodes into a
// usable invoice.
type Invoice struct {
	ID           string  `json:"id,omitempty"` // assigned by the store at first save
	ShopName     string  `json:"shopName"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	BillNumber   string  `json:"billNumber"`
	PartyName    string  `json:"partyName"`
	Date         string  `json:"date"` // YYYY-MM-DD
	TrolleyNo    string  `json:"trolleyNo"`
	BrokerName   string  `json:"brokerName"`
	RatePerMaund float64 `json:"ratePerMaund"` // default rate for newly added items

	Charges ChargeConfig `json:"charges"`

	Items          []InvoiceItem   `json:"items"`
	Weights        []WeightEntry   `json:"weights"`
	CustomExpenses []CustomExpense `json:"customExpenses"`
}
