package models

// InvoiceFragment is a partial invoice produced by a capture adapter (image
// scan or voice entry). Scalar fields use pointers so "absent" and "empty"
// stay distinguishable: a nil field leaves the target invoice untouched when
// merged, while Items, Weights, and CustomExpenses are concatenated onto the
// invoice's existing collections.
type InvoiceFragment struct {
	ShopName     *string  `json:"shopName,omitempty"`
	Address      *string  `json:"address,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	BillNumber   *string  `json:"billNumber,omitempty"`
	PartyName    *string  `json:"partyName,omitempty"`
	Date         *string  `json:"date,omitempty"`
	TrolleyNo    *string  `json:"trolleyNo,omitempty"`
	BrokerName   *string  `json:"brokerName,omitempty"`
	RatePerMaund *float64 `json:"ratePerMaund,omitempty"`

	DeductionCommissionPct *float64 `json:"commissionRate,omitempty"`

	Items          []InvoiceItem   `json:"items,omitempty"`
	Weights        []WeightEntry   `json:"weights,omitempty"`
	CustomExpenses []CustomExpense `json:"customExpenses,omitempty"`
}

// IsEmpty reports whether the fragment carries nothing at all. Adapters
// return empty fragments when the model could not read the document rather
// than failing the whole capture.
func (f *InvoiceFragment) IsEmpty() bool {
	return f.ShopName == nil && f.Address == nil && f.Phone == nil &&
		f.BillNumber == nil && f.PartyName == nil && f.Date == nil &&
		f.TrolleyNo == nil && f.BrokerName == nil && f.RatePerMaund == nil &&
		f.DeductionCommissionPct == nil &&
		len(f.Items) == 0 && len(f.Weights) == 0 && len(f.CustomExpenses) == 0
}
