package settlement

import "mandibill/pkg/models"

// Merge folds a capture fragment into an invoice snapshot and returns the
// combined invoice. Scalar fields present on the fragment overwrite the
// invoice's; items, weights, and custom expenses are appended after the
// existing ones. Neither input is mutated, so the caller can keep the old
// snapshot around until the merge is accepted.
func Merge(inv models.Invoice, frag models.InvoiceFragment) models.Invoice {
	out := inv

	if frag.ShopName != nil {
		out.ShopName = *frag.ShopName
	}
	if frag.Address != nil {
		out.Address = *frag.Address
	}
	if frag.Phone != nil {
		out.Phone = *frag.Phone
	}
	if frag.BillNumber != nil {
		out.BillNumber = *frag.BillNumber
	}
	if frag.PartyName != nil {
		out.PartyName = *frag.PartyName
	}
	if frag.Date != nil {
		out.Date = *frag.Date
	}
	if frag.TrolleyNo != nil {
		out.TrolleyNo = *frag.TrolleyNo
	}
	if frag.BrokerName != nil {
		out.BrokerName = *frag.BrokerName
	}
	if frag.RatePerMaund != nil {
		out.RatePerMaund = *frag.RatePerMaund
	}
	if frag.DeductionCommissionPct != nil {
		out.Charges.Deduction.CommissionPct = *frag.DeductionCommissionPct
	}

	out.Items = concat(inv.Items, frag.Items)
	out.Weights = concat(inv.Weights, frag.Weights)
	out.CustomExpenses = concat(inv.CustomExpenses, frag.CustomExpenses)

	return out
}

// concat copies both slices into fresh backing storage so the merged invoice
// shares nothing with its inputs.
func concat[T any](a, b []T) []T {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
