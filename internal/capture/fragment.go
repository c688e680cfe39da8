package capture

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mandibill/pkg/models"
)

// flexFloat decodes a JSON number that models sometimes emit as a quoted
// string ("2000" or "2,000" instead of 2000).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Unparseable text becomes zero rather than failing the whole
			// fragment; one garbled field must not discard the rest.
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// billResponse is the JSON contract the structuring prompt asks the model
// for. Every field is optional; weights arrive as bare numbers straight off
// the weighbridge column.
type billResponse struct {
	ShopName       *string    `json:"shopName"`
	Address        *string    `json:"address"`
	Phone          *string    `json:"phone"`
	BillNumber     *string    `json:"billNumber"`
	PartyName      *string    `json:"partyName"`
	Date           *string    `json:"date"`
	TrolleyNo      *string    `json:"trolleyNo"`
	BrokerName     *string    `json:"brokerName"`
	RatePerMaund   *flexFloat `json:"ratePerMaund"`
	CommissionRate *flexFloat `json:"commissionRate"`

	Weights []flexFloat        `json:"weights"`
	Items   []billItemResponse `json:"items"`
}

type billItemResponse struct {
	Description string    `json:"description"`
	Quantity    flexFloat `json:"quantity"`
	Weight      flexFloat `json:"weight"`
	Katt        flexFloat `json:"katt"`
	Rate        flexFloat `json:"rate"`
	Bharti      flexFloat `json:"bharti"`
}

// parseBillResponse turns a model reply into an invoice fragment. The reply
// may be wrapped in a markdown code fence; anything outside the outermost
// JSON object is ignored. Returns ErrUnreadableResponse when no JSON object
// can be found at all.
func parseBillResponse(reply string) (*models.InvoiceFragment, error) {
	const op = "parseBillResponse"

	raw := extractJSONObject(reply)
	if raw == "" {
		return nil, WrapError(op, ErrUnreadableResponse, "no JSON object in model reply")
	}

	var resp billResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, WrapError(op, ErrUnreadableResponse, err.Error())
	}

	frag := &models.InvoiceFragment{
		ShopName:   cleanString(resp.ShopName),
		Address:    cleanString(resp.Address),
		Phone:      cleanString(resp.Phone),
		BillNumber: cleanString(resp.BillNumber),
		PartyName:  cleanString(resp.PartyName),
		Date:       cleanString(resp.Date),
		TrolleyNo:  cleanString(resp.TrolleyNo),
		BrokerName: cleanString(resp.BrokerName),
	}
	if resp.RatePerMaund != nil {
		v := float64(*resp.RatePerMaund)
		frag.RatePerMaund = &v
	}
	if resp.CommissionRate != nil {
		v := float64(*resp.CommissionRate)
		frag.DeductionCommissionPct = &v
	}

	defaultRate := 0.0
	if frag.RatePerMaund != nil {
		defaultRate = *frag.RatePerMaund
	}
	for _, it := range resp.Items {
		rate := float64(it.Rate)
		if rate == 0 {
			// Handwritten parchis often quote one rate for the whole bill.
			rate = defaultRate
		}
		frag.Items = append(frag.Items, models.InvoiceItem{
			ID:          uuid.NewString(),
			Description: it.Description,
			Quantity:    float64(it.Quantity),
			Weight:      float64(it.Weight),
			Katt:        float64(it.Katt),
			Rate:        rate,
			Bharti:      float64(it.Bharti),
		})
	}

	// Weighbridge columns come back as bare numbers; label them by position
	// the way the weighment slips are numbered.
	for i, w := range resp.Weights {
		frag.Weights = append(frag.Weights, models.WeightEntry{
			ID:     uuid.NewString(),
			Weight: float64(w),
			Label:  strconv.Itoa(i + 1),
		})
	}

	return frag, nil
}

// extractJSONObject returns the outermost {...} block of s, tolerating
// markdown fences and prose around it.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// cleanString trims a model-supplied string and drops placeholder values so
// they never overwrite real data on merge.
func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	switch strings.ToLower(t) {
	case "", "null", "n/a", "unknown", "---":
		return nil
	}
	return &t
}
