package capture

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillResponse(t *testing.T) {
	t.Run("full bill", func(t *testing.T) {
		reply := `{
			"shopName": "Madina Rice Mills",
			"address": "Ghalla Mandi, Hafizabad",
			"phone": "0300-1234567",
			"billNumber": "1042",
			"partyName": "Haji Akram",
			"date": "2026-08-14",
			"trolleyNo": "LEB-2291",
			"brokerName": "Rafiq",
			"ratePerMaund": 3200,
			"commissionRate": 2.5,
			"weights": [1210, 1195, 880],
			"items": [
				{"description": "Super Basmati", "quantity": 50, "weight": 3285, "katt": 2, "rate": 3200, "bharti": 65}
			]
		}`

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)

		require.NotNil(t, frag.ShopName)
		assert.Equal(t, "Madina Rice Mills", *frag.ShopName)
		require.NotNil(t, frag.BillNumber)
		assert.Equal(t, "1042", *frag.BillNumber)
		require.NotNil(t, frag.PartyName)
		assert.Equal(t, "Haji Akram", *frag.PartyName)
		require.NotNil(t, frag.RatePerMaund)
		assert.Equal(t, 3200.0, *frag.RatePerMaund)
		require.NotNil(t, frag.DeductionCommissionPct)
		assert.Equal(t, 2.5, *frag.DeductionCommissionPct)

		require.Len(t, frag.Items, 1)
		item := frag.Items[0]
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "Super Basmati", item.Description)
		assert.Equal(t, 50.0, item.Quantity)
		assert.Equal(t, 3285.0, item.Weight)
		assert.Equal(t, 2.0, item.Katt)
		assert.Equal(t, 65.0, item.Bharti)

		require.Len(t, frag.Weights, 3)
		assert.Equal(t, 1210.0, frag.Weights[0].Weight)
		assert.Equal(t, "1", frag.Weights[0].Label)
		assert.Equal(t, "3", frag.Weights[2].Label)
	})

	t.Run("markdown fenced reply", func(t *testing.T) {
		reply := "Here is the extracted bill:\n```json\n{\"partyName\": \"Chaudhry Aslam\"}\n```\n"

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)
		require.NotNil(t, frag.PartyName)
		assert.Equal(t, "Chaudhry Aslam", *frag.PartyName)
	})

	t.Run("numbers as strings with commas", func(t *testing.T) {
		reply := `{
			"ratePerMaund": "3,200",
			"items": [{"description": "Wheat", "quantity": "100", "weight": "6,000", "katt": "1.5", "rate": "3,200"}]
		}`

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)
		require.NotNil(t, frag.RatePerMaund)
		assert.Equal(t, 3200.0, *frag.RatePerMaund)
		require.Len(t, frag.Items, 1)
		assert.Equal(t, 100.0, frag.Items[0].Quantity)
		assert.Equal(t, 6000.0, frag.Items[0].Weight)
		assert.Equal(t, 1.5, frag.Items[0].Katt)
	})

	t.Run("garbled numeric field becomes zero", func(t *testing.T) {
		reply := `{"items": [{"description": "Wheat", "quantity": "fifty", "weight": 3000}]}`

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)
		require.Len(t, frag.Items, 1)
		assert.Equal(t, 0.0, frag.Items[0].Quantity)
		assert.Equal(t, 3000.0, frag.Items[0].Weight)
	})

	t.Run("placeholder strings dropped", func(t *testing.T) {
		reply := `{"shopName": "N/A", "partyName": "  ", "brokerName": "unknown", "billNumber": "null", "trolleyNo": "LEB-1"}`

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)
		assert.Nil(t, frag.ShopName)
		assert.Nil(t, frag.PartyName)
		assert.Nil(t, frag.BrokerName)
		assert.Nil(t, frag.BillNumber)
		require.NotNil(t, frag.TrolleyNo)
		assert.Equal(t, "LEB-1", *frag.TrolleyNo)
	})

	t.Run("items inherit bill rate when item rate missing", func(t *testing.T) {
		reply := `{
			"ratePerMaund": 2900,
			"items": [
				{"description": "Wheat", "quantity": 40, "weight": 2400},
				{"description": "Kanak chhaan", "quantity": 10, "weight": 500, "rate": 1500}
			]
		}`

		frag, err := parseBillResponse(reply)
		require.NoError(t, err)
		require.Len(t, frag.Items, 2)
		assert.Equal(t, 2900.0, frag.Items[0].Rate)
		assert.Equal(t, 1500.0, frag.Items[1].Rate)
	})

	t.Run("no JSON object", func(t *testing.T) {
		_, err := parseBillResponse("I could not read this bill.")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnreadableResponse))
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := parseBillResponse(`{"partyName": "Akram"`)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnreadableResponse))
	})
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain number", `12.5`, 12.5},
		{"quoted number", `"12.5"`, 12.5},
		{"quoted with commas", `"1,234,567"`, 1234567},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
		{"garbled text", `"forty"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexFloat
			err := json.Unmarshal([]byte(tt.input), &f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, float64(f))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONObject("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "", extractJSONObject("no json here"))
	assert.Equal(t, "", extractJSONObject("}{"))
}
