package models

// BardanaDirection marks whether empty sacks came into or left the shop's
// stock.
type BardanaDirection string

const (
	BardanaIn  BardanaDirection = "in"
	BardanaOut BardanaDirection = "out"
)

// BardanaEntry is one movement in the empty-sack (bardana) stock ledger.
type BardanaEntry struct {
	ID        string           `json:"id"`
	Date      string           `json:"date"` // YYYY-MM-DD
	Direction BardanaDirection `json:"direction"`
	Quantity  float64          `json:"quantity"`
	Note      string           `json:"note"`
}
