// Package store persists saved bills and the bardana ledger in a local
// SQLite database. The full invoice is kept as a JSON document alongside a
// few indexed header columns, so the settlement schema can evolve without
// migrations touching historical bills.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mandibill/internal/logger"
	"mandibill/internal/settlement"
	"mandibill/pkg/models"
)

var (
	// ErrBillNotFound is returned when no bill matches the requested ID.
	ErrBillNotFound = errors.New("bill not found")
)

// billRecord is the persisted form of a saved bill. Header columns are
// denormalized for listing and search; Document carries the full invoice.
type billRecord struct {
	ID         string    `gorm:"primaryKey"`
	BillNumber string    `gorm:"index"`
	PartyName  string    `gorm:"index"`
	BillDate   string    `gorm:"index"`
	NetPayable float64   `gorm:"not null;default:0"`
	Document   string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (billRecord) TableName() string { return "bills" }

// metaRecord holds single-value settings such as the last issued bill number.
type metaRecord struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"type:text;not null"`
}

func (metaRecord) TableName() string { return "meta" }

const metaLastBillNumber = "last_bill_number"

// bardanaRecord is one movement in the empty-bag ledger.
type bardanaRecord struct {
	ID        string    `gorm:"primaryKey"`
	EntryDate string    `gorm:"index"`
	Direction string    `gorm:"not null"`
	Quantity  float64   `gorm:"not null"`
	Note      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (bardanaRecord) TableName() string { return "bardana_entries" }

// BillSummary is the listing row for saved bills.
type BillSummary struct {
	ID         string  `json:"id"`
	BillNumber string  `json:"billNumber"`
	PartyName  string  `json:"partyName"`
	Date       string  `json:"date"`
	NetPayable float64 `json:"netPayable"`
}

// Store wraps the SQLite database.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	const op = "store.Open"

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%s: failed to create database directory: %w", op, err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	if err := db.AutoMigrate(&billRecord{}, &metaRecord{}, &bardanaRecord{}); err != nil {
		return nil, fmt.Errorf("%s: failed to migrate schema: %w", op, err)
	}

	return &Store{
		db:  db,
		log: logger.WithComponent("store"),
	}, nil
}

// SaveBill inserts or updates a bill. A bill without an ID gets one assigned;
// the (possibly updated) invoice is returned.
func (s *Store) SaveBill(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	const op = "SaveBill"

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	doc, err := json.Marshal(inv)
	if err != nil {
		return inv, fmt.Errorf("%s: failed to encode invoice: %w", op, err)
	}

	netPayable := settlement.Settle(inv).NetPayable
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing billRecord
		result := tx.Where("id = ?", inv.ID).First(&existing)
		switch {
		case result.Error == nil:
			return tx.Model(&billRecord{}).Where("id = ?", inv.ID).Updates(map[string]any{
				"bill_number": inv.BillNumber,
				"party_name":  inv.PartyName,
				"bill_date":   inv.Date,
				"net_payable": netPayable,
				"document":    string(doc),
				"updated_at":  now,
			}).Error
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			return tx.Create(&billRecord{
				ID:         inv.ID,
				BillNumber: inv.BillNumber,
				PartyName:  inv.PartyName,
				BillDate:   inv.Date,
				NetPayable: netPayable,
				Document:   string(doc),
				CreatedAt:  now,
				UpdatedAt:  now,
			}).Error
		default:
			return result.Error
		}
	})
	if err != nil {
		return inv, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.RememberBillNumber(ctx, inv.BillNumber); err != nil {
		return inv, err
	}

	s.log.Info().
		Str("bill_id", inv.ID).
		Str("bill_number", inv.BillNumber).
		Str("party", inv.PartyName).
		Msg("Bill saved")

	return inv, nil
}

// GetBill loads a bill by ID.
func (s *Store) GetBill(ctx context.Context, id string) (models.Invoice, error) {
	const op = "GetBill"

	var rec billRecord
	result := s.db.WithContext(ctx).Where("id = ?", id).First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.Invoice{}, fmt.Errorf("%s: %q: %w", op, id, ErrBillNotFound)
	}
	if result.Error != nil {
		return models.Invoice{}, fmt.Errorf("%s: %w", op, result.Error)
	}

	var inv models.Invoice
	if err := json.Unmarshal([]byte(rec.Document), &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("%s: failed to decode stored invoice %q: %w", op, id, err)
	}
	return inv, nil
}

// ListBills returns bill summaries, newest first. A non-empty party filters
// by substring match on the party name.
func (s *Store) ListBills(ctx context.Context, party string, limit int) ([]BillSummary, error) {
	const op = "ListBills"

	query := s.db.WithContext(ctx).Model(&billRecord{}).
		Order("bill_date DESC, created_at DESC")
	if party != "" {
		query = query.Where("party_name LIKE ?", "%"+party+"%")
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []billRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := make([]BillSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, BillSummary{
			ID:         rec.ID,
			BillNumber: rec.BillNumber,
			PartyName:  rec.PartyName,
			Date:       rec.BillDate,
			NetPayable: rec.NetPayable,
		})
	}
	return summaries, nil
}

// DeleteBill removes a bill by ID.
func (s *Store) DeleteBill(ctx context.Context, id string) error {
	const op = "DeleteBill"

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&billRecord{})
	if result.Error != nil {
		return fmt.Errorf("%s: %w", op, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %q: %w", op, id, ErrBillNotFound)
	}

	s.log.Info().Str("bill_id", id).Msg("Bill deleted")
	return nil
}

// LastBillNumber returns the highest bill number remembered so far, or ""
// when none has been saved yet.
func (s *Store) LastBillNumber(ctx context.Context) (string, error) {
	const op = "LastBillNumber"

	var rec metaRecord
	result := s.db.WithContext(ctx).Where("key = ?", metaLastBillNumber).First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if result.Error != nil {
		return "", fmt.Errorf("%s: %w", op, result.Error)
	}
	return rec.Value, nil
}

// RememberBillNumber records number as the latest issued bill number, but
// only when its numeric part advances past the stored one. Saving an old
// bill again must not wind the sequence backwards.
func (s *Store) RememberBillNumber(ctx context.Context, number string) error {
	const op = "RememberBillNumber"

	if number == "" {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec metaRecord
		result := tx.Where("key = ?", metaLastBillNumber).First(&rec)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			return tx.Create(&metaRecord{Key: metaLastBillNumber, Value: number}).Error
		case result.Error != nil:
			return result.Error
		}
		if !numberAdvances(number, rec.Value) {
			return nil
		}
		return tx.Model(&metaRecord{}).Where("key = ?", metaLastBillNumber).
			Update("value", number).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddBardanaEntry appends a movement to the bardana ledger and returns it
// with its assigned ID.
func (s *Store) AddBardanaEntry(ctx context.Context, entry models.BardanaEntry) (models.BardanaEntry, error) {
	const op = "AddBardanaEntry"

	if entry.Direction != models.BardanaIn && entry.Direction != models.BardanaOut {
		return entry, fmt.Errorf("%s: invalid direction %q", op, entry.Direction)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = time.Now().Format("2006-01-02")
	}

	err := s.db.WithContext(ctx).Create(&bardanaRecord{
		ID:        entry.ID,
		EntryDate: entry.Date,
		Direction: string(entry.Direction),
		Quantity:  entry.Quantity,
		Note:      entry.Note,
		CreatedAt: time.Now(),
	}).Error
	if err != nil {
		return entry, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().
		Str("direction", string(entry.Direction)).
		Float64("quantity", entry.Quantity).
		Msg("Bardana entry recorded")

	return entry, nil
}

// BardanaEntries returns the bardana ledger, oldest first.
func (s *Store) BardanaEntries(ctx context.Context) ([]models.BardanaEntry, error) {
	const op = "BardanaEntries"

	var records []bardanaRecord
	err := s.db.WithContext(ctx).
		Order("entry_date ASC, created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries := make([]models.BardanaEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, models.BardanaEntry{
			ID:        rec.ID,
			Date:      rec.EntryDate,
			Direction: models.BardanaDirection(rec.Direction),
			Quantity:  rec.Quantity,
			Note:      rec.Note,
		})
	}
	return entries, nil
}

// BardanaStock returns the current net bag count (in minus out).
func (s *Store) BardanaStock(ctx context.Context) (float64, error) {
	const op = "BardanaStock"

	entries, err := s.BardanaEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var stock float64
	for _, e := range entries {
		if e.Direction == models.BardanaIn {
			stock += e.Quantity
		} else {
			stock -= e.Quantity
		}
	}
	return stock, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// numberAdvances reports whether next orders strictly after current by the
// digits of each bill number ("INV-0042" orders as 42). Digit runs of any
// length are compared as decimal strings, so numbers past int64 still order
// correctly. Numbers without digits order lowest.
func numberAdvances(next, current string) bool {
	n, c := digitsOf(next), digitsOf(current)
	if len(n) != len(c) {
		return len(n) > len(c)
	}
	return n > c
}

// digitsOf strips non-digits and leading zeros, leaving a canonical decimal
// string for comparison.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}
