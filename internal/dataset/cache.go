package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

const cacheVersion = "v2"

// ErrCacheMiss means no usable snapshot exists for a path.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores gob snapshots of parsed rows on disk, one per source file.
type Cache struct {
	Dir string
}

type snapshot struct {
	Rows          []cachedRow
	SourceModTime time.Time
	CreatedAt     time.Time
}

// cachedRow flattens the nullable fields of a Transaction. Gob drops zero
// values, so a pointer to 0 would otherwise decode as nil.
type cachedRow struct {
	OrderID         string
	OrderItemID     string
	CustomerID      string
	ProductID       string
	CustomerState   string
	PaymentType     string
	Category        string
	CategoryEnglish string
	PurchasedAt     time.Time
	TotalPrice      decimal.Decimal

	HasDeliveredAt  bool
	DeliveredAt     time.Time
	HasReviewScore  bool
	ReviewScore     float64
	HasDeliveryDays bool
	DeliveryDays    float64
}

func toCachedRows(rows []models.Transaction) []cachedRow {
	out := make([]cachedRow, len(rows))
	for i, tx := range rows {
		r := cachedRow{
			OrderID:         tx.OrderID,
			OrderItemID:     tx.OrderItemID,
			CustomerID:      tx.CustomerID,
			ProductID:       tx.ProductID,
			CustomerState:   tx.CustomerState,
			PaymentType:     tx.PaymentType,
			Category:        tx.Category,
			CategoryEnglish: tx.CategoryEnglish,
			PurchasedAt:     tx.PurchasedAt,
			TotalPrice:      tx.TotalPrice,
		}
		if tx.DeliveredAt != nil {
			r.HasDeliveredAt, r.DeliveredAt = true, *tx.DeliveredAt
		}
		if tx.ReviewScore != nil {
			r.HasReviewScore, r.ReviewScore = true, *tx.ReviewScore
		}
		if tx.DeliveryDays != nil {
			r.HasDeliveryDays, r.DeliveryDays = true, *tx.DeliveryDays
		}
		out[i] = r
	}
	return out
}

func fromCachedRows(rows []cachedRow) []models.Transaction {
	out := make([]models.Transaction, len(rows))
	for i, r := range rows {
		tx := models.Transaction{
			OrderID:         r.OrderID,
			OrderItemID:     r.OrderItemID,
			CustomerID:      r.CustomerID,
			ProductID:       r.ProductID,
			CustomerState:   r.CustomerState,
			PaymentType:     r.PaymentType,
			Category:        r.Category,
			CategoryEnglish: r.CategoryEnglish,
			PurchasedAt:     r.PurchasedAt,
			TotalPrice:      r.TotalPrice,
		}
		if r.HasDeliveredAt {
			delivered := r.DeliveredAt
			tx.DeliveredAt = &delivered
		}
		if r.HasReviewScore {
			score := r.ReviewScore
			tx.ReviewScore = &score
		}
		if r.HasDeliveryDays {
			days := r.DeliveryDays
			tx.DeliveryDays = &days
		}
		out[i] = tx
	}
	return out
}

func (c *Cache) filename(path string) string {
	name := strings.ReplaceAll(filepath.ToSlash(filepath.Clean(path)), "/", "_")
	return filepath.Join(c.Dir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

// Load returns the cached rows for path. A snapshot taken from an older
// version of the file is a miss.
func (c *Cache) Load(path string) ([]models.Transaction, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(c.filename(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	if !snap.SourceModTime.Equal(info.ModTime()) {
		return nil, ErrCacheMiss
	}
	return fromCachedRows(snap.Rows), nil
}

// Save writes a snapshot of rows for path, replacing any earlier one.
func (c *Cache) Save(path string, rows []models.Transaction) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.Dir, "snapshot-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	snap := snapshot{Rows: toCachedRows(rows), SourceModTime: info.ModTime(), CreatedAt: time.Now()}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.filename(path))
}
