package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

// Column names of the flat-file and database layouts.
const (
	colOrderID         = "order_id"
	colOrderItemID     = "order_item_id"
	colCustomerID      = "customer_id"
	colProductID       = "product_id"
	colCustomerState   = "customer_state"
	colPaymentType     = "payment_type"
	colCategory        = "product_category_name"
	colCategoryEnglish = "product_category_name_english"
	colPurchasedAt     = "order_purchase_timestamp"
	colDeliveredAt     = "order_delivered_customer_date"
	colTotalPrice      = "total_price"
	colReviewScore     = "review_score"
	colDeliveryDays    = "waktu_pengiriman"
)

var requiredColumns = []string{
	colOrderID,
	colCustomerID,
	colProductID,
	colCustomerState,
	colPaymentType,
	colCategory,
	colPurchasedAt,
	colDeliveredAt,
	colTotalPrice,
	colReviewScore,
}

var optionalColumns = []string{
	colOrderItemID,
	colCategoryEnglish,
	colDeliveryDays,
}

const (
	minReviewScore = 0
	maxReviewScore = 5
)

var (
	ErrNoRecords      = errors.New("no records found")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrScoreRange     = fmt.Errorf("score outside [%d, %d]", minReviewScore, maxReviewScore)
	ErrRequiredValue  = errors.New("value is required")
	ErrMissingColumns = errors.New("missing required columns")
)

// RowError reports a value that could not be loaded. Row is 1-based and
// counts data rows, not the header.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: field %s: invalid value %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var timestampLayouts = []string{
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	time.DateOnly,
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// isNull reports whether a raw cell holds no value. The dataframe reader
// spells missing cells as NaN.
func isNull(s string) bool {
	switch s {
	case "", "NaN", "NA", "nan", "<nil>", "null", "NULL":
		return true
	}
	return false
}

// rawRecord is one row of cells keyed by column, before typing.
type rawRecord func(column string) string

// parseRecord types and validates one raw row. row is the 1-based data row.
func parseRecord(row int, get rawRecord) (models.Transaction, error) {
	fail := func(field, value string, err error) (models.Transaction, error) {
		return models.Transaction{}, &RowError{Row: row, Field: field, Value: value, Err: err}
	}

	tx := models.Transaction{
		OrderID:         strings.TrimSpace(get(colOrderID)),
		OrderItemID:     nullable(get(colOrderItemID)),
		CustomerID:      strings.TrimSpace(get(colCustomerID)),
		ProductID:       strings.TrimSpace(get(colProductID)),
		CustomerState:   strings.TrimSpace(get(colCustomerState)),
		PaymentType:     nullable(get(colPaymentType)),
		Category:        nullable(get(colCategory)),
		CategoryEnglish: nullable(get(colCategoryEnglish)),
	}
	for _, id := range []struct{ field, value string }{
		{colOrderID, tx.OrderID},
		{colCustomerID, tx.CustomerID},
		{colProductID, tx.ProductID},
	} {
		if isNull(id.value) {
			return fail(id.field, id.value, ErrRequiredValue)
		}
	}

	raw := strings.TrimSpace(get(colPurchasedAt))
	purchased, err := parseTimestamp(raw)
	if err != nil {
		return fail(colPurchasedAt, raw, err)
	}
	tx.PurchasedAt = purchased

	if raw = strings.TrimSpace(get(colDeliveredAt)); !isNull(raw) {
		delivered, err := parseTimestamp(raw)
		if err != nil {
			return fail(colDeliveredAt, raw, err)
		}
		tx.DeliveredAt = &delivered
	}

	raw = strings.TrimSpace(get(colTotalPrice))
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return fail(colTotalPrice, raw, err)
	}
	if price.IsNegative() {
		return fail(colTotalPrice, raw, ErrNegativePrice)
	}
	tx.TotalPrice = price

	if raw = strings.TrimSpace(get(colReviewScore)); !isNull(raw) {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail(colReviewScore, raw, err)
		}
		if score < minReviewScore || score > maxReviewScore {
			return fail(colReviewScore, raw, ErrScoreRange)
		}
		tx.ReviewScore = &score
	}

	if raw = strings.TrimSpace(get(colDeliveryDays)); !isNull(raw) {
		days, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail(colDeliveryDays, raw, err)
		}
		tx.DeliveryDays = &days
	}
	deriveDeliveryDays(&tx)

	return tx, nil
}

// deriveDeliveryDays fills DeliveryDays from the delivery timestamp when the
// dataset did not carry the precomputed column.
func deriveDeliveryDays(tx *models.Transaction) {
	if tx.DeliveryDays != nil || tx.DeliveredAt == nil {
		return
	}
	days := math.Floor(tx.DeliveredAt.Sub(tx.PurchasedAt).Hours() / 24)
	tx.DeliveryDays = &days
}

func nullable(s string) string {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return ""
	}
	return s
}

// validate applies the load-time invariants to a record that arrived already
// typed, such as a database row.
func validate(row int, tx models.Transaction) error {
	fail := func(field, value string, err error) error {
		return &RowError{Row: row, Field: field, Value: value, Err: err}
	}
	switch {
	case tx.OrderID == "":
		return fail(colOrderID, "", ErrRequiredValue)
	case tx.CustomerID == "":
		return fail(colCustomerID, "", ErrRequiredValue)
	case tx.ProductID == "":
		return fail(colProductID, "", ErrRequiredValue)
	case tx.PurchasedAt.IsZero():
		return fail(colPurchasedAt, "", ErrRequiredValue)
	case tx.TotalPrice.IsNegative():
		return fail(colTotalPrice, tx.TotalPrice.String(), ErrNegativePrice)
	case tx.ReviewScore != nil && (*tx.ReviewScore < minReviewScore || *tx.ReviewScore > maxReviewScore):
		return fail(colReviewScore, strconv.FormatFloat(*tx.ReviewScore, 'f', -1, 64), ErrScoreRange)
	}
	return nil
}
