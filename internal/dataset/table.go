// Package dataset loads the transaction table and holds it as an immutable
// snapshot for the pipeline.
package dataset

import (
	"maps"
	"slices"
	"time"

	"ecommerce-dashboard/internal/models"
)

// Table is a read-only snapshot of the loaded transactions, ordered by
// purchase time. Callers must not modify the slice returned by Rows.
type Table struct {
	rows         []models.Transaction
	minDate      time.Time
	maxDate      time.Time
	paymentTypes []string
	categories   []string
}

func NewTable(rows []models.Transaction) *Table {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b models.Transaction) int {
		return a.PurchasedAt.Compare(b.PurchasedAt)
	})

	t := &Table{rows: sorted}
	payments := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, tx := range sorted {
		payments[tx.PaymentType] = struct{}{}
		categories[tx.Category] = struct{}{}
	}
	if len(sorted) > 0 {
		t.minDate = sorted[0].PurchaseDate()
		t.maxDate = sorted[len(sorted)-1].PurchaseDate()
	}
	t.paymentTypes = slices.Sorted(maps.Keys(payments))
	t.categories = slices.Sorted(maps.Keys(categories))
	return t
}

func (t *Table) Rows() []models.Transaction {
	return t.rows
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Bounds returns the first and last purchase dates. ok is false for an empty
// table.
func (t *Table) Bounds() (first, last time.Time, ok bool) {
	if len(t.rows) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.minDate, t.maxDate, true
}

// PaymentTypes lists the distinct payment types observed, sorted.
func (t *Table) PaymentTypes() []string {
	return slices.Clone(t.paymentTypes)
}

// Categories lists the distinct product categories observed, sorted.
func (t *Table) Categories() []string {
	return slices.Clone(t.categories)
}

// Clamp fills unset date bounds with the table's observed range and pulls
// bounds that overshoot it back inside. A range lying entirely outside the
// observed dates is returned unchanged so it still matches nothing.
func (t *Table) Clamp(spec models.FilterSpec) models.FilterSpec {
	lo, hi, ok := t.Bounds()
	if !ok {
		return spec
	}

	out := spec
	out.Categories = slices.Clone(spec.Categories)
	if !out.StartDate.IsZero() && models.DateOf(out.StartDate).After(hi) {
		return out
	}
	if !out.EndDate.IsZero() && models.DateOf(out.EndDate).Before(lo) {
		return out
	}

	if out.StartDate.IsZero() || models.DateOf(out.StartDate).Before(lo) {
		out.StartDate = lo
	}
	if out.EndDate.IsZero() || models.DateOf(out.EndDate).After(hi) {
		out.EndDate = hi
	}
	return out
}
