package models

import (
	"fmt"
	"time"
)

// AllPaymentTypes is the wildcard payment type offered by the filter sidebar.
const AllPaymentTypes = "All"

// FilterSpec is the set of user-selected constraints applied before
// aggregation. It is built fresh for every interaction and never mutated.
type FilterSpec struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	PaymentType string    `json:"payment_type,omitempty"`
	Categories  []string  `json:"categories,omitempty"`
}

// AnyPaymentType reports whether the spec leaves payment type unrestricted.
func (f FilterSpec) AnyPaymentType() bool {
	return f.PaymentType == "" || f.PaymentType == AllPaymentTypes
}

// CategorySet returns the category restriction as a set, or nil when every
// category is allowed.
func (f FilterSpec) CategorySet() map[string]struct{} {
	if len(f.Categories) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(f.Categories))
	for _, c := range f.Categories {
		set[c] = struct{}{}
	}
	return set
}

// CheckRange fails when the start date falls after the end date. Unset bounds
// are not checked.
func (f FilterSpec) CheckRange() error {
	if f.StartDate.IsZero() || f.EndDate.IsZero() {
		return nil
	}
	if DateOf(f.StartDate).After(DateOf(f.EndDate)) {
		return fmt.Errorf("start date %s is after end date %s",
			f.StartDate.Format(time.DateOnly), f.EndDate.Format(time.DateOnly))
	}
	return nil
}

// ViewKind selects which group of panels the presentation layer shows.
type ViewKind string

const (
	ViewOverview  ViewKind = "overview"
	ViewSales     ViewKind = "sales"
	ViewCustomers ViewKind = "customers"
	ViewProducts  ViewKind = "products"
)

var ViewKinds = []ViewKind{ViewOverview, ViewSales, ViewCustomers, ViewProducts}

// ParseViewKind maps a navigation choice to a ViewKind. Empty input selects
// the overview.
func ParseViewKind(s string) (ViewKind, error) {
	if s == "" {
		return ViewOverview, nil
	}
	for _, k := range ViewKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

func (k ViewKind) Title() string {
	switch k {
	case ViewSales:
		return "Sales Analysis"
	case ViewCustomers:
		return "Customers"
	case ViewProducts:
		return "Product Performance"
	default:
		return "Overview"
	}
}
