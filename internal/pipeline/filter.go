// Package pipeline turns a transaction table plus a filter into the derived
// views shown on the dashboard. Every function is a pure, synchronous
// transform: inputs are never mutated and outputs are freshly allocated.
package pipeline

import (
	"ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
)

// ApplyFilter keeps the rows that fall inside the spec's inclusive date range
// and match its payment type and category restrictions.
//
// Dates are compared at calendar-day granularity, so a row purchased at any
// time on the end date is kept. An unset bound leaves that side open.
func ApplyFilter(rows []models.Transaction, spec models.FilterSpec) ([]models.Transaction, error) {
	if err := spec.CheckRange(); err != nil {
		return nil, errors.ValidationDetail(err, "invalid date range")
	}

	start, end := spec.StartDate, spec.EndDate
	hasStart, hasEnd := !start.IsZero(), !end.IsZero()
	if hasStart {
		start = models.DateOf(start)
	}
	if hasEnd {
		end = models.DateOf(end)
	}
	anyPayment := spec.AnyPaymentType()
	categories := spec.CategorySet()

	out := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		day := tx.PurchaseDate()
		if hasStart && day.Before(start) {
			continue
		}
		if hasEnd && day.After(end) {
			continue
		}
		if !anyPayment && tx.PaymentType != spec.PaymentType {
			continue
		}
		if categories != nil {
			if _, ok := categories[tx.Category]; !ok {
				continue
			}
		}
		out = append(out, tx)
	}
	return out, nil
}
