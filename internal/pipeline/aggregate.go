package pipeline

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

type dayBucket struct {
	orders  map[string]struct{}
	revenue decimal.Decimal
}

// DailyOrders groups rows by purchase day. Every day between the first and
// last day present is emitted, with zero orders and revenue for days that had
// no rows.
func DailyOrders(rows []models.Transaction) []models.DailyOrders {
	if len(rows) == 0 {
		return []models.DailyOrders{}
	}

	buckets := make(map[time.Time]*dayBucket)
	var first, last time.Time
	for i, tx := range rows {
		day := tx.PurchaseDate()
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}

		b := buckets[day]
		if b == nil {
			b = &dayBucket{orders: make(map[string]struct{})}
			buckets[day] = b
		}
		b.orders[tx.OrderID] = struct{}{}
		b.revenue = b.revenue.Add(tx.TotalPrice)
	}

	days := int(last.Sub(first).Hours()/24) + 1
	result := make([]models.DailyOrders, 0, days)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		point := models.DailyOrders{Date: day, Revenue: decimal.Zero}
		if b, ok := buckets[day]; ok {
			point.OrderCount = len(b.orders)
			point.Revenue = b.revenue
		}
		result = append(result, point)
	}
	return result
}

// ProductRevenue sums revenue per product, highest first. Equal revenues keep
// ascending product id order.
func ProductRevenue(rows []models.Transaction) []models.ProductRevenue {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range rows {
		totals[tx.ProductID] = totals[tx.ProductID].Add(tx.TotalPrice)
	}

	result := make([]models.ProductRevenue, 0, len(totals))
	for _, id := range slices.Sorted(maps.Keys(totals)) {
		result = append(result, models.ProductRevenue{ProductID: id, Revenue: totals[id]})
	}
	slices.SortStableFunc(result, func(a, b models.ProductRevenue) int {
		return b.Revenue.Cmp(a.Revenue)
	})
	return result
}

// RegionCustomerCounts counts distinct customers per state, ordered by state.
func RegionCustomerCounts(rows []models.Transaction) []models.RegionCustomers {
	customers := make(map[string]map[string]struct{})
	for _, tx := range rows {
		set := customers[tx.CustomerState]
		if set == nil {
			set = make(map[string]struct{})
			customers[tx.CustomerState] = set
		}
		set[tx.CustomerID] = struct{}{}
	}

	result := make([]models.RegionCustomers, 0, len(customers))
	for _, state := range slices.Sorted(maps.Keys(customers)) {
		result = append(result, models.RegionCustomers{
			CustomerState: state,
			CustomerCount: len(customers[state]),
		})
	}
	return result
}

type customerAgg struct {
	last     time.Time
	orders   map[string]struct{}
	monetary decimal.Decimal
}

// RFM computes recency, frequency and monetary value per customer, ordered by
// customer id. Recency counts whole days between the customer's last purchase
// date and the latest purchase date across rows.
func RFM(rows []models.Transaction) []models.CustomerRFM {
	if len(rows) == 0 {
		return []models.CustomerRFM{}
	}

	aggs := make(map[string]*customerAgg)
	var latest time.Time
	for _, tx := range rows {
		day := tx.PurchaseDate()
		if day.After(latest) {
			latest = day
		}

		a := aggs[tx.CustomerID]
		if a == nil {
			a = &customerAgg{last: day, orders: make(map[string]struct{})}
			aggs[tx.CustomerID] = a
		}
		if day.After(a.last) {
			a.last = day
		}
		a.orders[tx.OrderID] = struct{}{}
		a.monetary = a.monetary.Add(tx.TotalPrice)
	}

	result := make([]models.CustomerRFM, 0, len(aggs))
	for _, id := range slices.Sorted(maps.Keys(aggs)) {
		a := aggs[id]
		result = append(result, models.CustomerRFM{
			CustomerID: id,
			Recency:    daysBetween(a.last, latest),
			Frequency:  len(a.orders),
			Monetary:   a.monetary,
		})
	}
	return result
}

// daysBetween counts calendar days from a to b. Both are midnight UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Round(time.Hour).Hours() / 24)
}

// sortByCountDesc orders by count, largest first, then by key ascending.
func sortByCountDesc[T any](items []T, count func(T) int, key func(T) string) {
	slices.SortFunc(items, func(a, b T) int {
		if c := cmp.Compare(count(b), count(a)); c != 0 {
			return c
		}
		return cmp.Compare(key(a), key(b))
	})
}
