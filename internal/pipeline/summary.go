package pipeline

import (
	"maps"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

// DeliveryByRegion averages delivery days per state over rows that were
// delivered. States without a delivered row are omitted.
func DeliveryByRegion(rows []models.Transaction) []models.RegionDelivery {
	type acc struct {
		sum float64
		n   int
	}
	states := make(map[string]*acc)
	for _, tx := range rows {
		if tx.DeliveryDays == nil {
			continue
		}
		a := states[tx.CustomerState]
		if a == nil {
			a = &acc{}
			states[tx.CustomerState] = a
		}
		a.sum += *tx.DeliveryDays
		a.n++
	}

	result := make([]models.RegionDelivery, 0, len(states))
	for _, state := range slices.Sorted(maps.Keys(states)) {
		a := states[state]
		result = append(result, models.RegionDelivery{
			CustomerState:   state,
			AvgDeliveryDays: round(a.sum/float64(a.n), 2),
		})
	}
	return result
}

// PaymentMix counts rows per payment type with each type's share of the total.
func PaymentMix(rows []models.Transaction) []models.PaymentShare {
	counts := make(map[string]int)
	for _, tx := range rows {
		counts[tx.PaymentType]++
	}

	result := make([]models.PaymentShare, 0, len(counts))
	for paymentType, n := range counts {
		result = append(result, models.PaymentShare{
			PaymentType: paymentType,
			Count:       n,
			Percentage:  float64(n) / float64(len(rows)) * 100,
		})
	}
	sortByCountDesc(result,
		func(p models.PaymentShare) int { return p.Count },
		func(p models.PaymentShare) string { return p.PaymentType })
	return result
}

// CategorySales counts sold items per category, best sellers first. Rows
// without any category name are left out.
func CategorySales(rows []models.Transaction) []models.CategorySales {
	counts := make(map[string]int)
	for _, tx := range rows {
		if category := tx.DisplayCategory(); category != "" {
			counts[category]++
		}
	}

	result := make([]models.CategorySales, 0, len(counts))
	for category, n := range counts {
		result = append(result, models.CategorySales{Category: category, SalesCount: n})
	}
	sortByCountDesc(result,
		func(c models.CategorySales) int { return c.SalesCount },
		func(c models.CategorySales) string { return c.Category })
	return result
}

// Reviews averages the review scores that are present.
func Reviews(rows []models.Transaction) models.ReviewSummary {
	var sum float64
	var n int
	for _, tx := range rows {
		if tx.ReviewScore != nil {
			sum += *tx.ReviewScore
			n++
		}
	}
	if n == 0 {
		return models.ReviewSummary{Level: models.LevelNoReviews}
	}

	avg := round(sum/float64(n), 2)
	return models.ReviewSummary{
		AverageScore: avg,
		Reviewed:     n,
		Level:        performanceLevel(avg),
	}
}

func performanceLevel(score float64) models.PerformanceLevel {
	switch {
	case score >= 4:
		return models.LevelGreat
	case score >= 3:
		return models.LevelGood
	case score >= 2:
		return models.LevelAverage
	default:
		return models.LevelBad
	}
}

// Summarize totals a daily series.
func Summarize(daily []models.DailyOrders) models.SalesSummary {
	s := models.SalesSummary{TotalRevenue: decimal.Zero}
	for _, d := range daily {
		s.TotalOrders += d.OrderCount
		s.TotalRevenue = s.TotalRevenue.Add(d.Revenue)
	}
	return s
}

// SummarizeRFM averages the RFM table. An empty table yields zeros.
func SummarizeRFM(rfm []models.CustomerRFM) models.RFMSummary {
	if len(rfm) == 0 {
		return models.RFMSummary{AvgMonetary: decimal.Zero}
	}

	var recency, frequency int
	monetary := decimal.Zero
	for _, c := range rfm {
		recency += c.Recency
		frequency += c.Frequency
		monetary = monetary.Add(c.Monetary)
	}
	n := float64(len(rfm))
	return models.RFMSummary{
		AvgRecency:   round(float64(recency)/n, 1),
		AvgFrequency: round(float64(frequency)/n, 2),
		AvgMonetary:  monetary.Div(decimal.NewFromInt(int64(len(rfm)))).Round(2),
	}
}

// TopRFM picks the best n customers on each RFM axis: the most recent, the
// most frequent and the highest spending.
func TopRFM(rfm []models.CustomerRFM, n int) models.RFMLeaders {
	byRecency := slices.Clone(rfm)
	slices.SortStableFunc(byRecency, func(a, b models.CustomerRFM) int {
		return a.Recency - b.Recency
	})
	byFrequency := slices.Clone(rfm)
	slices.SortStableFunc(byFrequency, func(a, b models.CustomerRFM) int {
		return b.Frequency - a.Frequency
	})
	byMonetary := slices.Clone(rfm)
	slices.SortStableFunc(byMonetary, func(a, b models.CustomerRFM) int {
		return b.Monetary.Cmp(a.Monetary)
	})

	return models.RFMLeaders{
		ByRecency:   head(byRecency, n),
		ByFrequency: head(byFrequency, n),
		ByMonetary:  head(byMonetary, n),
	}
}

// Extremes returns the n best and n worst products of a revenue ranking. The
// worst list runs from the lowest revenue upward.
func Extremes(ranking []models.ProductRevenue, n int) models.ProductExtremes {
	worst := slices.Clone(ranking)
	slices.Reverse(worst)
	return models.ProductExtremes{
		Best:  head(slices.Clone(ranking), n),
		Worst: head(worst, n),
	}
}

func head[T any](items []T, n int) []T {
	if n < 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
