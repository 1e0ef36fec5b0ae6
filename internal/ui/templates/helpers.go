// Package templates renders the dashboard page and the fragments patched
// into it over SSE.
package templates

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/pipeline"
	"ecommerce-dashboard/internal/services"
)

// filterSignalPattern limits the signals the browser sends back to the
// filter inputs; the view data it receives is never echoed.
const filterSignalPattern = `/^(startDate|endDate|paymentType|categories|view)$/`

func initialSignals(opts services.Options) (string, error) {
	b, err := json.Marshal(map[string]any{
		"startDate":   day(opts.MinDate),
		"endDate":     day(opts.MaxDate),
		"paymentType": models.AllPaymentTypes,
		"categories":  []string{},
		"view":        models.ViewOverview,
	})
	if err != nil {
		return "", fmt.Errorf("marshal signals: %w", err)
	}
	return string(b), nil
}

func fetch(path string) string {
	return fmt.Sprintf("@get('%s', {filterSignals: {include: %s}})", path, filterSignalPattern)
}

func selectView(kind models.ViewKind) string {
	return fmt.Sprintf("$view = '%s'; %s", kind, fetch("/sse/views"))
}

func viewActive(kind models.ViewKind) string {
	return fmt.Sprintf("$view == '%s'", kind)
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

type kpiItem struct {
	Label string
	Value string
}

// summaryKPIs picks the headline numbers shown for a view kind.
func summaryKPIs(v *pipeline.Views, kind models.ViewKind) []kpiItem {
	switch kind {
	case models.ViewSales:
		return []kpiItem{
			{"Total orders", strconv.Itoa(v.Sales.TotalOrders)},
			{"Total revenue", v.Sales.TotalRevenue.StringFixed(2)},
			{"Days", strconv.Itoa(len(v.Daily))},
		}
	case models.ViewCustomers:
		return []kpiItem{
			{"Customers", strconv.Itoa(len(v.RFM))},
			{"Avg recency (days)", strconv.FormatFloat(v.RFMSummary.AvgRecency, 'f', 1, 64)},
			{"Avg frequency", strconv.FormatFloat(v.RFMSummary.AvgFrequency, 'f', 2, 64)},
			{"Avg monetary", v.RFMSummary.AvgMonetary.StringFixed(2)},
			{"States", strconv.Itoa(len(v.Regions))},
		}
	case models.ViewProducts:
		items := []kpiItem{{"Products", strconv.Itoa(len(v.Products))}}
		if len(v.Extremes.Best) > 0 {
			best := v.Extremes.Best[0]
			items = append(items, kpiItem{"Best seller", best.ProductID + " (" + best.Revenue.StringFixed(2) + ")"})
		}
		if len(v.Categories) > 0 {
			items = append(items, kpiItem{"Top category", v.Categories[0].Category})
		}
		return items
	default:
		items := []kpiItem{
			{"Total orders", strconv.Itoa(v.Sales.TotalOrders)},
			{"Total revenue", v.Sales.TotalRevenue.StringFixed(2)},
		}
		if v.Reviews.Level == models.LevelNoReviews {
			return append(items, kpiItem{"Reviews", "none"})
		}
		return append(items, kpiItem{"Avg review",
			strconv.FormatFloat(v.Reviews.AverageScore, 'f', 2, 64) + " " + string(v.Reviews.Level)})
	}
}
