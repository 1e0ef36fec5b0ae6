package pipeline

import (
	"ecommerce-dashboard/internal/models"
)

// LeaderboardSize is how many customers or products the leaderboards keep.
const LeaderboardSize = 5

// Views is every derived view for one filter. The pipeline computes all of
// them regardless of which panel the user is looking at.
type Views struct {
	Filter   models.FilterSpec `json:"filter"`
	RowCount int               `json:"row_count"`

	Daily    []models.DailyOrders     `json:"daily_orders"`
	Products []models.ProductRevenue  `json:"product_revenue"`
	Regions  []models.RegionCustomers `json:"region_customers"`
	RFM      []models.CustomerRFM     `json:"rfm"`

	Sales      models.SalesSummary     `json:"sales_summary"`
	Delivery   []models.RegionDelivery `json:"delivery_by_region"`
	Payments   []models.PaymentShare   `json:"payment_mix"`
	Categories []models.CategorySales  `json:"category_sales"`
	Reviews    models.ReviewSummary    `json:"reviews"`
	RFMSummary models.RFMSummary       `json:"rfm_summary"`
	RFMLeaders models.RFMLeaders       `json:"rfm_leaders"`
	Extremes   models.ProductExtremes  `json:"product_extremes"`
}

// Compute filters rows and runs every aggregation over the result.
func Compute(rows []models.Transaction, spec models.FilterSpec) (*Views, error) {
	filtered, err := ApplyFilter(rows, spec)
	if err != nil {
		return nil, err
	}

	v := &Views{
		Filter:   spec,
		RowCount: len(filtered),
		Daily:    DailyOrders(filtered),
		Products: ProductRevenue(filtered),
		Regions:  RegionCustomerCounts(filtered),
		RFM:      RFM(filtered),

		Delivery:   DeliveryByRegion(filtered),
		Payments:   PaymentMix(filtered),
		Categories: CategorySales(filtered),
		Reviews:    Reviews(filtered),
	}
	v.Sales = Summarize(v.Daily)
	v.RFMSummary = SummarizeRFM(v.RFM)
	v.RFMLeaders = TopRFM(v.RFM, LeaderboardSize)
	v.Extremes = Extremes(v.Products, LeaderboardSize)
	return v, nil
}

// For returns the slice of views a panel group needs, keyed by the signal
// names the dashboard binds to.
func (v *Views) For(kind models.ViewKind) map[string]any {
	switch kind {
	case models.ViewSales:
		return map[string]any{
			"dailyOrders":  v.Daily,
			"salesSummary": v.Sales,
			"delivery":     v.Delivery,
		}
	case models.ViewCustomers:
		return map[string]any{
			"regions":    v.Regions,
			"rfmSummary": v.RFMSummary,
			"rfmLeaders": v.RFMLeaders,
			"paymentMix": v.Payments,
		}
	case models.ViewProducts:
		return map[string]any{
			"productExtremes": v.Extremes,
			"categorySales":   v.Categories,
		}
	default:
		return map[string]any{
			"reviews":  v.Reviews,
			"rowCount": v.RowCount,
		}
	}
}

// All returns every view keyed by signal name.
func (v *Views) All() map[string]any {
	all := make(map[string]any)
	for _, kind := range models.ViewKinds {
		for k, val := range v.For(kind) {
			all[k] = val
		}
	}
	return all
}
