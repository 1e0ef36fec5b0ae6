package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ordered line item. An order spans one row per item, so
// order-level counts must use distinct OrderID values.
type Transaction struct {
	OrderID         string
	OrderItemID     string
	CustomerID      string
	ProductID       string
	CustomerState   string
	PaymentType     string
	Category        string
	CategoryEnglish string
	PurchasedAt     time.Time
	DeliveredAt     *time.Time
	TotalPrice      decimal.Decimal
	ReviewScore     *float64
	DeliveryDays    *float64
}

// PurchaseDate is the calendar day of the purchase timestamp.
func (t Transaction) PurchaseDate() time.Time {
	return DateOf(t.PurchasedAt)
}

// DisplayCategory prefers the English category name when the dataset has one.
func (t Transaction) DisplayCategory() string {
	if t.CategoryEnglish != "" {
		return t.CategoryEnglish
	}
	return t.Category
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type DailyOrders struct {
	Date       time.Time       `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type ProductRevenue struct {
	ProductID string          `json:"product_id"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type RegionCustomers struct {
	CustomerState string `json:"customer_state"`
	CustomerCount int    `json:"customer_count"`
}

type CustomerRFM struct {
	CustomerID string          `json:"customer_id"`
	Recency    int             `json:"recency"`
	Frequency  int             `json:"frequency"`
	Monetary   decimal.Decimal `json:"monetary"`
}

type RegionDelivery struct {
	CustomerState   string  `json:"customer_state"`
	AvgDeliveryDays float64 `json:"avg_delivery_days"`
}

type PaymentShare struct {
	PaymentType string  `json:"payment_type"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
}

type CategorySales struct {
	Category   string `json:"category"`
	SalesCount int    `json:"sales_count"`
}

type PerformanceLevel string

const (
	LevelGreat     PerformanceLevel = "Great"
	LevelGood      PerformanceLevel = "Good"
	LevelAverage   PerformanceLevel = "Average"
	LevelBad       PerformanceLevel = "Bad"
	LevelNoReviews PerformanceLevel = ""
)

type ReviewSummary struct {
	AverageScore float64          `json:"average_score"`
	Reviewed     int              `json:"reviewed"`
	Level        PerformanceLevel `json:"level"`
}

type SalesSummary struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type RFMSummary struct {
	AvgRecency   float64         `json:"avg_recency"`
	AvgFrequency float64         `json:"avg_frequency"`
	AvgMonetary  decimal.Decimal `json:"avg_monetary"`
}

type RFMLeaders struct {
	ByRecency   []CustomerRFM `json:"by_recency"`
	ByFrequency []CustomerRFM `json:"by_frequency"`
	ByMonetary  []CustomerRFM `json:"by_monetary"`
}

type ProductExtremes struct {
	Best  []ProductRevenue `json:"best"`
	Worst []ProductRevenue `json:"worst"`
}
