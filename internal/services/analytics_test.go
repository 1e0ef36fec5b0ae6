package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/dataset"
	apperrors "ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testData() []models.Transaction {
	score := 4.0
	return []models.Transaction{
		{
			OrderID:       "o1",
			CustomerID:    "c1",
			ProductID:     "p1",
			CustomerState: "SP",
			PaymentType:   "credit_card",
			Category:      "toys",
			PurchasedAt:   time.Date(2018, 1, 15, 10, 0, 0, 0, time.UTC),
			TotalPrice:    decimal.RequireFromString("99.90"),
			ReviewScore:   &score,
		},
		{
			OrderID:       "o2",
			CustomerID:    "c2",
			ProductID:     "p2",
			CustomerState: "RJ",
			PaymentType:   "boleto",
			Category:      "books",
			PurchasedAt:   time.Date(2018, 1, 20, 18, 0, 0, 0, time.UTC),
			TotalPrice:    decimal.RequireFromString("29.90"),
		},
	}
}

type stubSource struct {
	rows []models.Transaction
	err  error
}

func (s stubSource) Load(context.Context) ([]models.Transaction, error) {
	return s.rows, s.err
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(nil, nil)
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.Table() != nil {
		t.Error("table should be nil before the first load")
	}
}

func TestAnalytics_BeforeLoad(t *testing.T) {
	a := NewAnalytics(nil, nil)

	if _, err := a.NewSession(models.FilterSpec{}); !apperrors.HasCode(err, apperrors.CodeDataUnloaded) {
		t.Errorf("NewSession() error = %v, want %s", err, apperrors.CodeDataUnloaded)
	}
	if _, err := a.Options(); !apperrors.HasCode(err, apperrors.CodeDataUnloaded) {
		t.Errorf("Options() error = %v, want %s", err, apperrors.CodeDataUnloaded)
	}
	if stats := a.Stats(); stats["loaded"] != false {
		t.Errorf("Stats()[loaded] = %v, want false", stats["loaded"])
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())

	opts, err := a.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if want := time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC); !opts.MinDate.Equal(want) {
		t.Errorf("MinDate = %v, want %v", opts.MinDate, want)
	}
	if want := time.Date(2018, 1, 20, 0, 0, 0, 0, time.UTC); !opts.MaxDate.Equal(want) {
		t.Errorf("MaxDate = %v, want %v", opts.MaxDate, want)
	}
	if len(opts.PaymentTypes) != 2 || opts.PaymentTypes[0] != "boleto" {
		t.Errorf("PaymentTypes = %v", opts.PaymentTypes)
	}
	if len(opts.Categories) != 2 {
		t.Errorf("Categories = %v", opts.Categories)
	}

	stats := a.Stats()
	if stats["record_count"] != 2 {
		t.Errorf("Stats()[record_count] = %v, want 2", stats["record_count"])
	}
	if stats["source"] != "memory" {
		t.Errorf("Stats()[source] = %v, want memory", stats["source"])
	}
}

func TestAnalytics_Load(t *testing.T) {
	csv := `order_id,customer_id,product_id,customer_state,payment_type,product_category_name,order_purchase_timestamp,order_delivered_customer_date,total_price,review_score
o1,c1,p1,SP,credit_card,toys,2018-01-15 10:00:00,2018-01-20 10:00:00,99.90,5
o2,c2,p2,RJ,boleto,books,2018-01-16 11:00:00,,29.90,`

	path := createTempCSV(t, csv)
	metrics := observability.NewMetrics()
	a := NewAnalytics(nil, metrics)

	if err := a.Load(context.Background(), &dataset.CSVSource{Path: path}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := a.Table().Len(); got != 2 {
		t.Errorf("table has %d rows, want 2", got)
	}
	if got := a.Stats()["source"]; got != "csv:"+path {
		t.Errorf("source = %v", got)
	}
	want := `
# HELP dashboard_dataset_rows Rows in the currently loaded transaction table.
# TYPE dashboard_dataset_rows gauge
dashboard_dataset_rows 2
`
	if err := testutil.GatherAndCompare(metrics.Registry(), strings.NewReader(want), "dashboard_dataset_rows"); err != nil {
		t.Error(err)
	}
}

func TestAnalytics_LoadFailureKeepsPrevious(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())

	boom := errors.New("boom")
	err := a.Load(context.Background(), stubSource{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v, want wrapping %v", err, boom)
	}
	if a.Table() == nil || a.Table().Len() != 2 {
		t.Error("failed load must keep the previous table")
	}
}

func TestAnalytics_NewSession(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())

	tests := []struct {
		name     string
		spec     models.FilterSpec
		wantCode apperrors.ErrorCode
		wantRows int
	}{
		{
			name:     "unset dates cover the table",
			spec:     models.FilterSpec{},
			wantRows: 2,
		},
		{
			name:     "payment wildcard",
			spec:     models.FilterSpec{PaymentType: models.AllPaymentTypes},
			wantRows: 2,
		},
		{
			name:     "payment type",
			spec:     models.FilterSpec{PaymentType: "boleto"},
			wantRows: 1,
		},
		{
			name:     "category",
			spec:     models.FilterSpec{Categories: []string{"toys"}},
			wantRows: 1,
		},
		{
			name: "inverted range",
			spec: models.FilterSpec{
				StartDate: time.Date(2018, 1, 20, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC),
			},
			wantCode: apperrors.CodeValidation,
		},
		{
			name: "range after the data",
			spec: models.FilterSpec{
				StartDate: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2019, 2, 1, 0, 0, 0, 0, time.UTC),
			},
			wantRows: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := a.NewSession(tt.spec)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Errorf("NewSession() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSession() error = %v", err)
			}

			views, err := session.Views(context.Background())
			if err != nil {
				t.Fatalf("Views() error = %v", err)
			}
			if views.RowCount != tt.wantRows {
				t.Errorf("RowCount = %d, want %d", views.RowCount, tt.wantRows)
			}
			if tt.wantRows == 0 && len(views.Daily) != 0 {
				t.Errorf("empty filter should give empty daily series, got %d days", len(views.Daily))
			}
		})
	}
}

func TestSession_FilterIsClamped(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())

	session, err := a.NewSession(models.FilterSpec{StartDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatal(err)
	}
	f := session.Filter()
	if want := time.Date(2018, 1, 15, 0, 0, 0, 0, time.UTC); !f.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want %v", f.StartDate, want)
	}
	if want := time.Date(2018, 1, 20, 0, 0, 0, 0, time.UTC); !f.EndDate.Equal(want) {
		t.Errorf("EndDate = %v, want %v", f.EndDate, want)
	}
}

func TestSession_ViewsCanceled(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())
	session, err := a.NewSession(models.FilterSpec{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := session.Views(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Views() error = %v, want context.Canceled", err)
	}
}

func TestSession_KeepsSnapshot(t *testing.T) {
	a := NewAnalytics(nil, nil)
	a.SetData(testData())
	session, err := a.NewSession(models.FilterSpec{})
	if err != nil {
		t.Fatal(err)
	}

	a.SetData(testData()[:1])

	views, err := session.Views(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if views.RowCount != 2 {
		t.Errorf("session should see its original snapshot, got %d rows", views.RowCount)
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics(nil, observability.NewMetrics())
	a.SetData(testData())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%5 == 0 {
				a.SetData(testData())
				return
			}
			session, err := a.NewSession(models.FilterSpec{PaymentType: "credit_card"})
			if err != nil {
				errs <- err
				return
			}
			views, err := session.Views(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if views.RowCount != 1 {
				errs <- fmt.Errorf("got %d rows, want 1", views.RowCount)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func BenchmarkSession_Views(b *testing.B) {
	a := NewAnalytics(nil, nil)
	rows := make([]models.Transaction, 10000)
	start := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = models.Transaction{
			OrderID:       fmt.Sprintf("o%d", i/2),
			CustomerID:    fmt.Sprintf("c%d", i%700),
			ProductID:     fmt.Sprintf("p%d", i%300),
			CustomerState: fmt.Sprintf("S%d", i%27),
			PaymentType:   []string{"credit_card", "boleto", "voucher"}[i%3],
			Category:      fmt.Sprintf("cat%d", i%40),
			PurchasedAt:   start.Add(time.Duration(i) * 37 * time.Minute),
			TotalPrice:    decimal.NewFromInt(int64(i%500 + 1)),
		}
	}
	a.SetData(rows)
	session, err := a.NewSession(models.FilterSpec{PaymentType: "boleto"})
	if err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	for b.Loop() {
		if _, err := session.Views(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
