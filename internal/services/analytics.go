package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ecommerce-dashboard/internal/dataset"
	apperrors "ecommerce-dashboard/internal/errors"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/pipeline"
)

// Options are the filter choices the loaded table offers.
type Options struct {
	MinDate      time.Time `json:"min_date"`
	MaxDate      time.Time `json:"max_date"`
	PaymentTypes []string  `json:"payment_types"`
	Categories   []string  `json:"categories"`
}

// Analytics owns the loaded transaction table. The table is swapped whole on
// reload; sessions keep the snapshot they were created with.
type Analytics struct {
	mu       sync.RWMutex
	table    *dataset.Table
	source   string
	loadedAt time.Time

	recomputes atomic.Int64
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewAnalytics(logger *slog.Logger, metrics *observability.Metrics) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		logger:  logger,
		metrics: metrics,
	}
}

// Load reads the whole table from src and replaces the current one. On
// failure the previous table stays in place.
func (a *Analytics) Load(ctx context.Context, src dataset.Source) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.Finish()

	name := describe(src)
	span.SetTag("source", name)

	start := time.Now()
	rows, err := src.Load(ctx)
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("load dataset: %w", err)
	}
	a.swap(rows, name)

	duration := time.Since(start)
	a.metrics.ObserveLoad(duration, len(rows))
	a.logger.InfoContext(ctx, "dataset loaded",
		"source", name,
		"records", len(rows),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(rows))/duration.Seconds()))
	return nil
}

// SetData installs rows directly, bypassing any source.
func (a *Analytics) SetData(rows []models.Transaction) {
	a.swap(rows, "memory")
}

func (a *Analytics) swap(rows []models.Transaction, source string) {
	table := dataset.NewTable(rows)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = table
	a.source = source
	a.loadedAt = time.Now()
}

// Table returns the current snapshot, or nil before the first load.
func (a *Analytics) Table() *dataset.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table
}

func (a *Analytics) Options() (Options, error) {
	table := a.Table()
	if table == nil {
		return Options{}, apperrors.DataUnloaded()
	}
	first, last, _ := table.Bounds()
	return Options{
		MinDate:      first,
		MaxDate:      last,
		PaymentTypes: table.PaymentTypes(),
		Categories:   table.Categories(),
	}, nil
}

// NewSession validates spec and clamps its dates to the loaded table.
func (a *Analytics) NewSession(spec models.FilterSpec) (*Session, error) {
	table := a.Table()
	if table == nil {
		return nil, apperrors.DataUnloaded()
	}
	if err := spec.CheckRange(); err != nil {
		return nil, apperrors.ValidationDetail(err, "invalid date range")
	}
	return &Session{
		table:     table,
		filter:    table.Clamp(spec),
		analytics: a,
	}, nil
}

func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	table, source, loadedAt := a.table, a.source, a.loadedAt
	a.mu.RUnlock()

	stats := map[string]any{
		"loaded":     table != nil,
		"recomputes": a.recomputes.Load(),
	}
	if table == nil {
		return stats
	}
	first, last, _ := table.Bounds()
	stats["record_count"] = table.Len()
	stats["source"] = source
	stats["loaded_at"] = loadedAt
	stats["min_date"] = first.Format(time.DateOnly)
	stats["max_date"] = last.Format(time.DateOnly)
	stats["payment_types"] = len(table.PaymentTypes())
	stats["categories"] = len(table.Categories())
	return stats
}

func describe(src dataset.Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

// Session is one filter applied to one table snapshot. It is created per
// interaction and never shared between requests.
type Session struct {
	table     *dataset.Table
	filter    models.FilterSpec
	analytics *Analytics
}

// Filter returns the clamped filter the session computes with.
func (s *Session) Filter() models.FilterSpec {
	return s.filter
}

// Views runs the pipeline over the session's snapshot.
func (s *Session) Views(ctx context.Context) (*pipeline.Views, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "pipeline.compute")
	defer span.Finish()

	start := time.Now()
	views, err := pipeline.Compute(s.table.Rows(), s.filter)
	duration := time.Since(start)

	a := s.analytics
	a.recomputes.Add(1)
	if err != nil {
		span.SetError(err)
		a.metrics.ObserveRecompute(duration, 0, err)
		return nil, err
	}
	a.metrics.ObserveRecompute(duration, views.RowCount, nil)
	span.SetTag("rows", strconv.Itoa(views.RowCount))

	a.logger.DebugContext(ctx, "views recomputed",
		"rows", views.RowCount,
		"duration", duration,
		"payment_type", s.filter.PaymentType,
		"categories", len(s.filter.Categories))
	return views, nil
}
