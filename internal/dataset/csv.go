package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/errgroup"

	"ecommerce-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// CSVSource loads transactions from a flat file. When Cache is set, a
// snapshot of the parsed rows is reused until the file changes.
type CSVSource struct {
	Path   string
	Cache  *Cache
	Logger *slog.Logger
}

func (s *CSVSource) String() string {
	return "csv:" + s.Path
}

func (s *CSVSource) Load(ctx context.Context) ([]models.Transaction, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.Cache != nil {
		rows, err := s.Cache.Load(s.Path)
		switch {
		case err == nil:
			logger.Info("loaded from cache", "path", s.Path, "records", len(rows))
			return rows, nil
		case !errors.Is(err, ErrCacheMiss):
			logger.Warn("failed to read cache", "path", s.Path, "error", err)
		}
	}

	start := time.Now()
	logger.Info("processing CSV file", "path", s.Path)

	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	rows, err := ReadCSV(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("process csv %s: %w", s.Path, err)
	}

	duration := time.Since(start)
	logger.Info("csv processing complete",
		"records", len(rows),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(rows))/duration.Seconds()))

	if s.Cache != nil {
		if err := s.Cache.Save(s.Path, rows); err != nil {
			logger.Warn("failed to save cache", "error", err)
		}
	}
	return rows, nil
}

// ReadCSV parses a headered CSV stream into validated transactions, in file
// order.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Transaction, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return nil, ErrNoRecords
		}
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, ErrNoRecords
	}

	cols, err := resolveColumns(df)
	if err != nil {
		return nil, err
	}
	return convert(ctx, cols, df.Nrow())
}

// columnData holds the raw cells of each known column present in the file.
type columnData map[string][]string

func (c columnData) row(i int) rawRecord {
	return func(column string) string {
		cells, ok := c[column]
		if !ok {
			return ""
		}
		return cells[i]
	}
}

func resolveColumns(df dataframe.DataFrame) (columnData, error) {
	byName := make(map[string]string)
	for _, name := range df.Names() {
		byName[strings.TrimSpace(name)] = name
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := byName[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	cols := make(columnData)
	for _, col := range slices.Concat(requiredColumns, optionalColumns) {
		if name, ok := byName[col]; ok {
			cols[col] = df.Col(name).Records()
		}
	}
	return cols, nil
}

// convert types every row in parallel batches. Each worker writes only its
// own indexes, so the output keeps file order.
func convert(ctx context.Context, cols columnData, n int) ([]models.Transaction, error) {
	out := make([]models.Transaction, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1000 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				tx, err := parseRecord(i+1, cols.row(i))
				if err != nil {
					return err
				}
				out[i] = tx
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
