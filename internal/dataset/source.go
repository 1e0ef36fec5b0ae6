package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/models"
)

// Source yields the full transaction table. Implementations validate every
// row and fail the whole load on the first bad one.
type Source interface {
	Load(ctx context.Context) ([]models.Transaction, error)
}

// Open builds the source selected by cfg. The returned close func releases
// any connections and is never nil.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Source, func(), error) {
	switch cfg.Source {
	case config.SourcePostgres:
		src, err := NewPostgresSource(ctx, cfg.PostgresDSN, cfg.PostgresTable)
		if err != nil {
			return nil, func() {}, err
		}
		return src, src.Close, nil
	case config.SourceCSV, "":
		src := &CSVSource{Path: cfg.CSVFile, Logger: logger}
		if cfg.CacheEnabled {
			src.Cache = &Cache{Dir: cfg.CacheDir}
		}
		return src, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown data source %q", cfg.Source)
	}
}
