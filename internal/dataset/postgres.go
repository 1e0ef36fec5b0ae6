package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ecommerce-dashboard/internal/models"
)

// PostgresSource loads transactions from a table laid out like the flat
// file. The table must carry every column, optional ones included.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

func (s *PostgresSource) String() string {
	return "postgres:" + s.table
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx, selectQuery(s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}

	n := 0
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		n++
		var (
			tx    models.Transaction
			price string
		)
		err := row.Scan(
			&tx.OrderID,
			&tx.OrderItemID,
			&tx.CustomerID,
			&tx.ProductID,
			&tx.CustomerState,
			&tx.PaymentType,
			&tx.Category,
			&tx.CategoryEnglish,
			&tx.PurchasedAt,
			&tx.DeliveredAt,
			&price,
			&tx.ReviewScore,
			&tx.DeliveryDays,
		)
		if err != nil {
			return tx, fmt.Errorf("row %d: %w", n, err)
		}
		if tx.TotalPrice, err = decimal.NewFromString(price); err != nil {
			return tx, &RowError{Row: n, Field: colTotalPrice, Value: price, Err: err}
		}
		tx.PurchasedAt = tx.PurchasedAt.UTC()
		if tx.DeliveredAt != nil {
			delivered := tx.DeliveredAt.UTC()
			tx.DeliveredAt = &delivered
		}
		deriveDeliveryDays(&tx)
		return tx, validate(n, tx)
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.table, err)
	}
	if len(txs) == 0 {
		return nil, ErrNoRecords
	}
	return txs, nil
}

// selectQuery reads every column as the scan expects it. Text columns are
// coalesced so nulls arrive as empty strings; the price travels as text to
// keep it exact.
func selectQuery(table string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return fmt.Sprintf(`SELECT
	%[2]s::text,
	COALESCE(%[3]s::text, ''),
	%[4]s::text,
	%[5]s::text,
	COALESCE(%[6]s, ''),
	COALESCE(%[7]s, ''),
	COALESCE(%[8]s, ''),
	COALESCE(%[9]s, ''),
	%[10]s::timestamp,
	%[11]s::timestamp,
	%[12]s::text,
	%[13]s::float8,
	%[14]s::float8
FROM %[1]s`,
		ident,
		colOrderID, colOrderItemID, colCustomerID, colProductID,
		colCustomerState, colPaymentType, colCategory, colCategoryEnglish,
		colPurchasedAt, colDeliveredAt, colTotalPrice, colReviewScore, colDeliveryDays,
	)
}
