// Package postgres loads datasets from PostgreSQL query results.
//
// The first result column holds the row keys; every other column becomes a
// data column labelled with its field name:
//
//	q := &postgres.Query{
//	    DSN: "postgres://localhost/finance",
//	    SQL: "SELECT year, revenue, cogs FROM pnl ORDER BY year",
//	}
//	data, err := q.Load(ctx)
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/source"
)

// DefaultTimeout bounds connect plus query when Query.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// MaxRows caps the result size; editing sessions are meant for small
// tables.
const MaxRows = 10_000

// Query is a SQL query whose result set becomes a dataset.
type Query struct {
	DSN       string
	SQL       string
	Args      []any
	KeyColumn string
	Palette   []string
	Timeout   time.Duration
}

var _ source.Source = (*Query)(nil)

// Name returns a display-safe description without credentials.
func (q *Query) Name() string {
	cfg, err := pgconn.ParseConfig(q.DSN)
	if err != nil {
		return "postgres"
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}

// Key hashes the DSN, SQL and args. The result of a query can change
// between loads; callers control staleness through the cache TTL.
func (q *Query) Key(_ context.Context, k cache.Keyer) (string, error) {
	if err := errors.ValidateDSN(q.DSN); err != nil {
		return "", err
	}
	return k.QueryKey(q.DSN, fmt.Sprintf("%s %v", q.SQL, q.Args), cache.DatasetKeyOpts{KeyColumn: q.KeyColumn}), nil
}

// Load connects, runs the query and converts the result.
func (q *Query) Load(ctx context.Context) (dataset.Data, error) {
	if err := errors.ValidateDSN(q.DSN); err != nil {
		return dataset.Data{}, err
	}
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, q.DSN)
	if err != nil {
		return dataset.Data{}, cache.Retryable(errors.Wrap(errors.ErrCodeSource, err, "connect %s", q.Name()))
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return dataset.Data{}, errors.Wrap(errors.ErrCodeSource, err, "query")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) == 0 {
		return dataset.Data{}, errors.New(errors.ErrCodeInvalidDataset, "query returned no columns")
	}
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}

	var records [][]dataset.Value
	for rows.Next() {
		if len(records) == MaxRows {
			return dataset.Data{}, errors.New(errors.ErrCodeInvalidDataset, "query returned more than %d rows", MaxRows)
		}
		vals, err := rows.Values()
		if err != nil {
			return dataset.Data{}, errors.Wrap(errors.ErrCodeSource, err, "scan row %d", len(records)+1)
		}
		records = append(records, Convert(vals))
	}
	if err := rows.Err(); err != nil {
		return dataset.Data{}, errors.Wrap(errors.ErrCodeSource, err, "read rows")
	}
	return pio.FromRecords(header, records, pio.TableOptions{KeyColumn: q.KeyColumn, Palette: q.Palette})
}

// Convert maps driver values to dataset values. NULL becomes empty text,
// timestamps are rendered as RFC 3339 dates, numerics go through their
// float64 value.
func Convert(vals []any) []dataset.Value {
	out := make([]dataset.Value, len(vals))
	for i, v := range vals {
		switch t := v.(type) {
		case time.Time:
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
				out[i] = dataset.Text(t.Format(time.DateOnly))
			} else {
				out[i] = dataset.Text(t.Format(time.RFC3339))
			}
		case pgtype.Numeric:
			f, err := t.Float64Value()
			if err != nil || !f.Valid {
				out[i] = dataset.Text("")
			} else {
				out[i] = dataset.Number(f.Float64)
			}
		default:
			out[i] = dataset.FromAny(v)
		}
	}
	return out
}
