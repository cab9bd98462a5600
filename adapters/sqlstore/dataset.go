// Package sqlstore exposes a SQL table as a dataset.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"autodash/domain/dataset"
	"autodash/internal/errors"
	"autodash/internal/frame"
)

// Dataset reads one table through sqlx
type Dataset struct {
	db    *sqlx.DB
	table string

	mu   sync.Mutex
	cols []dataset.Column
}

// DriverFor picks the database/sql driver name for a DSN
func DriverFor(dsn string) (string, string, bool) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres", dsn, true
	case strings.HasPrefix(lower, "sqlite://"):
		return "sqlite", dsn[len("sqlite://"):], true
	case strings.HasPrefix(lower, "sqlite:"):
		return "sqlite", dsn[len("sqlite:"):], true
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite", dsn, true
	}
	return "", "", false
}

// Open connects to dsn and binds table. driver may be empty to infer it.
func Open(ctx context.Context, driver, dsn, table string) (*Dataset, error) {
	if driver == "" {
		d, conn, ok := DriverFor(dsn)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("cannot infer a SQL driver for %q", dsn))
		}
		driver, dsn = d, conn
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatasetError("failed to connect to database", err)
	}
	ds, err := New(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return ds, nil
}

// New binds an open connection to table
func New(db *sqlx.DB, table string) (*Dataset, error) {
	if !validTable(table) {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid table name %q", table))
	}
	return &Dataset{db: db, table: table}, nil
}

// validTable accepts any quotable name: one or two non-empty dot-separated
// parts without control characters.
func validTable(table string) bool {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" || strings.IndexFunc(p, unicode.IsControl) >= 0 {
			return false
		}
	}
	return true
}

// Close releases the connection
func (d *Dataset) Close() error {
	return d.db.Close()
}

// Columns implements ports.DatasetPort using the driver's column types.
// The description is read once and reused.
func (d *Dataset) Columns(ctx context.Context) ([]dataset.Column, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cols != nil {
		return append([]dataset.Column(nil), d.cols...), nil
	}
	cols, err := d.describe(ctx)
	if err != nil {
		return nil, err
	}
	d.cols = cols
	return append([]dataset.Column(nil), cols...), nil
}

func (d *Dataset) describe(ctx context.Context) ([]dataset.Column, error) {
	rows, err := d.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1=0", quoteTable(d.table)))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", d.table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	cols := make([]dataset.Column, len(types))
	for i, ct := range types {
		cols[i] = dataset.Column{Name: ct.Name(), Type: columnType(ct.DatabaseTypeName())}
	}
	return cols, nil
}

// Distinct implements ports.DatasetPort
func (d *Dataset) Distinct(ctx context.Context, column string) ([]dataset.Value, error) {
	cols, err := d.Columns(ctx)
	if err != nil {
		return nil, err
	}
	if !hasColumn(cols, column) {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown column %q in %s", column, d.table))
	}
	col := quoteIdent(column)
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1", col, quoteTable(d.table), col)

	rows, err := d.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []dataset.Value
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		if v := toValue(vals[0]); !v.IsNull() {
			out = append(out, v)
		}
	}
	return out, rows.Err()
}

// Load reads the whole table into a frame for view computation
func (d *Dataset) Load(ctx context.Context) (*frame.Frame, error) {
	cols, err := d.Columns(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := d.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteTable(d.table)))
	if err != nil {
		return nil, errors.DatasetError("failed to load "+d.table, err)
	}
	defer rows.Close()

	var data [][]dataset.Value
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, errors.DatasetError("failed to scan "+d.table, err)
		}
		row := make([]dataset.Value, len(vals))
		for i, v := range vals {
			row[i] = toValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatasetError("failed to load "+d.table, err)
	}
	return frame.New(cols, data)
}

func hasColumn(cols []dataset.Column, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}

func columnType(dbType string) dataset.ColumnType {
	t := strings.ToUpper(dbType)
	switch {
	case t == "":
		return dataset.ColumnOther
	case strings.Contains(t, "INT"), strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"), strings.Contains(t, "REAL"):
		return dataset.ColumnNumeric
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return dataset.ColumnDate
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"), t == "UUID":
		return dataset.ColumnString
	}
	return dataset.ColumnOther
}

func toValue(v interface{}) dataset.Value {
	switch x := v.(type) {
	case nil:
		return dataset.Null()
	case int64:
		return dataset.Int(x)
	case int32:
		return dataset.Int(int64(x))
	case int:
		return dataset.Int(int64(x))
	case float64:
		return dataset.Float(x)
	case float32:
		return dataset.Float(float64(x))
	case bool:
		return dataset.Bool(x)
	case time.Time:
		return dataset.Time(x)
	case []byte:
		return parseBytes(string(x))
	case string:
		return dataset.String(x)
	case sql.RawBytes:
		return parseBytes(string(x))
	}
	return dataset.String(fmt.Sprint(v))
}

// parseBytes handles drivers that return NUMERIC columns as text
func parseBytes(s string) dataset.Value {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return dataset.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return dataset.Float(f)
	}
	return dataset.String(s)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteTable(s string) string {
	parts := strings.Split(s, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
