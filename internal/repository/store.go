package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/shopspring/decimal"
)

var (
	// ErrStoreUnavailable is returned when a backend call does not finish
	// within the configured timeout.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrRowNotFound      = errors.New("row not found")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrUnknownTable     = errors.New("unknown table")
)

// Backend is a grid of string cells per table. Read returns the header
// row first; index arguments count data rows from zero.
type Backend interface {
	EnsureTable(ctx context.Context, s Schema) error
	Read(ctx context.Context, s Schema) ([][]string, error)
	Update(ctx context.Context, s Schema, index int, values []string) error
	Append(ctx context.Context, s Schema, values []string) error
	Close() error
}

// RowRef locates a data row inside its table.
type RowRef struct {
	Index int
}

// Row is one data row keyed by header names.
type Row struct {
	Ref    RowRef
	values map[string]string
}

// String returns the cell or "" when the column is missing.
func (r Row) String(field string) string {
	return strings.TrimSpace(r.values[field])
}

// Decimal returns the cell as a number; blank or malformed cells read as 0.
func (r Row) Decimal(field string) decimal.Decimal {
	return parseDecimal(r.values[field])
}

// Time parses an ISO-8601 cell; the zero time is returned for blanks.
func (r Row) Time(field string) time.Time {
	raw := r.String(field)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		d, err = decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
		if err != nil {
			return decimal.Zero
		}
	}
	return d
}

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

// Store is the row-oriented ledger store. It never caches: every read goes
// to the backend so a write is visible to the next read.
type Store struct {
	backend Backend
	timeout time.Duration
	now     func() time.Time
}

func NewStore(backend Backend, timeout time.Duration) *Store {
	return &Store{backend: backend, timeout: timeout, now: time.Now}
}

// Init creates missing tables, writes headers and seeds the three account
// balances when the balances table is empty.
func (s *Store) Init(ctx context.Context) error {
	for _, schema := range Schemas {
		schema := schema
		if err := s.call(ctx, "ensure "+string(schema.Table), func(ctx context.Context) error {
			return s.backend.EnsureTable(ctx, schema)
		}); err != nil {
			return err
		}
	}

	rows, err := s.ListRows(ctx, TableBalances)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	now := formatTime(s.now())
	for _, account := range Accounts {
		if err := s.AppendRow(ctx, TableBalances, map[string]string{
			ColAccount:        account,
			ColBalanceCurrent: "0",
			ColBalancePending: "0",
			ColUpdatedAt:      now,
		}); err != nil {
			return fmt.Errorf("seed balance %s: %w", account, err)
		}
	}
	logger.Info("Seeded account balances", "accounts", strings.Join(Accounts, ","))
	return nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// ListRows returns every data row of t, mapped through the header row.
func (s *Store) ListRows(ctx context.Context, t Table) ([]Row, error) {
	schema, err := schemaOf(t)
	if err != nil {
		return nil, err
	}

	var grid [][]string
	if err := s.call(ctx, "read "+string(t), func(ctx context.Context) error {
		var err error
		grid, err = s.backend.Read(ctx, schema)
		return err
	}); err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}

	header := grid[0]
	rows := make([]Row, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		values := make(map[string]string, len(header))
		for col, name := range header {
			if col < len(cells) {
				values[name] = cells[col]
			} else {
				values[name] = ""
			}
		}
		rows = append(rows, Row{Ref: RowRef{Index: i}, values: values})
	}
	return rows, nil
}

// FindRow returns the first row whose key column equals key, or nil.
func (s *Store) FindRow(ctx context.Context, t Table, key string) (*Row, error) {
	schema, err := schemaOf(t)
	if err != nil {
		return nil, err
	}
	rows, err := s.ListRows(ctx, t)
	if err != nil {
		return nil, err
	}
	keyCol := schema.Columns[0]
	for i := range rows {
		if rows[i].String(keyCol) == key {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// UpdateRow overwrites the named fields of the row at ref and keeps the rest.
func (s *Store) UpdateRow(ctx context.Context, t Table, ref RowRef, fields map[string]string) error {
	schema, err := schemaOf(t)
	if err != nil {
		return err
	}

	var grid [][]string
	if err := s.call(ctx, "read "+string(t), func(ctx context.Context) error {
		var err error
		grid, err = s.backend.Read(ctx, schema)
		return err
	}); err != nil {
		return err
	}
	if len(grid) == 0 || ref.Index < 0 || ref.Index+1 >= len(grid) {
		return fmt.Errorf("update %s row %d: %w", t, ref.Index, ErrRowNotFound)
	}

	header := grid[0]
	values := make([]string, len(header))
	copy(values, grid[ref.Index+1])
	for name, v := range fields {
		col := indexOf(header, name)
		if col < 0 {
			return fmt.Errorf("update %s: %w %q", t, ErrUnknownColumn, name)
		}
		values[col] = v
	}

	return s.call(ctx, "update "+string(t), func(ctx context.Context) error {
		return s.backend.Update(ctx, schema, ref.Index, values)
	})
}

// AppendRow adds a row; columns missing from fields are written blank.
func (s *Store) AppendRow(ctx context.Context, t Table, fields map[string]string) error {
	schema, err := schemaOf(t)
	if err != nil {
		return err
	}
	values := make([]string, len(schema.Columns))
	for name, v := range fields {
		col := schema.columnIndex(name)
		if col < 0 {
			return fmt.Errorf("append %s: %w %q", t, ErrUnknownColumn, name)
		}
		values[col] = v
	}
	return s.call(ctx, "append "+string(t), func(ctx context.Context) error {
		return s.backend.Append(ctx, schema, values)
	})
}

func (s *Store) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func schemaOf(t Table) (Schema, error) {
	schema, ok := SchemaFor(t)
	if !ok {
		return Schema{}, fmt.Errorf("%w %q", ErrUnknownTable, t)
	}
	return schema, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}
