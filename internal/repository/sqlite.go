package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores each table as TEXT columns named after the header,
// plus a hidden row_id that keeps insertion order.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open DB: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return db, nil
}

func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

func (b *SQLiteBackend) EnsureTable(ctx context.Context, s Schema) error {
	defs := make([]string, 0, len(s.Columns)+1)
	defs = append(defs, "row_id INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, c := range s.Columns {
		defs = append(defs, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", quoteIdent(c)))
	}
	table := quoteIdent(string(s.Table))

	if _, err := b.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}

	existing, err := b.columns(ctx, s.Table)
	if err != nil {
		return err
	}
	for _, c := range s.Columns {
		if existing[c] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT ''", table, quoteIdent(c))
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", s.Table, c, err)
		}
	}

	index := quoteIdent(fmt.Sprintf("idx_%s_%s", s.Table, s.Columns[0]))
	if _, err := b.db.ExecContext(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", index, table, quoteIdent(s.Columns[0]))); err != nil {
		return fmt.Errorf("create index on %s: %w", s.Table, err)
	}
	return nil
}

func (b *SQLiteBackend) columns(ctx context.Context, t Table) (map[string]bool, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(string(t))))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", t, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (b *SQLiteBackend) Read(ctx context.Context, s Schema) ([][]string, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY row_id", selectList(s), quoteIdent(string(s.Table))))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.Table, err)
	}
	defer rows.Close()

	grid := [][]string{append([]string(nil), s.Columns...)}
	for rows.Next() {
		cells := make([]sql.NullString, len(s.Columns))
		dest := make([]interface{}, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.Table, err)
		}
		values := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				values[i] = c.String
			}
		}
		grid = append(grid, values)
	}
	return grid, rows.Err()
}

func (b *SQLiteBackend) Update(ctx context.Context, s Schema, index int, values []string) error {
	sets := make([]string, len(s.Columns))
	args := make([]interface{}, 0, len(s.Columns)+1)
	for i, c := range s.Columns {
		sets[i] = quoteIdent(c) + " = ?"
		args = append(args, cell(values, i))
	}
	args = append(args, index)

	table := quoteIdent(string(s.Table))
	res, err := b.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE row_id = (SELECT row_id FROM %s ORDER BY row_id LIMIT 1 OFFSET ?)",
			table, strings.Join(sets, ", "), table),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.Table, err)
	}
	if n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (b *SQLiteBackend) Append(ctx context.Context, s Schema, values []string) error {
	marks := make([]string, len(s.Columns))
	args := make([]interface{}, len(s.Columns))
	for i := range s.Columns {
		marks[i] = "?"
		args[i] = cell(values, i)
	}
	_, err := b.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(string(s.Table)), selectList(s), strings.Join(marks, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", s.Table, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func selectList(s Schema) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = quoteIdent(c)
	}
	return strings.Join(cols, ", ")
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func cell(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
