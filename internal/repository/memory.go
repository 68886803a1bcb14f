package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps every table in process memory. It backs tests and
// STORE_BACKEND=memory for local runs.
type MemoryBackend struct {
	mu     sync.RWMutex
	tables map[Table][][]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{tables: make(map[Table][][]string)}
}

func (m *MemoryBackend) EnsureTable(ctx context.Context, s Schema) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	header := append([]string(nil), s.Columns...)
	grid, ok := m.tables[s.Table]
	if !ok || len(grid) == 0 {
		m.tables[s.Table] = [][]string{header}
		return nil
	}
	grid[0] = header
	return nil
}

func (m *MemoryBackend) Read(ctx context.Context, s Schema) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	grid, ok := m.tables[s.Table]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", s.Table, ErrUnknownTable)
	}
	out := make([][]string, len(grid))
	for i, row := range grid {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (m *MemoryBackend) Update(ctx context.Context, s Schema, index int, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	grid, ok := m.tables[s.Table]
	if !ok {
		return fmt.Errorf("table %s: %w", s.Table, ErrUnknownTable)
	}
	if index < 0 || index+1 >= len(grid) {
		return ErrRowNotFound
	}
	grid[index+1] = append([]string(nil), values...)
	return nil
}

func (m *MemoryBackend) Append(ctx context.Context, s Schema, values []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	grid, ok := m.tables[s.Table]
	if !ok {
		return fmt.Errorf("table %s: %w", s.Table, ErrUnknownTable)
	}
	m.tables[s.Table] = append(grid, append([]string(nil), values...))
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// SetCell overwrites a raw cell; tests use it to simulate hand-edited sheets.
func (m *MemoryBackend) SetCell(t Table, index int, column, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grid := m.tables[t]
	col := indexOf(grid[0], column)
	row := grid[index+1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	grid[index+1] = row
}
