package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump(t *testing.T) {
	ctx := context.Background()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	store := repository.NewStore(repository.NewSQLiteBackend(db), time.Second)
	defer store.Close()
	require.NoError(t, store.Init(ctx))

	svc := service.NewService(store)
	_, err = svc.CreateEvent(ctx, service.NewEvent{Name: "Boda", Budget: decimal.NewFromInt(1000), InitialDeposit: decimal.NewFromInt(200)})
	require.NoError(t, err)
	_, err = svc.RegisterDirectExpense(ctx, decimal.NewFromInt(30), "gasolina", "", "edy")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, dump(ctx, &out, store, 0))
	s := out.String()
	assert.Contains(t, s, "DJ EDY")
	assert.Contains(t, s, "E001")
	assert.Contains(t, s, "$1,000.00")
	assert.Contains(t, s, "transporte")
	assert.Contains(t, s, "DIARIO (1)")
}
