package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTripThroughStore(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

	require.NoError(t, store.AppendEvent(ctx, Event{
		ID:             "E001",
		Name:           "Boda María",
		Budget:         decimal.NewFromInt(2000),
		InitialDeposit: decimal.NewFromInt(500),
		PaidTotal:      decimal.NewFromInt(500),
		Pending:        decimal.NewFromInt(1500),
		Status:         StatusInProgress,
		EventDate:      "21-03-2026",
		CreatedAt:      created,
	}))

	e, err := store.EventByID(ctx, "E001")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Boda María", e.Name)
	assert.True(t, e.Pending.Equal(decimal.NewFromInt(1500)))
	assert.True(t, e.CreatedAt.Equal(created))
	assert.False(t, e.Completed())

	e.ExpensesTotal = decimal.NewFromInt(200)
	e.Name = "ignored"
	require.NoError(t, store.UpdateEvent(ctx, *e, ColExpenses))

	e, err = store.EventByID(ctx, "E001")
	require.NoError(t, err)
	assert.Equal(t, "Boda María", e.Name)
	assert.Equal(t, "1800", e.Net().String())
}

func TestUpdateEventUnknownColumn(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.UpdateEvent(context.Background(), Event{ID: "E001"}, "color")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPaymentSplitFlag(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPayment(ctx, EventPayment{ID: "P1", EventID: "E001", Type: PaymentDeposit, Amount: decimal.NewFromInt(500)}))
	require.NoError(t, store.AppendPayment(ctx, EventPayment{ID: "P2", EventID: "E002", Type: PaymentDeposit, Amount: decimal.NewFromInt(10)}))
	require.NoError(t, store.AppendPayment(ctx, EventPayment{
		ID: "P3", EventID: "E001", Type: PaymentFinal, Amount: decimal.NewFromInt(1500),
		SplitDone: true, SplitPersonal: decimal.NewFromInt(1170),
	}))

	grid, err := mem.Read(ctx, Schemas[1])
	require.NoError(t, err)
	assert.Equal(t, "NO", grid[1][5])
	assert.Equal(t, "SÍ", grid[3][5])

	payments, err := store.PaymentsByEvent(ctx, "E001")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.False(t, payments[0].SplitDone)
	assert.True(t, payments[1].SplitDone)
	assert.Equal(t, PaymentFinal, payments[1].Type)
}

func TestConversationStateUpsert(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()

	st, err := store.ConversationState(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, st)

	require.NoError(t, store.SaveConversationState(ctx, ConversationState{
		ChatID:   42,
		Step:     "nuevoevento_cliente",
		Metadata: map[string]string{"nombre": "Boda"},
	}))
	require.NoError(t, store.SaveConversationState(ctx, ConversationState{
		ChatID:   42,
		Step:     "nuevoevento_presupuesto",
		Metadata: map[string]string{"nombre": "Boda", "cliente": "Ana"},
	}))

	rows, err := store.ListRows(ctx, TableState)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	st, err = store.ConversationState(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "nuevoevento_presupuesto", st.Step)
	assert.Equal(t, "Ana", st.Metadata["cliente"])
	assert.False(t, st.Timestamp.IsZero())

	mem.SetCell(TableState, 0, ColMetadata, "{not json")
	st, err = store.ConversationState(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, st.Metadata)
}

func TestTransactionsInOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"T1", "T2", "T3"} {
		require.NoError(t, store.AppendTransaction(ctx, Transaction{ID: id, Type: TxIncome, Account: AccountCompany, Amount: decimal.NewFromInt(1)}))
	}
	txs, err := store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "T3", txs[2].ID)
	assert.Equal(t, TxIncome, txs[0].Type)
}
