package service

import (
	"context"
	"testing"
	"time"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createWedding(t)
	_, err := f.svc.CreateEvent(ctx, NewEvent{Name: "XV Años", Budget: d("900")})
	require.NoError(t, err)
	_, err = f.svc.RegisterEventExpense(ctx, "E001", d("200"), "transporte", "edy")
	require.NoError(t, err)
	_, err = f.svc.RegisterFullPayment(ctx, "E001", d("1500"), "edy")
	require.NoError(t, err)
	_, err = f.svc.RegisterDeposit(ctx, "E002", d("300"), "edy")
	require.NoError(t, err)
	_, err = f.svc.RegisterDirectExpense(ctx, d("50"), "publicidad", "", "edy")
	require.NoError(t, err)

	// Booked last year in March: matched by name, not by the current month.
	require.NoError(t, f.store.AppendTransaction(ctx, repository.Transaction{
		ID: "T-old", Date: time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC),
		Type: repository.TxExpense, Account: repository.AccountCompany, Amount: d("10"), Category: "comida",
	}))

	r, err := f.svc.MonthlyReport(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Marzo 2026", r.Label)
	assert.Equal(t, 1, r.EventsCompleted)
	assert.Equal(t, 1, r.EventsInProgress)
	assert.Equal(t, 2, r.EventsTotal)
	assert.True(t, r.Income.Equal(d("2100")), "income %s", r.Income)
	assert.True(t, r.EventExpenses.Equal(d("200")))
	assert.True(t, r.DirectExpenses.Equal(d("50")))
	assert.True(t, r.TotalExpenses.Equal(d("250")))
	assert.True(t, r.Balance.Equal(d("1850")))
	assert.True(t, r.ExpensesByCategory["marketing"].Equal(d("50")))
	assert.True(t, r.IncomeByAccount[repository.AccountPersonal].Equal(d("1170")))
	assert.True(t, r.IncomeByAccount[repository.AccountCompany].Equal(d("480")))

	same, err := f.svc.MonthlyReport(ctx, "actual")
	require.NoError(t, err)
	assert.Equal(t, r.Label, same.Label)

	byName, err := f.svc.MonthlyReport(ctx, "MAR")
	require.NoError(t, err)
	assert.Equal(t, "Mar", byName.Label)
	assert.True(t, byName.DirectExpenses.Equal(d("60")))
	assert.True(t, byName.ExpensesByCategory["comida"].Equal(d("10")))

	empty, err := f.svc.MonthlyReport(ctx, "abril")
	require.NoError(t, err)
	assert.Zero(t, empty.EventsTotal)
	assert.True(t, empty.Income.IsZero())
	assert.Empty(t, empty.ExpensesByCategory)
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "enero", MonthName(time.January))
	assert.Equal(t, "septiembre", MonthName(time.September))
	assert.Equal(t, "diciembre", MonthName(time.December))
}
