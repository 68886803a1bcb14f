package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,170.00", Money(decimal.NewFromInt(1170)))
	assert.Equal(t, "$0.50", Money(decimal.RequireFromString("0.5")))
	assert.Equal(t, "-$20.00", Money(decimal.NewFromInt(-20)))
}

func TestMonthlyPDF(t *testing.T) {
	r := service.MonthlyReport{
		Label:            "Marzo 2026",
		EventsCompleted:  1,
		EventsInProgress: 1,
		EventsTotal:      2,
		Events: []repository.Event{
			{ID: "E001", Name: "Boda María", Status: repository.StatusCompleted, Budget: decimal.NewFromInt(2000), PaidTotal: decimal.NewFromInt(2000)},
		},
		Income:         decimal.NewFromInt(2100),
		EventExpenses:  decimal.NewFromInt(200),
		DirectExpenses: decimal.NewFromInt(50),
		TotalExpenses:  decimal.NewFromInt(250),
		Balance:        decimal.NewFromInt(1850),
		ExpensesByCategory: map[string]decimal.Decimal{
			"gasto_evento": decimal.NewFromInt(200),
			"marketing":    decimal.NewFromInt(50),
		},
		IncomeByAccount: map[string]decimal.Decimal{
			repository.AccountPersonal: decimal.NewFromInt(1170),
			repository.AccountSavings:  decimal.NewFromInt(450),
		},
	}
	balances := []repository.AccountBalance{
		{Account: repository.AccountPersonal, Current: decimal.NewFromInt(1170)},
		{Account: repository.AccountCompany, Current: decimal.NewFromInt(-20), Pending: decimal.NewFromInt(300)},
	}

	out, err := MonthlyPDF(r, balances, time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestMonthlyPDFEmptyMonth(t *testing.T) {
	out, err := MonthlyPDF(service.MonthlyReport{Label: "Abril"}, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
