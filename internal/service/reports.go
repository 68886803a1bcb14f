package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthName returns the lower-case Spanish name of m.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

type MonthlyReport struct {
	Label string

	EventsCompleted  int
	EventsInProgress int
	EventsTotal      int
	Events           []repository.Event

	Income         decimal.Decimal
	EventExpenses  decimal.Decimal
	DirectExpenses decimal.Decimal
	TotalExpenses  decimal.Decimal
	Balance        decimal.Decimal

	ExpensesByCategory map[string]decimal.Decimal
	IncomeByAccount    map[string]decimal.Decimal
}

// monthFilter matches either the current calendar month or, when a name is
// given, any date whose Spanish month name contains it.
type monthFilter struct {
	query string
	year  int
	month time.Month
}

func newMonthFilter(query string, now time.Time) monthFilter {
	q := strings.TrimSpace(cases.Lower(language.Spanish).String(query))
	if q == "actual" {
		q = ""
	}
	return monthFilter{query: q, year: now.Year(), month: now.Month()}
}

func (f monthFilter) match(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if f.query == "" {
		return t.Year() == f.year && t.Month() == f.month
	}
	return strings.Contains(MonthName(t.Month()), f.query)
}

func (f monthFilter) label() string {
	title := cases.Title(language.Spanish)
	if f.query == "" {
		return fmt.Sprintf("%s %d", title.String(MonthName(f.month)), f.year)
	}
	return title.String(f.query)
}

// MonthlyReport aggregates the events created and the journal entries
// booked in one month. It never writes.
func (s *LedgerService) MonthlyReport(ctx context.Context, month string) (MonthlyReport, error) {
	now := s.now()
	filter := newMonthFilter(month, now)

	events, err := s.store.Events(ctx)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("read events: %w", err)
	}
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("read transactions: %w", err)
	}

	r := MonthlyReport{
		Label:              filter.label(),
		ExpensesByCategory: make(map[string]decimal.Decimal),
		IncomeByAccount:    make(map[string]decimal.Decimal),
	}

	for _, e := range events {
		if !filter.match(e.CreatedAt.In(now.Location())) {
			continue
		}
		r.Events = append(r.Events, e)
		switch e.Status {
		case repository.StatusCompleted:
			r.EventsCompleted++
		case repository.StatusInProgress:
			r.EventsInProgress++
		}
	}
	r.EventsTotal = len(r.Events)

	for _, tx := range txs {
		if !filter.match(tx.Date.In(now.Location())) {
			continue
		}
		switch tx.Type {
		case repository.TxIncome:
			r.Income = r.Income.Add(tx.Amount)
			r.IncomeByAccount[tx.Account] = r.IncomeByAccount[tx.Account].Add(tx.Amount)
		case repository.TxExpense:
			if tx.EventID != "" {
				r.EventExpenses = r.EventExpenses.Add(tx.Amount)
			} else {
				r.DirectExpenses = r.DirectExpenses.Add(tx.Amount)
			}
			category := tx.Category
			if category == "" {
				category = defaultCategory
			}
			r.ExpensesByCategory[category] = r.ExpensesByCategory[category].Add(tx.Amount)
		}
	}

	r.TotalExpenses = r.EventExpenses.Add(r.DirectExpenses)
	r.Balance = r.Income.Sub(r.TotalExpenses)
	return r, nil
}
