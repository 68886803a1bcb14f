package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventWithDeposit(t *testing.T) {
	f := newFixture(t)
	e := f.createWedding(t)

	assert.Equal(t, "E001", e.ID)
	assert.True(t, e.PaidTotal.Equal(d("500")))
	assert.True(t, e.Pending.Equal(d("1500")))
	assert.Equal(t, repository.StatusInProgress, e.Status)
	assert.True(t, e.ExpensesTotal.IsZero())

	stored := f.event(t, "E001")
	assert.True(t, stored.Pending.Equal(d("1500")))
	assert.Equal(t, "21-03-2026", stored.EventDate)

	payments, err := f.store.PaymentsByEvent(context.Background(), "E001")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, repository.PaymentDeposit, payments[0].Type)
	assert.False(t, payments[0].SplitDone)

	b := f.balance(t, repository.AccountCompany)
	assert.True(t, b.Pending.Equal(d("500")))
	assert.True(t, b.Current.IsZero())
}

func TestCreateEventWithoutDepositWritesOnlyTheEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateEvent(context.Background(), NewEvent{Name: "XV Años", Budget: d("900")})
	require.NoError(t, err)
	assert.Equal(t, 1, f.backend.count())
}

func TestCreateEventValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    NewEvent
		field string
	}{
		{"missing name", NewEvent{Name: "  ", Budget: d("100")}, "nombre"},
		{"zero budget", NewEvent{Name: "x", Budget: decimal.Zero}, "presupuesto_total"},
		{"negative deposit", NewEvent{Name: "x", Budget: d("100"), InitialDeposit: d("-1")}, "deposito_inicial"},
		{"deposit above budget", NewEvent{Name: "x", Budget: d("2000"), InitialDeposit: d("2500")}, "deposito_inicial"},
		{"bad date", NewEvent{Name: "x", Budget: d("100"), EventDate: "2026-03-21"}, "fecha_evento"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.CreateEvent(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, f.backend.count())
		})
	}
}

func TestEventIDsFollowHighestSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateEvent(ctx, NewEvent{Name: fmt.Sprintf("e%d", i), Budget: d("100")})
		require.NoError(t, err)
	}
	// A hand-edited sheet may leave a hole or a larger id.
	f.backend.SetCell(repository.TableEvents, 1, repository.ColID, "E010")

	e, err := f.svc.CreateEvent(ctx, NewEvent{Name: "next", Budget: d("100")})
	require.NoError(t, err)
	assert.Equal(t, "E011", e.ID)
}

func TestConcurrentCreateEventUniqueIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.svc.CreateEvent(ctx, NewEvent{Name: fmt.Sprintf("e%d", i), Budget: d("100")})
			if assert.NoError(t, err) {
				ids <- e.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 10)
}

func TestDepositsKeepPendingDerived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)

	for _, amt := range []string{"100.10", "250", "0.33", "99.57"} {
		res, err := f.svc.RegisterDeposit(ctx, "e001", d(amt), "edy")
		require.NoError(t, err)
		assert.True(t, res.Pending.Equal(res.Budget.Sub(res.PaidTotal)))

		stored := f.event(t, "E001")
		assert.True(t, stored.Pending.Equal(stored.Budget.Sub(stored.PaidTotal)))
	}

	stored := f.event(t, "E001")
	assert.True(t, stored.PaidTotal.Equal(d("950")))
	assert.True(t, stored.Pending.Equal(d("1050")))
	assert.Equal(t, repository.StatusInProgress, stored.Status)
	assert.True(t, f.balance(t, repository.AccountCompany).Pending.Equal(d("950")))
}

func TestDepositIsNotIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)

	_, err := f.svc.RegisterDeposit(ctx, "E001", d("200"), "edy")
	require.NoError(t, err)
	_, err = f.svc.RegisterDeposit(ctx, "E001", d("200"), "edy")
	require.NoError(t, err)

	assert.True(t, f.event(t, "E001").PaidTotal.Equal(d("900")))

	txs, err := f.store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Depósito evento E001: Boda María", txs[0].Description)
	assert.Equal(t, CategoryDeposit, txs[0].Category)
	assert.Equal(t, repository.TxIncome, txs[0].Type)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestDepositUnknownEventWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.createWedding(t)
	f.backend.reset(0)

	_, err := f.svc.RegisterDeposit(context.Background(), "E999", d("100"), "edy")
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.Zero(t, f.backend.count())
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)
	f.backend.reset(0)

	_, err := f.svc.RegisterDeposit(ctx, "E001", decimal.Zero, "edy")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.RegisterEventExpense(ctx, "E001", d("-5"), "x", "edy")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.RegisterDirectExpense(ctx, decimal.Zero, "x", "", "edy")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.RegisterFullPayment(ctx, "E001", d("-1500"), "edy")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.backend.count())
}

func TestEventExpensesAccumulate(t *testing.T) {
	amounts := []string{"200", "35.50", "14.50", "50"}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}}

	for _, order := range orders {
		f := newFixture(t)
		ctx := context.Background()
		f.createWedding(t)

		var last ExpenseResult
		for _, i := range order {
			var err error
			last, err = f.svc.RegisterEventExpense(ctx, "E001", d(amounts[i]), "gasolina", "edy")
			require.NoError(t, err)
		}

		assert.True(t, last.ExpensesTotal.Equal(d("300")))
		assert.True(t, last.NetRemaining.Equal(d("1700")))
		assert.True(t, f.event(t, "E001").ExpensesTotal.Equal(d("300")))
		assert.True(t, f.balance(t, repository.AccountCompany).Current.Equal(d("-300")))
	}
}

func TestEventExpenseJournalEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)

	res, err := f.svc.RegisterEventExpense(ctx, "E001", d("200"), "transporte", "edy")
	require.NoError(t, err)
	assert.Equal(t, "Boda María", res.EventName)
	assert.True(t, res.ExpensesTotal.Equal(d("200")))

	b := f.balance(t, repository.AccountCompany)
	assert.True(t, b.Current.Equal(d("-200")))
	assert.True(t, b.Pending.Equal(d("500")))

	expenses, err := f.svc.EventExpenses(ctx, "E001")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "[E001] transporte", expenses[0].Description)
	assert.Equal(t, CategoryEventExpense, expenses[0].Category)
	assert.Equal(t, "E001", expenses[0].EventID)

	_, err = f.svc.EventExpenses(ctx, "E404")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventExpensesLowercaseID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)

	_, err := f.svc.RegisterEventExpense(ctx, "e001", d("120"), "cables", "edy")
	require.NoError(t, err)

	for _, id := range []string{"E001", "e001", " e001 "} {
		expenses, err := f.svc.EventExpenses(ctx, id)
		require.NoError(t, err)
		assert.Len(t, expenses, 1, "id %q", id)
	}
}

func TestFullPaymentScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)

	_, err := f.svc.RegisterEventExpense(ctx, "E001", d("200"), "transporte", "edy")
	require.NoError(t, err)

	res, err := f.svc.RegisterFullPayment(ctx, "E001", d("1500"), "edy")
	require.NoError(t, err)
	assert.True(t, res.Net.Equal(d("1800")))
	assert.True(t, res.Split.Personal.Equal(d("1170")))
	assert.True(t, res.Split.Savings.Equal(d("450")))
	assert.True(t, res.Split.Company.Equal(d("180")))

	e := f.event(t, "E001")
	assert.Equal(t, repository.StatusCompleted, e.Status)
	assert.True(t, e.Pending.IsZero())
	assert.True(t, e.PaidTotal.Equal(d("2000")))

	company := f.balance(t, repository.AccountCompany)
	assert.True(t, company.Pending.IsZero(), "pending %s", company.Pending)
	assert.True(t, company.Current.Equal(d("-20")), "current %s", company.Current)
	assert.True(t, f.balance(t, repository.AccountPersonal).Current.Equal(d("1170")))
	assert.True(t, f.balance(t, repository.AccountSavings).Current.Equal(d("450")))

	payments, err := f.store.PaymentsByEvent(ctx, "E001")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	final := payments[1]
	assert.Equal(t, repository.PaymentFinal, final.Type)
	assert.True(t, final.SplitDone)
	assert.True(t, final.SplitPersonal.Equal(d("1170")))

	txs, err := f.store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 4)
	assert.Equal(t, "Pago evento E001: Boda María (65%)", txs[1].Description)
	assert.Equal(t, repository.AccountPersonal, txs[1].Account)
	assert.Equal(t, CategoryEventSavings, txs[2].Category)
	assert.Equal(t, "Fondo evento E001: Boda María (10%)", txs[3].Description)
}

func TestCompletedEventIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)
	_, err := f.svc.RegisterFullPayment(ctx, "E001", d("1500"), "edy")
	require.NoError(t, err)
	f.backend.reset(0)

	_, err = f.svc.RegisterDeposit(ctx, "E001", d("10"), "edy")
	assert.ErrorIs(t, err, ErrEventCompleted)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.RegisterEventExpense(ctx, "E001", d("10"), "cena", "edy")
	assert.ErrorIs(t, err, ErrEventCompleted)
	_, err = f.svc.RegisterFullPayment(ctx, "E001", d("10"), "edy")
	assert.ErrorIs(t, err, ErrEventCompleted)

	assert.Zero(t, f.backend.count())
	assert.Equal(t, repository.StatusCompleted, f.event(t, "E001").Status)
}

func TestSplitAlwaysSumsToNet(t *testing.T) {
	for _, raw := range []string{"0", "0.01", "0.03", "1", "99.99", "1800", "1234.57", "333.33", "7"} {
		net := d(raw)
		s := ComputeSplit(net)
		assert.True(t, s.Total().Equal(net), "net %s split %s+%s+%s", raw, s.Personal, s.Savings, s.Company)
		assert.False(t, s.Company.IsNegative(), "net %s", raw)
	}
}

func TestDirectExpenseCategories(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.RegisterDirectExpense(ctx, d("80"), "Gasolina para la camioneta", "", "edy")
	require.NoError(t, err)
	assert.Equal(t, "transporte", res.Category)

	res, err = f.svc.RegisterDirectExpense(ctx, d("20"), "cena", "eventos", "edy")
	require.NoError(t, err)
	assert.Equal(t, "eventos", res.Category)

	txs, err := f.store.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "[GENERAL] Gasolina para la camioneta", txs[0].Description)
	assert.Empty(t, txs[0].EventID)
	assert.True(t, f.balance(t, repository.AccountCompany).Current.Equal(d("-100")))
}

func TestClassifyExpense(t *testing.T) {
	cases := map[string]string{
		"Publicidad en Instagram": "marketing",
		"compra de cables":        "equipo",
		"promo con equipo nuevo":  "marketing",
		"Almuerzo del staff":      "comida",
		"renta del local":         "alquiler",
		"transporte de bocinas":   "transporte",
		"regalo para el cliente":  CategoryGeneralExpense,
		"":                        CategoryGeneralExpense,
	}
	for desc, want := range cases {
		assert.Equal(t, want, ClassifyExpense(desc), desc)
	}
}

func TestPartialWriteIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createWedding(t)
	f.backend.reset(3)

	_, err := f.svc.RegisterFullPayment(ctx, "E001", d("1500"), "edy")
	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)

	var pw *PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, "register_full_payment", pw.Op)
	assert.Equal(t, "transaction_personal", pw.Step)
	assert.Equal(t, []string{"append_payment", "update_event"}, pw.Committed)
}

func TestFirstStepFailureIsNotPartial(t *testing.T) {
	f := newFixture(t)
	f.createWedding(t)
	f.backend.reset(1)

	_, err := f.svc.RegisterDeposit(context.Background(), "E001", d("100"), "edy")
	require.ErrorIs(t, err, errInjected)

	var pw *PartialWriteError
	assert.False(t, errors.As(err, &pw))
	assert.True(t, f.event(t, "E001").PaidTotal.Equal(d("500")))
}

func TestConcurrentDepositsDoNotLoseUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateEvent(ctx, NewEvent{Name: "Gala", Budget: d("10000")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RegisterDeposit(ctx, "E001", d("10"), "edy")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	e := f.event(t, "E001")
	assert.True(t, e.PaidTotal.Equal(d("200")), "paid %s", e.PaidTotal)
	assert.True(t, e.Pending.Equal(d("9800")))
	assert.True(t, f.balance(t, repository.AccountCompany).Pending.Equal(d("200")))
}

func TestUpcomingAndRetentions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mk := func(name, date, deposit string) {
		_, err := f.svc.CreateEvent(ctx, NewEvent{Name: name, Budget: d("1000"), InitialDeposit: d(deposit), EventDate: date})
		require.NoError(t, err)
	}
	mk("hoy", "14-03-2026", "100")
	mk("en una semana", "21-03-2026", "0")
	mk("lejos", "30-04-2026", "50")
	mk("pasado", "10-03-2026", "0")
	mk("sin fecha", "", "0")
	mk("mañana", "15-03-2026", "0")

	upcoming, err := f.svc.UpcomingEvents(ctx)
	require.NoError(t, err)
	names := make([]string, len(upcoming))
	for i, e := range upcoming {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"hoy", "mañana", "en una semana"}, names)

	_, err = f.svc.RegisterFullPayment(ctx, "E003", d("950"), "edy")
	require.NoError(t, err)

	active, err := f.svc.ActiveEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 5)

	r, err := f.svc.Retentions(ctx)
	require.NoError(t, err)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "hoy", r.Events[0].Name)
	assert.True(t, r.Held.Equal(d("100")), "held %s", r.Held)
}
