package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/shopspring/decimal"
)

// EventDateLayout is the DD-MM-YYYY format of fecha_evento.
const EventDateLayout = "02-01-2006"

const upcomingWindow = 7 * 24 * time.Hour

var (
	personalShare = decimal.RequireFromString("0.65")
	savingsShare  = decimal.RequireFromString("0.25")
)

type NewEvent struct {
	Name           string
	Client         string
	Budget         decimal.Decimal
	InitialDeposit decimal.Decimal
	EventDate      string
	Notes          string
	Actor          string
}

type DepositResult struct {
	EventID   string
	EventName string
	Budget    decimal.Decimal
	PaidTotal decimal.Decimal
	Pending   decimal.Decimal
}

type ExpenseResult struct {
	EventID       string
	EventName     string
	ExpensesTotal decimal.Decimal
	Budget        decimal.Decimal
	NetRemaining  decimal.Decimal
}

type DirectExpenseResult struct {
	Amount      decimal.Decimal
	Description string
	Category    string
}

// Split is the 65/25/10 allocation of an event's net.
type Split struct {
	Personal decimal.Decimal
	Savings  decimal.Decimal
	Company  decimal.Decimal
}

func (s Split) Total() decimal.Decimal {
	return s.Personal.Add(s.Savings).Add(s.Company)
}

type FullPaymentResult struct {
	EventID   string
	EventName string
	Budget    decimal.Decimal
	Expenses  decimal.Decimal
	Net       decimal.Decimal
	Split     Split
}

// Retentions is money received for open events that has not been split yet.
type Retentions struct {
	Held   decimal.Decimal
	Events []repository.Event
}

// ComputeSplit rounds the personal and savings shares to cents and gives
// the remainder to the company, so the parts always add up to net.
func ComputeSplit(net decimal.Decimal) Split {
	personal := net.Mul(personalShare).Round(2)
	savings := net.Mul(savingsShare).Round(2)
	return Split{
		Personal: personal,
		Savings:  savings,
		Company:  net.Sub(personal).Sub(savings),
	}
}

func (s *LedgerService) CreateEvent(ctx context.Context, in NewEvent) (repository.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return repository.Event{}, invalid("nombre", "es obligatorio")
	}
	if err := requirePositive("presupuesto_total", in.Budget); err != nil {
		return repository.Event{}, err
	}
	if in.InitialDeposit.IsNegative() {
		return repository.Event{}, invalid("deposito_inicial", "no puede ser negativo")
	}
	if in.InitialDeposit.GreaterThan(in.Budget) {
		return repository.Event{}, invalid("deposito_inicial", "no puede superar el presupuesto")
	}
	eventDate := strings.TrimSpace(in.EventDate)
	if eventDate != "" {
		if _, err := time.Parse(EventDateLayout, eventDate); err != nil {
			return repository.Event{}, invalid("fecha_evento", "usa el formato DD-MM-AAAA")
		}
	}

	unlock := s.locks.Lock(createEventKey)
	defer unlock()

	events, err := s.store.Events(ctx)
	if err != nil {
		return repository.Event{}, fmt.Errorf("read events: %w", err)
	}

	now := s.now()
	event := repository.Event{
		ID:             nextEventID(events),
		Name:           name,
		Client:         strings.TrimSpace(in.Client),
		Budget:         in.Budget,
		InitialDeposit: in.InitialDeposit,
		PaidTotal:      in.InitialDeposit,
		Pending:        in.Budget.Sub(in.InitialDeposit),
		Status:         repository.StatusInProgress,
		EventDate:      eventDate,
		CreatedAt:      now,
		Notes:          in.Notes,
		ExpensesTotal:  decimal.Zero,
	}

	m := newMutation("create_event", event.ID)
	if err := m.step("append_event", func() error {
		return s.store.AppendEvent(ctx, event)
	}); err != nil {
		logger.Error("Failed to create event", "user", in.Actor, "error", err)
		return repository.Event{}, fmt.Errorf("create event: %w", err)
	}

	if event.InitialDeposit.IsPositive() {
		if err := m.step("append_payment", func() error {
			return s.store.AppendPayment(ctx, repository.EventPayment{
				ID:      s.newRecordID("P"),
				EventID: event.ID,
				Type:    repository.PaymentDeposit,
				Amount:  event.InitialDeposit,
				Date:    now,
				Notes:   "Depósito inicial",
			})
		}); err != nil {
			return repository.Event{}, fmt.Errorf("create event %s: %w", event.ID, err)
		}
		if err := m.step("adjust_pending_"+repository.AccountCompany, func() error {
			_, err := s.AdjustBalance(ctx, repository.AccountCompany, event.InitialDeposit, true)
			return err
		}); err != nil {
			return repository.Event{}, fmt.Errorf("create event %s: %w", event.ID, err)
		}
	}

	logger.Info("Event created",
		"event_id", event.ID,
		"name", event.Name,
		"budget", event.Budget.String(),
		"deposit", event.InitialDeposit.String(),
		"user", in.Actor,
	)
	return event, nil
}

// nextEventID returns E### one above the highest numeric suffix in use, so
// deleted or hand-edited rows never cause a collision.
func nextEventID(events []repository.Event) string {
	highest := 0
	for _, e := range events {
		if !strings.HasPrefix(e.ID, "E") {
			continue
		}
		n, err := strconv.Atoi(e.ID[1:])
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("E%03d", highest+1)
}

func (s *LedgerService) RegisterDeposit(ctx context.Context, eventID string, amount decimal.Decimal, actor string) (DepositResult, error) {
	if err := requirePositive("monto", amount); err != nil {
		return DepositResult{}, err
	}

	unlock := s.locks.Lock(eventKey(normalizeEventID(eventID)))
	defer unlock()

	event, err := s.openEvent(ctx, eventID)
	if err != nil {
		return DepositResult{}, err
	}

	event.PaidTotal = event.PaidTotal.Add(amount)
	event.Pending = event.Budget.Sub(event.PaidTotal)
	if event.Pending.IsNegative() {
		logger.Warn("Deposit exceeds event budget",
			"event_id", event.ID,
			"paid_total", event.PaidTotal.String(),
			"budget", event.Budget.String(),
		)
	}

	m := newMutation("register_deposit", event.ID)
	steps := []struct {
		name string
		fn   func() error
	}{
		{"update_event", func() error {
			return s.store.UpdateEvent(ctx, event, repository.ColPaidTotal, repository.ColPending, repository.ColStatus)
		}},
		{"append_payment", func() error {
			return s.store.AppendPayment(ctx, repository.EventPayment{
				ID:      s.newRecordID("P"),
				EventID: event.ID,
				Type:    repository.PaymentDeposit,
				Amount:  amount,
				Date:    s.now(),
				Notes:   "Depósito registrado por " + actor,
			})
		}},
		{"append_transaction", func() error {
			_, err := s.AppendTransaction(ctx, TransactionInput{
				Type:        repository.TxIncome,
				Account:     repository.AccountCompany,
				Amount:      amount,
				Description: fmt.Sprintf("Depósito evento %s: %s", event.ID, event.Name),
				EventID:     event.ID,
				Category:    CategoryDeposit,
			})
			return err
		}},
		{"adjust_pending_" + repository.AccountCompany, func() error {
			_, err := s.AdjustBalance(ctx, repository.AccountCompany, amount, true)
			return err
		}},
	}
	for _, st := range steps {
		if err := m.step(st.name, st.fn); err != nil {
			logger.Error("Failed to register deposit", "event_id", event.ID, "user", actor, "error", err)
			return DepositResult{}, fmt.Errorf("register deposit %s: %w", event.ID, err)
		}
	}

	logger.Info("Deposit registered",
		"event_id", event.ID,
		"amount", amount.String(),
		"paid_total", event.PaidTotal.String(),
		"pending", event.Pending.String(),
		"user", actor,
	)
	return DepositResult{
		EventID:   event.ID,
		EventName: event.Name,
		Budget:    event.Budget,
		PaidTotal: event.PaidTotal,
		Pending:   event.Pending,
	}, nil
}

func (s *LedgerService) RegisterEventExpense(ctx context.Context, eventID string, amount decimal.Decimal, description, actor string) (ExpenseResult, error) {
	if err := requirePositive("monto", amount); err != nil {
		return ExpenseResult{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return ExpenseResult{}, invalid("descripcion", "es obligatoria")
	}

	unlock := s.locks.Lock(eventKey(normalizeEventID(eventID)))
	defer unlock()

	event, err := s.openEvent(ctx, eventID)
	if err != nil {
		return ExpenseResult{}, err
	}
	event.ExpensesTotal = event.ExpensesTotal.Add(amount)

	m := newMutation("register_event_expense", event.ID)
	err = m.step("update_event", func() error {
		return s.store.UpdateEvent(ctx, event, repository.ColExpenses)
	})
	if err == nil {
		err = m.step("append_transaction", func() error {
			_, err := s.AppendTransaction(ctx, TransactionInput{
				Type:        repository.TxExpense,
				Account:     repository.AccountCompany,
				Amount:      amount,
				Description: fmt.Sprintf("[%s] %s", event.ID, description),
				EventID:     event.ID,
				Category:    CategoryEventExpense,
			})
			return err
		})
	}
	if err == nil {
		// Expenses come out of settled funds, not the held deposits.
		err = m.step("adjust_current_"+repository.AccountCompany, func() error {
			_, err := s.AdjustBalance(ctx, repository.AccountCompany, amount.Neg(), false)
			return err
		})
	}
	if err != nil {
		logger.Error("Failed to register event expense", "event_id", event.ID, "user", actor, "error", err)
		return ExpenseResult{}, fmt.Errorf("register expense %s: %w", event.ID, err)
	}

	logger.Info("Event expense registered",
		"event_id", event.ID,
		"amount", amount.String(),
		"expenses_total", event.ExpensesTotal.String(),
		"user", actor,
	)
	return ExpenseResult{
		EventID:       event.ID,
		EventName:     event.Name,
		ExpensesTotal: event.ExpensesTotal,
		Budget:        event.Budget,
		NetRemaining:  event.Net(),
	}, nil
}

// RegisterDirectExpense books a company expense not tied to any event. An
// empty category is derived from the description.
func (s *LedgerService) RegisterDirectExpense(ctx context.Context, amount decimal.Decimal, description, category, actor string) (DirectExpenseResult, error) {
	if err := requirePositive("monto", amount); err != nil {
		return DirectExpenseResult{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return DirectExpenseResult{}, invalid("descripcion", "es obligatoria")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = ClassifyExpense(description)
	}

	m := newMutation("register_direct_expense", category)
	err := m.step("append_transaction", func() error {
		_, err := s.AppendTransaction(ctx, TransactionInput{
			Type:        repository.TxExpense,
			Account:     repository.AccountCompany,
			Amount:      amount,
			Description: "[GENERAL] " + description,
			Category:    category,
		})
		return err
	})
	if err == nil {
		err = m.step("adjust_current_"+repository.AccountCompany, func() error {
			_, err := s.AdjustBalance(ctx, repository.AccountCompany, amount.Neg(), false)
			return err
		})
	}
	if err != nil {
		logger.Error("Failed to register direct expense", "user", actor, "error", err)
		return DirectExpenseResult{}, fmt.Errorf("register direct expense: %w", err)
	}

	logger.Info("Direct expense registered", "amount", amount.String(), "category", category, "user", actor)
	return DirectExpenseResult{Amount: amount, Description: description, Category: category}, nil
}

// RegisterFullPayment records the final payment, completes the event and
// settles the split of its net into the three accounts.
func (s *LedgerService) RegisterFullPayment(ctx context.Context, eventID string, amount decimal.Decimal, actor string) (FullPaymentResult, error) {
	if err := requirePositive("monto", amount); err != nil {
		return FullPaymentResult{}, err
	}

	unlock := s.locks.Lock(eventKey(normalizeEventID(eventID)))
	defer unlock()

	event, err := s.openEvent(ctx, eventID)
	if err != nil {
		return FullPaymentResult{}, err
	}

	net := event.Net()
	split := ComputeSplit(net)
	if net.IsNegative() {
		logger.Warn("Event expenses exceed budget", "event_id", event.ID, "net", net.String())
	}
	if !event.PaidTotal.Add(amount).Equal(event.Budget) {
		// Pending held for the event will not unwind to zero.
		logger.Warn("Final payment does not reconcile with budget",
			"event_id", event.ID,
			"paid_total", event.PaidTotal.String(),
			"amount", amount.String(),
			"budget", event.Budget.String(),
		)
	}

	now := s.now()
	budget := event.Budget
	event.PaidTotal = event.PaidTotal.Add(amount)
	event.Pending = decimal.Zero
	event.Status = repository.StatusCompleted

	income := func(account string, part decimal.Decimal, label, category string) func() error {
		return func() error {
			_, err := s.AppendTransaction(ctx, TransactionInput{
				Type:        repository.TxIncome,
				Account:     account,
				Amount:      part,
				Description: fmt.Sprintf(label, event.ID, event.Name),
				EventID:     event.ID,
				Category:    category,
			})
			return err
		}
	}
	adjust := func(account string, delta decimal.Decimal, pending bool) func() error {
		return func() error {
			_, err := s.AdjustBalance(ctx, account, delta, pending)
			return err
		}
	}

	// The balance steps must run in this order: the pending added by every
	// deposit plus this payment is unwound by subtracting the whole budget.
	steps := []struct {
		name string
		fn   func() error
	}{
		{"append_payment", func() error {
			return s.store.AppendPayment(ctx, repository.EventPayment{
				ID:            s.newRecordID("P"),
				EventID:       event.ID,
				Type:          repository.PaymentFinal,
				Amount:        amount,
				Date:          now,
				SplitDone:     true,
				SplitPersonal: split.Personal,
				SplitSavings:  split.Savings,
				SplitCompany:  split.Company,
				Notes:         "Pago completo registrado por " + actor,
			})
		}},
		{"update_event", func() error {
			return s.store.UpdateEvent(ctx, event, repository.ColPaidTotal, repository.ColPending, repository.ColStatus)
		}},
		{"transaction_personal", income(repository.AccountPersonal, split.Personal, "Pago evento %s: %s (65%%)", CategoryEventIncome)},
		{"transaction_savings", income(repository.AccountSavings, split.Savings, "Pago evento %s: %s (25%%)", CategoryEventSavings)},
		{"transaction_company", income(repository.AccountCompany, split.Company, "Fondo evento %s: %s (10%%)", CategoryCompanyFund)},
		{"pending_add_payment", adjust(repository.AccountCompany, amount, true)},
		{"pending_release_budget", adjust(repository.AccountCompany, budget.Neg(), true)},
		{"current_company_share", adjust(repository.AccountCompany, split.Company, false)},
		{"current_personal_share", adjust(repository.AccountPersonal, split.Personal, false)},
		{"current_savings_share", adjust(repository.AccountSavings, split.Savings, false)},
	}

	m := newMutation("register_full_payment", event.ID)
	for _, st := range steps {
		if err := m.step(st.name, st.fn); err != nil {
			logger.Error("Failed to register full payment", "event_id", event.ID, "user", actor, "error", err)
			return FullPaymentResult{}, fmt.Errorf("register full payment %s: %w", event.ID, err)
		}
	}

	logger.Info("Event completed",
		"event_id", event.ID,
		"amount", amount.String(),
		"net", net.String(),
		"personal", split.Personal.String(),
		"savings", split.Savings.String(),
		"company", split.Company.String(),
		"user", actor,
	)
	return FullPaymentResult{
		EventID:   event.ID,
		EventName: event.Name,
		Budget:    budget,
		Expenses:  event.ExpensesTotal,
		Net:       net,
		Split:     split,
	}, nil
}

func normalizeEventID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// loadEvent keeps the row reference so the event can be written back.
func (s *LedgerService) loadEvent(ctx context.Context, id string) (repository.Event, error) {
	id = normalizeEventID(id)
	e, err := s.store.EventByID(ctx, id)
	if err != nil {
		return repository.Event{}, fmt.Errorf("read event %s: %w", id, err)
	}
	if e == nil {
		return repository.Event{}, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return *e, nil
}

func (s *LedgerService) openEvent(ctx context.Context, id string) (repository.Event, error) {
	e, err := s.loadEvent(ctx, id)
	if err != nil {
		return repository.Event{}, err
	}
	if e.Completed() {
		return repository.Event{}, fmt.Errorf("%s: %w", e.ID, ErrEventCompleted)
	}
	return e, nil
}

func (s *LedgerService) EventByID(ctx context.Context, id string) (repository.Event, error) {
	return s.loadEvent(ctx, id)
}

func (s *LedgerService) ActiveEvents(ctx context.Context) ([]repository.Event, error) {
	events, err := s.store.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	var active []repository.Event
	for _, e := range events {
		if e.Status == repository.StatusInProgress {
			active = append(active, e)
		}
	}
	return active, nil
}

// UpcomingEvents returns open events dated from today through the next
// seven days, soonest first. Events without a parseable date are skipped.
func (s *LedgerService) UpcomingEvents(ctx context.Context) ([]repository.Event, error) {
	active, err := s.ActiveEvents(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.Add(upcomingWindow)

	type dated struct {
		event repository.Event
		at    time.Time
	}
	var found []dated
	for _, e := range active {
		at, err := time.ParseInLocation(EventDateLayout, e.EventDate, now.Location())
		if err != nil {
			continue
		}
		if !at.Before(from) && !at.After(to) {
			found = append(found, dated{e, at})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].at.Before(found[j].at) })

	out := make([]repository.Event, len(found))
	for i, d := range found {
		out[i] = d.event
	}
	return out, nil
}

func (s *LedgerService) Retentions(ctx context.Context) (Retentions, error) {
	b, err := s.store.BalanceByAccount(ctx, repository.AccountCompany)
	if err != nil {
		return Retentions{}, fmt.Errorf("read balance: %w", err)
	}
	if b == nil {
		return Retentions{}, fmt.Errorf("%w: %q", ErrAccountNotFound, repository.AccountCompany)
	}
	active, err := s.ActiveEvents(ctx)
	if err != nil {
		return Retentions{}, err
	}
	out := Retentions{Held: b.Pending}
	for _, e := range active {
		if e.PaidTotal.IsPositive() {
			out.Events = append(out.Events, e)
		}
	}
	return out, nil
}
