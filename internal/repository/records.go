package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	StatusInProgress EventStatus = "en_proceso"
	StatusCompleted  EventStatus = "completado"
)

// Event is one row of the events table.
type Event struct {
	ID             string
	Name           string
	Client         string
	Budget         decimal.Decimal
	InitialDeposit decimal.Decimal
	PaidTotal      decimal.Decimal
	Pending        decimal.Decimal
	Status         EventStatus
	EventDate      string // DD-MM-YYYY, may be empty
	CreatedAt      time.Time
	Notes          string
	ExpensesTotal  decimal.Decimal

	ref RowRef
}

func (e Event) Completed() bool {
	return e.Status == StatusCompleted
}

// Net is the amount subject to the split: budget minus expenses.
func (e Event) Net() decimal.Decimal {
	return e.Budget.Sub(e.ExpensesTotal)
}

func (e Event) fields() map[string]string {
	return map[string]string{
		ColID:          e.ID,
		ColName:        e.Name,
		ColClient:      e.Client,
		ColBudget:      e.Budget.String(),
		ColInitDeposit: e.InitialDeposit.String(),
		ColPaidTotal:   e.PaidTotal.String(),
		ColPending:     e.Pending.String(),
		ColStatus:      string(e.Status),
		ColEventDate:   e.EventDate,
		ColCreatedAt:   formatTime(e.CreatedAt),
		ColNotes:       e.Notes,
		ColExpenses:    e.ExpensesTotal.String(),
	}
}

func eventFromRow(r Row) Event {
	status := EventStatus(r.String(ColStatus))
	if status == "" {
		status = StatusInProgress
	}
	return Event{
		ID:             r.String(ColID),
		Name:           r.String(ColName),
		Client:         r.String(ColClient),
		Budget:         r.Decimal(ColBudget),
		InitialDeposit: r.Decimal(ColInitDeposit),
		PaidTotal:      r.Decimal(ColPaidTotal),
		Pending:        r.Decimal(ColPending),
		Status:         status,
		EventDate:      r.String(ColEventDate),
		CreatedAt:      r.Time(ColCreatedAt),
		Notes:          r.String(ColNotes),
		ExpensesTotal:  r.Decimal(ColExpenses),
		ref:            r.Ref,
	}
}

type PaymentType string

const (
	PaymentDeposit PaymentType = "deposito"
	PaymentFinal   PaymentType = "pago_final"
)

// EventPayment is an immutable record of money received for an event.
type EventPayment struct {
	ID            string
	EventID       string
	Type          PaymentType
	Amount        decimal.Decimal
	Date          time.Time
	SplitDone     bool
	SplitPersonal decimal.Decimal
	SplitSavings  decimal.Decimal
	SplitCompany  decimal.Decimal
	Notes         string
}

func (p EventPayment) fields() map[string]string {
	done := "NO"
	if p.SplitDone {
		done = "SÍ"
	}
	return map[string]string{
		ColID:            p.ID,
		ColEventID:       p.EventID,
		ColType:          string(p.Type),
		ColAmount:        p.Amount.String(),
		ColDate:          formatTime(p.Date),
		ColSplitDone:     done,
		ColSplitPersonal: p.SplitPersonal.String(),
		ColSplitSavings:  p.SplitSavings.String(),
		ColSplitCompany:  p.SplitCompany.String(),
		ColNotes:         p.Notes,
	}
}

func paymentFromRow(r Row) EventPayment {
	done := strings.ToUpper(r.String(ColSplitDone))
	return EventPayment{
		ID:            r.String(ColID),
		EventID:       r.String(ColEventID),
		Type:          PaymentType(r.String(ColType)),
		Amount:        r.Decimal(ColAmount),
		Date:          r.Time(ColDate),
		SplitDone:     done == "SÍ" || done == "SI" || done == "TRUE",
		SplitPersonal: r.Decimal(ColSplitPersonal),
		SplitSavings:  r.Decimal(ColSplitSavings),
		SplitCompany:  r.Decimal(ColSplitCompany),
		Notes:         r.String(ColNotes),
	}
}

type TransactionType string

const (
	TxIncome  TransactionType = "ingreso"
	TxExpense TransactionType = "gasto"
)

// Transaction is one journal entry. Journal rows are never updated.
type Transaction struct {
	ID          string
	Date        time.Time
	Type        TransactionType
	Account     string
	Amount      decimal.Decimal
	Description string
	EventID     string
	Category    string
}

func (t Transaction) fields() map[string]string {
	return map[string]string{
		ColID:          t.ID,
		ColDate:        formatTime(t.Date),
		ColType:        string(t.Type),
		ColAccount:     t.Account,
		ColAmount:      t.Amount.String(),
		ColDescription: t.Description,
		ColEventID:     t.EventID,
		ColCategory:    t.Category,
	}
}

func transactionFromRow(r Row) Transaction {
	return Transaction{
		ID:          r.String(ColID),
		Date:        r.Time(ColDate),
		Type:        TransactionType(r.String(ColType)),
		Account:     r.String(ColAccount),
		Amount:      r.Decimal(ColAmount),
		Description: r.String(ColDescription),
		EventID:     r.String(ColEventID),
		Category:    r.String(ColCategory),
	}
}

// AccountBalance holds settled (Current) and held (Pending) funds.
type AccountBalance struct {
	Account   string
	Current   decimal.Decimal
	Pending   decimal.Decimal
	UpdatedAt time.Time

	ref RowRef
}

func (b AccountBalance) Total() decimal.Decimal {
	return b.Current.Add(b.Pending)
}

func balanceFromRow(r Row) AccountBalance {
	return AccountBalance{
		Account:   r.String(ColAccount),
		Current:   r.Decimal(ColBalanceCurrent),
		Pending:   r.Decimal(ColBalancePending),
		UpdatedAt: r.Time(ColUpdatedAt),
		ref:       r.Ref,
	}
}

// ConversationState is the scratch record of one chat's wizard.
type ConversationState struct {
	ChatID          int64
	Step            string
	TransactionType string
	Event           string
	Amount          string
	Timestamp       time.Time
	Metadata        map[string]string
}

func (c ConversationState) fields() (map[string]string, error) {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return map[string]string{
		ColChatID:          strconv.FormatInt(c.ChatID, 10),
		ColStep:            c.Step,
		ColTransactionType: c.TransactionType,
		ColStateEvent:      c.Event,
		ColStateAmount:     c.Amount,
		ColTimestamp:       formatTime(c.Timestamp),
		ColMetadata:        string(raw),
	}, nil
}

func stateFromRow(chatID int64, r Row) ConversationState {
	meta := map[string]string{}
	if raw := r.String(ColMetadata); raw != "" {
		// Hand-edited or legacy blobs are treated as empty.
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			meta = map[string]string{}
		}
	}
	return ConversationState{
		ChatID:          chatID,
		Step:            r.String(ColStep),
		TransactionType: r.String(ColTransactionType),
		Event:           r.String(ColStateEvent),
		Amount:          r.String(ColStateAmount),
		Timestamp:       r.Time(ColTimestamp),
		Metadata:        meta,
	}
}

// Events returns every event in insertion order.
func (s *Store) Events(ctx context.Context) ([]Event, error) {
	rows, err := s.ListRows(ctx, TableEvents)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		if r.String(ColID) == "" {
			continue
		}
		events = append(events, eventFromRow(r))
	}
	return events, nil
}

// EventByID returns nil when no event has that id.
func (s *Store) EventByID(ctx context.Context, id string) (*Event, error) {
	row, err := s.FindRow(ctx, TableEvents, id)
	if err != nil || row == nil {
		return nil, err
	}
	e := eventFromRow(*row)
	return &e, nil
}

func (s *Store) AppendEvent(ctx context.Context, e Event) error {
	return s.AppendRow(ctx, TableEvents, e.fields())
}

// UpdateEvent writes back the listed columns of an event previously read
// from the store.
func (s *Store) UpdateEvent(ctx context.Context, e Event, columns ...string) error {
	all := e.fields()
	fields := make(map[string]string, len(columns))
	for _, c := range columns {
		v, ok := all[c]
		if !ok {
			return fmt.Errorf("update event %s: %w %q", e.ID, ErrUnknownColumn, c)
		}
		fields[c] = v
	}
	return s.UpdateRow(ctx, TableEvents, e.ref, fields)
}

func (s *Store) AppendPayment(ctx context.Context, p EventPayment) error {
	return s.AppendRow(ctx, TableEventPayments, p.fields())
}

func (s *Store) PaymentsByEvent(ctx context.Context, eventID string) ([]EventPayment, error) {
	rows, err := s.ListRows(ctx, TableEventPayments)
	if err != nil {
		return nil, err
	}
	var payments []EventPayment
	for _, r := range rows {
		if r.String(ColEventID) == eventID {
			payments = append(payments, paymentFromRow(r))
		}
	}
	return payments, nil
}

func (s *Store) AppendTransaction(ctx context.Context, t Transaction) error {
	return s.AppendRow(ctx, TableTransactions, t.fields())
}

func (s *Store) Transactions(ctx context.Context) ([]Transaction, error) {
	rows, err := s.ListRows(ctx, TableTransactions)
	if err != nil {
		return nil, err
	}
	txs := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, transactionFromRow(r))
	}
	return txs, nil
}

func (s *Store) Balances(ctx context.Context) ([]AccountBalance, error) {
	rows, err := s.ListRows(ctx, TableBalances)
	if err != nil {
		return nil, err
	}
	balances := make([]AccountBalance, 0, len(rows))
	for _, r := range rows {
		if r.String(ColAccount) == "" {
			continue
		}
		balances = append(balances, balanceFromRow(r))
	}
	return balances, nil
}

// BalanceByAccount returns nil when the account row is missing.
func (s *Store) BalanceByAccount(ctx context.Context, account string) (*AccountBalance, error) {
	row, err := s.FindRow(ctx, TableBalances, account)
	if err != nil || row == nil {
		return nil, err
	}
	b := balanceFromRow(*row)
	return &b, nil
}

// UpdateBalance writes both buckets and the timestamp of a balance row
// previously read from the store.
func (s *Store) UpdateBalance(ctx context.Context, b AccountBalance) error {
	return s.UpdateRow(ctx, TableBalances, b.ref, map[string]string{
		ColBalanceCurrent: b.Current.String(),
		ColBalancePending: b.Pending.String(),
		ColUpdatedAt:      formatTime(b.UpdatedAt),
	})
}

// ConversationState returns the saved state of a chat, or nil.
func (s *Store) ConversationState(ctx context.Context, chatID int64) (*ConversationState, error) {
	row, err := s.FindRow(ctx, TableState, strconv.FormatInt(chatID, 10))
	if err != nil || row == nil {
		return nil, err
	}
	st := stateFromRow(chatID, *row)
	return &st, nil
}

// SaveConversationState overwrites the chat's row, appending one on first use.
func (s *Store) SaveConversationState(ctx context.Context, st ConversationState) error {
	if st.Timestamp.IsZero() {
		st.Timestamp = s.now()
	}
	fields, err := st.fields()
	if err != nil {
		return err
	}
	row, err := s.FindRow(ctx, TableState, fields[ColChatID])
	if err != nil {
		return err
	}
	if row == nil {
		return s.AppendRow(ctx, TableState, fields)
	}
	return s.UpdateRow(ctx, TableState, row.Ref, fields)
}
