package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/keymutex"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is what the presentation layer needs from the accounting core.
type Ledger interface {
	CreateEvent(ctx context.Context, in NewEvent) (repository.Event, error)
	RegisterDeposit(ctx context.Context, eventID string, amount decimal.Decimal, actor string) (DepositResult, error)
	RegisterEventExpense(ctx context.Context, eventID string, amount decimal.Decimal, description, actor string) (ExpenseResult, error)
	RegisterDirectExpense(ctx context.Context, amount decimal.Decimal, description, category, actor string) (DirectExpenseResult, error)
	RegisterFullPayment(ctx context.Context, eventID string, amount decimal.Decimal, actor string) (FullPaymentResult, error)

	EventByID(ctx context.Context, id string) (repository.Event, error)
	ActiveEvents(ctx context.Context) ([]repository.Event, error)
	UpcomingEvents(ctx context.Context) ([]repository.Event, error)
	EventExpenses(ctx context.Context, eventID string) ([]repository.Transaction, error)
	Retentions(ctx context.Context) (Retentions, error)

	GetBalances(ctx context.Context) (Balances, error)
	AccountBalances(ctx context.Context) ([]repository.AccountBalance, error)
	MonthlyReport(ctx context.Context, month string) (MonthlyReport, error)
}

type LedgerService struct {
	store *repository.Store
	locks *keymutex.KeyMutex
	now   func() time.Time
}

var _ Ledger = (*LedgerService)(nil)

type Option func(*LedgerService)

// WithClock replaces time.Now; tests use it to pin dates.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewService(store *repository.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store: store,
		locks: keymutex.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func eventKey(id string) string        { return "event:" + id }
func accountKey(account string) string { return "account:" + account }

const createEventKey = "event:create"

// newRecordID builds ids like P1700000000000-1a2b3c4d: sortable by time,
// unique across processes writing the same sheet.
func (s *LedgerService) newRecordID(prefix string) string {
	return fmt.Sprintf("%s%d-%s", prefix, s.now().UnixMilli(), uuid.NewString()[:8])
}

// Plain digits with an optional decimal part. Exponent notation is rejected.
var amountPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

const maxAmountDigits = 15

// ParseAmount reads a user-typed amount. A comma is accepted as the decimal
// separator.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if raw == "" {
		return decimal.Zero, invalid("monto", "vacío")
	}
	if !amountPattern.MatchString(raw) {
		return decimal.Zero, invalid("monto", fmt.Sprintf("%q no es un número", raw))
	}
	if len(raw)-strings.Count(raw, ".")-strings.Count(raw, ",") > maxAmountDigits {
		return decimal.Zero, invalid("monto", "demasiados dígitos")
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, invalid("monto", fmt.Sprintf("%q no es un número", raw))
	}
	return d, nil
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, "debe ser mayor que 0")
	}
	return nil
}
