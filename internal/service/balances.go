package service

import (
	"context"
	"fmt"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/shopspring/decimal"
)

// Balances are the settled (balance_actual) amounts only.
type Balances struct {
	Personal decimal.Decimal
	Company  decimal.Decimal
	Savings  decimal.Decimal
}

// AdjustBalance adds amount to the pending or the current bucket of account.
// It is the only writer of account balances.
func (s *LedgerService) AdjustBalance(ctx context.Context, account string, amount decimal.Decimal, pending bool) (repository.AccountBalance, error) {
	unlock := s.locks.Lock(accountKey(account))
	defer unlock()

	b, err := s.store.BalanceByAccount(ctx, account)
	if err != nil {
		return repository.AccountBalance{}, fmt.Errorf("read balance %s: %w", account, err)
	}
	if b == nil {
		return repository.AccountBalance{}, fmt.Errorf("%w: %q", ErrAccountNotFound, account)
	}

	if pending {
		b.Pending = b.Pending.Add(amount)
	} else {
		b.Current = b.Current.Add(amount)
	}
	b.UpdatedAt = s.now()

	if err := s.store.UpdateBalance(ctx, *b); err != nil {
		return repository.AccountBalance{}, fmt.Errorf("write balance %s: %w", account, err)
	}

	logger.Debug("Balance adjusted",
		"account", account,
		"amount", amount.String(),
		"pending", pending,
		"current_total", b.Current.String(),
		"pending_total", b.Pending.String(),
	)
	return *b, nil
}

func (s *LedgerService) GetBalances(ctx context.Context) (Balances, error) {
	rows, err := s.store.Balances(ctx)
	if err != nil {
		return Balances{}, fmt.Errorf("read balances: %w", err)
	}
	var out Balances
	for _, b := range rows {
		switch b.Account {
		case repository.AccountPersonal:
			out.Personal = b.Current
		case repository.AccountCompany:
			out.Company = b.Current
		case repository.AccountSavings:
			out.Savings = b.Current
		}
	}
	return out, nil
}

// AccountBalances returns both buckets of every account.
func (s *LedgerService) AccountBalances(ctx context.Context) ([]repository.AccountBalance, error) {
	rows, err := s.store.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", err)
	}
	return rows, nil
}

// VerifyAccounts checks the three fixed accounts exist. A missing one is a
// misconfigured sheet, so callers should refuse to start.
func (s *LedgerService) VerifyAccounts(ctx context.Context) error {
	rows, err := s.store.Balances(ctx)
	if err != nil {
		return fmt.Errorf("read balances: %w", err)
	}
	seen := make(map[string]bool, len(rows))
	for _, b := range rows {
		seen[b.Account] = true
	}
	for _, account := range repository.Accounts {
		if !seen[account] {
			return fmt.Errorf("%w: %q", ErrAccountNotFound, account)
		}
	}
	return nil
}
