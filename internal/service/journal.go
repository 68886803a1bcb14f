package service

import (
	"context"
	"fmt"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/shopspring/decimal"
)

const defaultCategory = "general"

// Categories written by the engine.
const (
	CategoryDeposit      = "deposito"
	CategoryEventExpense = "gasto_evento"
	CategoryEventIncome  = "ingreso_evento"
	CategoryEventSavings = "ahorro_evento"
	CategoryCompanyFund  = "fondo_empresa"
)

type TransactionInput struct {
	Type        repository.TransactionType
	Account     string
	Amount      decimal.Decimal
	Description string
	EventID     string
	Category    string
}

// AppendTransaction stamps id and date and appends the entry to the
// journal. Input is not validated.
func (s *LedgerService) AppendTransaction(ctx context.Context, in TransactionInput) (repository.Transaction, error) {
	category := in.Category
	if category == "" {
		category = defaultCategory
	}
	tx := repository.Transaction{
		ID:          s.newRecordID("T"),
		Date:        s.now(),
		Type:        in.Type,
		Account:     in.Account,
		Amount:      in.Amount,
		Description: in.Description,
		EventID:     in.EventID,
		Category:    category,
	}
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		return repository.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	return tx, nil
}

// EventExpenses lists the expense entries booked against one event.
func (s *LedgerService) EventExpenses(ctx context.Context, eventID string) ([]repository.Transaction, error) {
	e, err := s.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	var out []repository.Transaction
	for _, tx := range txs {
		if tx.Type == repository.TxExpense && tx.EventID == e.ID {
			out = append(out, tx)
		}
	}
	return out, nil
}
