// Package conversation drives the per-chat "new event" wizard and parses
// one-line free-text entries.
package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/keymutex"
	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	"github.com/shopspring/decimal"
)

const (
	StepName    = "nuevoevento_nombre"
	StepClient  = "nuevoevento_cliente"
	StepBudget  = "nuevoevento_presupuesto"
	StepDeposit = "nuevoevento_deposito"
	StepDate    = "nuevoevento_fecha"
)

// metadata keys
const (
	keyUser    = "username"
	keyName    = "nombre"
	keyClient  = "cliente"
	keyBudget  = "presupuesto"
	keyDeposit = "deposito"
)

var nextStep = map[string]string{
	StepName:    StepClient,
	StepClient:  StepBudget,
	StepBudget:  StepDeposit,
	StepDeposit: StepDate,
}

type StateStore interface {
	ConversationState(ctx context.Context, chatID int64) (*repository.ConversationState, error)
	SaveConversationState(ctx context.Context, st repository.ConversationState) error
}

type EventCreator interface {
	CreateEvent(ctx context.Context, in service.NewEvent) (repository.Event, error)
}

// Outcome of feeding one message to the wizard. Step is the step now
// waiting for input; it is empty once the wizard finished.
type Outcome struct {
	Step  string
	Input error
	Event *repository.Event
}

type Wizard struct {
	states StateStore
	events EventCreator
	locks  *keymutex.KeyMutex
}

func NewWizard(states StateStore, events EventCreator) *Wizard {
	return &Wizard{states: states, events: events, locks: keymutex.New()}
}

func chatKey(chatID int64) string {
	return "chat:" + strconv.FormatInt(chatID, 10)
}

// Start resets the chat and asks for the event name.
func (w *Wizard) Start(ctx context.Context, chatID int64, username string) error {
	unlock := w.locks.Lock(chatKey(chatID))
	defer unlock()

	return w.states.SaveConversationState(ctx, repository.ConversationState{
		ChatID:   chatID,
		Step:     StepName,
		Metadata: map[string]string{keyUser: username},
	})
}

// Cancel clears any wizard in progress. It reports whether one was active.
func (w *Wizard) Cancel(ctx context.Context, chatID int64) (bool, error) {
	unlock := w.locks.Lock(chatKey(chatID))
	defer unlock()

	st, err := w.states.ConversationState(ctx, chatID)
	if err != nil {
		return false, err
	}
	if st == nil || st.Step == "" {
		return false, nil
	}
	return true, w.clear(ctx, chatID)
}

// Step returns the step the chat is waiting on, or "".
func (w *Wizard) Step(ctx context.Context, chatID int64) (string, error) {
	st, err := w.states.ConversationState(ctx, chatID)
	if err != nil || st == nil {
		return "", err
	}
	return st.Step, nil
}

func (w *Wizard) clear(ctx context.Context, chatID int64) error {
	return w.states.SaveConversationState(ctx, repository.ConversationState{ChatID: chatID})
}

// Handle feeds text to the chat's wizard. ok is false when no wizard is
// running, so the caller can treat the text some other way.
func (w *Wizard) Handle(ctx context.Context, chatID int64, text string) (out Outcome, ok bool, err error) {
	unlock := w.locks.Lock(chatKey(chatID))
	defer unlock()

	st, err := w.states.ConversationState(ctx, chatID)
	if err != nil {
		return Outcome{}, false, fmt.Errorf("load state: %w", err)
	}
	if st == nil || !strings.HasPrefix(st.Step, "nuevoevento_") {
		return Outcome{}, false, nil
	}

	text = strings.TrimSpace(text)
	if st.Metadata == nil {
		st.Metadata = map[string]string{}
	}

	if st.Step == StepDate {
		return w.finish(ctx, *st, text)
	}

	if verr := accept(st, text); verr != nil {
		return Outcome{Step: st.Step, Input: verr}, true, nil
	}

	st.Step = nextStep[st.Step]
	st.Timestamp = time.Time{}
	if err := w.states.SaveConversationState(ctx, *st); err != nil {
		return Outcome{}, true, fmt.Errorf("save state: %w", err)
	}
	return Outcome{Step: st.Step}, true, nil
}

// accept validates text for the current step and stores it in metadata.
func accept(st *repository.ConversationState, text string) error {
	switch st.Step {
	case StepName:
		if text == "" {
			return &service.ValidationError{Field: keyName, Reason: "es obligatorio"}
		}
		st.Metadata[keyName] = text
	case StepClient:
		if isSkip(text) || text == "-" {
			text = ""
		}
		st.Metadata[keyClient] = text
	case StepBudget:
		budget, err := service.ParseAmount(text)
		if err != nil {
			return err
		}
		if !budget.IsPositive() {
			return &service.ValidationError{Field: keyBudget, Reason: "debe ser mayor que 0"}
		}
		st.Metadata[keyBudget] = budget.String()
	case StepDeposit:
		deposit := decimal.Zero
		if !isSkip(text) {
			var err error
			deposit, err = service.ParseAmount(text)
			if err != nil {
				return err
			}
		}
		if deposit.IsNegative() {
			return &service.ValidationError{Field: keyDeposit, Reason: "no puede ser negativo"}
		}
		budget, _ := decimal.NewFromString(st.Metadata[keyBudget])
		if deposit.GreaterThan(budget) {
			return &service.ValidationError{Field: keyDeposit, Reason: "no puede superar el presupuesto"}
		}
		st.Metadata[keyDeposit] = deposit.String()
	}
	return nil
}

func (w *Wizard) finish(ctx context.Context, st repository.ConversationState, text string) (Outcome, bool, error) {
	date := text
	if isSkip(text) {
		date = ""
	} else if _, err := time.Parse(service.EventDateLayout, text); err != nil {
		return Outcome{Step: st.Step, Input: &service.ValidationError{Field: "fecha", Reason: "usa el formato DD-MM-AAAA o escribe no"}}, true, nil
	}

	budget, _ := decimal.NewFromString(st.Metadata[keyBudget])
	deposit, _ := decimal.NewFromString(st.Metadata[keyDeposit])
	event, createErr := w.events.CreateEvent(ctx, service.NewEvent{
		Name:           st.Metadata[keyName],
		Client:         st.Metadata[keyClient],
		Budget:         budget,
		InitialDeposit: deposit,
		EventDate:      date,
		Actor:          st.Metadata[keyUser],
	})

	// The wizard ends either way; a failed creation is restarted from scratch.
	if err := w.clear(ctx, st.ChatID); err != nil {
		logger.Error("Failed to clear wizard state", "chat_id", st.ChatID, "error", err)
	}
	if createErr != nil {
		return Outcome{}, true, createErr
	}
	return Outcome{Event: &event}, true, nil
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "no")
}
