package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// StatusAPI exposes the ledger state read-only over HTTP for the admin
// dashboard.
type StatusAPI struct {
	ledger  service.Ledger
	timeout time.Duration
	now     func() time.Time
}

func NewStatusAPI(ledger service.Ledger) *StatusAPI {
	return &StatusAPI{ledger: ledger, timeout: 15 * time.Second, now: time.Now}
}

type StatusResponse struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Balances     []BalanceStatus `json:"balances"`
	Total        decimal.Decimal `json:"total"`
	Held         decimal.Decimal `json:"held"`
	ActiveEvents []EventStatus   `json:"active_events"`
}

type BalanceStatus struct {
	Account string          `json:"account"`
	Current decimal.Decimal `json:"current"`
	Pending decimal.Decimal `json:"pending"`
}

type EventStatus struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Client    string          `json:"client"`
	EventDate string          `json:"event_date"`
	Budget    decimal.Decimal `json:"budget"`
	PaidTotal decimal.Decimal `json:"paid_total"`
	Pending   decimal.Decimal `json:"pending"`
	Expenses  decimal.Decimal `json:"expenses"`
}

// Router serves /health, /api/status and /metrics. Callers may mount more
// routes (the webhook) on the returned mux.
func (s *StatusAPI) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/health", s.Health)
	r.Get("/api/status", s.GetStatus)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *StatusAPI) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *StatusAPI) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	balances, err := s.ledger.AccountBalances(ctx)
	if err != nil {
		logger.Error("Status: read balances", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	events, err := s.ledger.ActiveEvents(ctx)
	if err != nil {
		logger.Error("Status: read events", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}

	resp := StatusResponse{
		GeneratedAt:  s.now().UTC(),
		Total:        decimal.Zero,
		Held:         decimal.Zero,
		Balances:     make([]BalanceStatus, 0, len(balances)),
		ActiveEvents: make([]EventStatus, 0, len(events)),
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, BalanceStatus{Account: b.Account, Current: b.Current, Pending: b.Pending})
		resp.Total = resp.Total.Add(b.Total())
		if b.Account == repository.AccountCompany {
			resp.Held = b.Pending
		}
	}
	for _, e := range events {
		resp.ActiveEvents = append(resp.ActiveEvents, EventStatus{
			ID:        e.ID,
			Name:      e.Name,
			Client:    e.Client,
			EventDate: e.EventDate,
			Budget:    e.Budget,
			PaidTotal: e.PaidTotal,
			Pending:   e.Pending,
			Expenses:  e.ExpensesTotal,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encode JSON response", "error", err)
	}
}
