package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusJSON = `{
  "generated_at": "2026-03-14T12:00:00Z",
  "balances": [{"account": "DJ EDY", "current": "-20", "pending": "500"}],
  "total": "480",
  "held": "500",
  "active_events": [{"id": "E002", "name": "XV <Ana>", "budget": "1000", "paid_total": "500", "pending": "500", "expenses": "0"}]
}`

func TestDashboardRendersStatus(t *testing.T) {
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status", r.URL.Path)
		w.Write([]byte(statusJSON))
	}))
	defer bot.Close()

	rec := httptest.NewRecorder()
	dashboardHandler(bot.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "-$20.00")
	assert.Contains(t, body, "Retenido $500.00")
	assert.Contains(t, body, "XV &lt;Ana&gt;")
	assert.Contains(t, body, "14-03-2026 12:00")
}

func TestDashboardReportsUpstreamFailure(t *testing.T) {
	bot := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bot.Close()

	rec := httptest.NewRecorder()
	statusProxy(bot.URL).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
