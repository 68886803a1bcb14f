package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventledger",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eventledger",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventledger",
			Name:      "bot_updates_total",
			Help:      "Telegram updates handled, by command or update kind",
		},
		[]string{"kind"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eventledger",
			Name:      "bot_errors_total",
			Help:      "Errors reported back to chat, by kind",
		},
		[]string{"kind"},
	)
)

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := strconv.Itoa(ww.Status())
		httpRequestsTotal.WithLabelValues(r.Method, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
	})
}

// errorKind is the label used for errorsTotal.
func errorKind(err error) string {
	var partial *service.PartialWriteError
	switch {
	case errors.As(err, &partial):
		return "partial_write"
	case errors.Is(err, service.ErrValidation):
		return "validation"
	case errors.Is(err, service.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, service.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "other"
	}
}
