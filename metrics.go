package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stemstr/lnmock/internal/command"
)

// Fixed labels for client supplied names outside the known set.
const (
	unknownMethod  = "unknown"
	unmatchedRoute = "unmatched"
)

var (
	invoicesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lnmock_invoices_created_total",
		Help: "The total number of invoices created",
	})
	invoicesPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lnmock_invoices_paid_total",
		Help: "The total number of invoices marked as paid",
	})
	rpcErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lnmock_rpc_errors_total",
		Help: "The total number of failed commands",
	}, []string{"method"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "http_response_duration_seconds",
		Help: "Latency of requests in second.",
	}, []string{"path"})
)

// registerClockMetrics exposes virtual time. The clock never moves backwards,
// so the distance from start is a valid counter.
func registerClockMetrics(start time.Time, now func() time.Time) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "lnmock_clock_advanced_seconds_total",
		Help: "Virtual seconds the clock has been advanced by",
	}, func() float64 {
		return now().Sub(start).Seconds()
	})
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "lnmock_clock_unix_seconds",
		Help: "The current virtual time",
	}, func() float64 {
		return float64(now().Unix())
	})
}

func observeCommand(method string, err error) {
	if err != nil {
		rpcErrors.WithLabelValues(methodLabel(method, err)).Inc()
		return
	}

	switch method {
	case "invoice":
		invoicesCreated.Inc()
	case "markpaid":
		invoicesPaid.Inc()
	}
}

func methodLabel(method string, err error) string {
	if errors.Is(err, command.ErrUnknownMethod) {
		return unknownMethod
	}
	return method
}

// routeLabel keeps invoice references and unmatched paths out of the label
// set.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatchedRoute
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		httpDuration.WithLabelValues(routeLabel(r)).Observe(time.Since(start).Seconds())
	})
}
