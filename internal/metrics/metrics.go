// Package metrics holds the Prometheus instrumentation of the web application.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approved_premises_http_requests_total",
		Help: "HTTP requests served, by route, method and status",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "approved_premises_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"route", "method"})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approved_premises_upstream_requests_total",
		Help: "Calls to the Approved Premises API, by endpoint and status",
	}, []string{"endpoint", "method", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "approved_premises_upstream_request_duration_seconds",
		Help:    "Latency of calls to the Approved Premises API",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	validationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approved_premises_form_validation_failures_total",
		Help: "Form pages submitted with errors, by journey, task and page",
	}, []string{"journey", "task", "page"})

	journeyReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "approved_premises_journey_reloads_total",
		Help: "Reloads of the journey definitions, by result",
	}, []string{"result"})
)

// Handler serves the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstream records a completed upstream call. status is 0 when the
// call failed before a response arrived.
func ObserveUpstream(endpoint, method string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	upstreamRequests.WithLabelValues(endpoint, method, label).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ValidationFailed counts a page submitted with errors
func ValidationFailed(journey, task, page string) {
	validationFailures.WithLabelValues(journey, task, page).Inc()
}

// JourneysReloaded counts a reload of the journey definitions
func JourneysReloaded(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	journeyReloads.WithLabelValues(result).Inc()
}

// Middleware counts and times requests by their chi route pattern, so
// record IDs do not become label values
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
