package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "settlement_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settlement_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "settlement_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	tokensMinted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settlement_layer",
			Subsystem: "rtc",
			Name:      "tokens_minted_total",
			Help:      "Total number of RTC access tokens minted.",
		},
		[]string{"role"},
	)

	paymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settlement_layer",
			Subsystem: "payments",
			Name:      "initiated_total",
			Help:      "Total number of charge initializations.",
		},
		[]string{"outcome"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settlement_layer",
			Subsystem: "payments",
			Name:      "webhook_events_total",
			Help:      "Total number of webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		tokensMinted,
		paymentsInitiated,
		webhookEvents,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TokenMinted records one minted token for the given role.
func TokenMinted(role string) {
	tokensMinted.WithLabelValues(role).Inc()
}

// PaymentInitiated records one charge initialization attempt.
func PaymentInitiated(outcome string) {
	paymentsInitiated.WithLabelValues(outcome).Inc()
}

// WebhookEvent records one webhook delivery by outcome, e.g. "completed",
// "failed", "duplicate", "unknown_reference", "ignored", "rejected".
func WebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		next.ServeHTTP(rec, r)
		httpInFlight.Dec()

		elapsed := time.Since(start).Seconds()
		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
