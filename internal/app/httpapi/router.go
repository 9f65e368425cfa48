package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/lumamarket/settlement_layer/internal/app"
	"github.com/lumamarket/settlement_layer/internal/app/metrics"
	"github.com/lumamarket/settlement_layer/internal/middleware"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

// RouterConfig carries the middleware dependencies of the REST surface.
type RouterConfig struct {
	Auth      *middleware.AuthMiddleware
	CORS      *middleware.CORSMiddleware
	RateLimit *middleware.RateLimiter
	Log       *logger.Logger
}

// NewRouter builds the service router. The webhook and token endpoints are
// public; payment initiation and ledger reads require a bearer token.
func NewRouter(application *app.Application, cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Unauthenticated endpoints carry the per-client rate limit.
	public := v1.NewRoute().Subrouter()
	if cfg.RateLimit != nil {
		public.Use(cfg.RateLimit.Handler)
	}
	public.HandleFunc("/rtc/token", h.mintToken).Methods(http.MethodPost)
	public.HandleFunc("/payments/webhook", h.paymentWebhook).Methods(http.MethodPost)

	protected := v1.NewRoute().Subrouter()
	if cfg.Auth != nil {
		protected.Use(cfg.Auth.Handler)
	}
	protected.HandleFunc("/payments/initialize", h.initializePayment).Methods(http.MethodPost)
	protected.HandleFunc("/payments/transactions", h.listTransactions).Methods(http.MethodGet)
	protected.HandleFunc("/payments/purchases", h.listPurchases).Methods(http.MethodGet)

	var root http.Handler = r
	if cfg.CORS != nil {
		root = cfg.CORS.Handler(root)
	}
	return metrics.InstrumentHandler(root)
}
