package app

import (
	"github.com/lumamarket/settlement_layer/internal/app/services/payments"
	"github.com/lumamarket/settlement_layer/internal/app/services/rtctoken"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
	"github.com/lumamarket/settlement_layer/internal/app/storage/memory"
	"github.com/lumamarket/settlement_layer/internal/config"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

// Stores encapsulates persistence dependencies. A nil ledger defaults to
// the in-memory implementation.
type Stores struct {
	Ledger storage.LedgerStore
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Ledger     storage.LedgerStore
	Tokens     *rtctoken.Service
	Initiator  *payments.Initiator
	Reconciler *payments.Reconciler
}

// New builds a fully initialised application with the provided stores and
// configuration. The provider client is injected so tests can substitute a
// fake.
func New(cfg config.Config, stores Stores, provider payments.ChargeOpener, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Ledger == nil {
		stores.Ledger = memory.New()
	}

	return &Application{
		log:        log,
		Ledger:     stores.Ledger,
		Tokens:     rtctoken.New(cfg.Agora, log),
		Initiator:  payments.NewInitiator(stores.Ledger, provider, cfg.Paystack, log),
		Reconciler: payments.NewReconciler(stores.Ledger, cfg.Paystack.SecretKey, log),
	}
}
