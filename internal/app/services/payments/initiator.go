// Package payments owns the payment lifecycle: opening charges with the
// provider and reconciling its webhook callbacks into the ledger.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
	"github.com/lumamarket/settlement_layer/internal/app/metrics"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
	"github.com/lumamarket/settlement_layer/internal/config"
	"github.com/lumamarket/settlement_layer/internal/paystack"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

const (
	defaultCurrency = "NGN"
	paymentMethod   = "paystack"
)

// ErrUnauthenticated signals an initiate call without a caller identity.
var ErrUnauthenticated = errors.New("caller is not authenticated")

// ErrProviderUnavailable wraps provider-call failures on the initiate path.
// No ledger row exists when it is returned; the caller may retry.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// ChargeOpener is the slice of the provider client the initiator needs.
type ChargeOpener interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error)
}

// Initiator opens provider charges and records them as pending
// transactions.
type Initiator struct {
	store    storage.LedgerStore
	provider ChargeOpener
	cfg      config.PaystackConfig
	log      *logger.Logger
}

// NewInitiator constructs the initiator.
func NewInitiator(store storage.LedgerStore, provider ChargeOpener, cfg config.PaystackConfig, log *logger.Logger) *Initiator {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	return &Initiator{store: store, provider: provider, cfg: cfg, log: log}
}

// InitiateRequest describes one charge attempt. Amount is in minor
// currency units.
type InitiateRequest struct {
	BuyerID     string
	Email       string
	Amount      int64
	ProductID   string
	ProductName string
}

// InitiateResult mirrors the provider's redirect handle.
type InitiateResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Initiate opens the charge provider-side and then writes the pending
// ledger row. The provider call comes first: a provider failure leaves no
// row behind, while a persistence failure after a successful provider call
// is logged as a reconciliation gap rather than masked.
func (i *Initiator) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if strings.TrimSpace(req.BuyerID) == "" {
		return InitiateResult{}, ErrUnauthenticated
	}

	auth, err := i.provider.InitializeTransaction(ctx, paystack.InitializeRequest{
		Amount:      req.Amount,
		Email:       req.Email,
		CallbackURL: i.cfg.CallbackURL,
		Metadata: map[string]string{
			"user_id":      req.BuyerID,
			"product_id":   req.ProductID,
			"product_name": req.ProductName,
		},
	})
	if err != nil {
		metrics.PaymentInitiated("provider_error")
		return InitiateResult{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	tx := ledger.Transaction{
		BuyerID:          req.BuyerID,
		Amount:           req.Amount,
		Currency:         defaultCurrency,
		PaymentMethod:    paymentMethod,
		PaymentReference: auth.Reference,
		Status:           ledger.StatusPending,
	}
	// A malformed product reference is dropped rather than failing the
	// charge; the ledger only records identifiers that can point at a
	// real catalog entry.
	if _, err := uuid.Parse(req.ProductID); err == nil {
		tx.ProductID = req.ProductID
	}

	if _, err := i.store.CreateTransaction(ctx, tx); err != nil {
		metrics.PaymentInitiated("persistence_error")
		i.log.WithError(err).
			WithField("reference", auth.Reference).
			Error("charge opened provider-side but pending row not written; needs reconciliation")
		return InitiateResult{}, fmt.Errorf("record pending transaction: %w", err)
	}

	metrics.PaymentInitiated("ok")
	i.log.WithField("reference", auth.Reference).
		WithField("buyer_id", req.BuyerID).
		WithField("amount", req.Amount).
		Info("charge initialized")

	return InitiateResult{
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		Reference:        auth.Reference,
	}, nil
}
