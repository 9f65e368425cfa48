package payments

import (
	"context"
	"errors"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
	"github.com/lumamarket/settlement_layer/internal/app/metrics"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
	"github.com/lumamarket/settlement_layer/internal/paystack"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

// Reconciler errors, mapped to HTTP statuses at the API boundary.
var (
	// ErrWebhookNotConfigured signals a missing verification secret.
	ErrWebhookNotConfigured = errors.New("webhook secret not configured")
	// ErrBadSignature covers both a missing and a mismatched signature.
	// Nothing is read from the ledger before it is returned.
	ErrBadSignature = errors.New("webhook signature invalid")
	// ErrMalformedPayload signals a body that is not valid JSON.
	ErrMalformedPayload = errors.New("webhook payload malformed")
)

// Outcome classifies a handled webhook delivery.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeFailed           Outcome = "failed"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeUnknownReference Outcome = "unknown_reference"
	OutcomeIgnored          Outcome = "ignored"
)

// Reconciler verifies provider callbacks and applies them to the ledger.
type Reconciler struct {
	store  storage.LedgerStore
	secret string
	log    *logger.Logger
}

// NewReconciler constructs the reconciler with the webhook verification
// secret.
func NewReconciler(store storage.LedgerStore, secret string, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewDefault("reconciler")
	}
	return &Reconciler{store: store, secret: secret, log: log}
}

// Process authenticates and applies one webhook delivery. rawBody must be
// the exact bytes received; the signature is computed over them, not over
// re-serialized JSON. Any returned Outcome acknowledges the delivery; the
// error cases are the only ones that surface as non-200 responses.
func (r *Reconciler) Process(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	if r.secret == "" {
		return "", ErrWebhookNotConfigured
	}
	if !paystack.VerifySignature(r.secret, rawBody, signature) {
		metrics.WebhookEvent("rejected")
		return "", ErrBadSignature
	}

	event, err := paystack.ParseEvent(rawBody)
	if err != nil {
		metrics.WebhookEvent("malformed")
		return "", ErrMalformedPayload
	}

	outcome, err := r.apply(ctx, event)
	if err != nil {
		return "", err
	}
	metrics.WebhookEvent(string(outcome))
	return outcome, nil
}

func (r *Reconciler) apply(ctx context.Context, event *paystack.Event) (Outcome, error) {
	var settlement ledger.SettlementEvent
	switch event.Event {
	case paystack.EventChargeSuccess:
		settlement = ledger.EventChargeSucceeded
	case paystack.EventChargeFailed:
		settlement = ledger.EventChargeFailed
	default:
		r.log.WithField("event", event.Event).Info("unhandled webhook event")
		return OutcomeIgnored, nil
	}

	tx, referenceBackfill, err := r.lookup(ctx, event)
	if errors.Is(err, storage.ErrNotFound) {
		// Redelivery cannot create the row, so this is acknowledged as a
		// non-fatal anomaly instead of surfaced to the provider.
		r.log.WithField("reference", event.Data.Reference).
			Warn("webhook references unknown transaction")
		return OutcomeUnknownReference, nil
	}
	if err != nil {
		return "", err
	}

	next, ok := ledger.Next(tx.Status, settlement)
	if !ok {
		r.auditReplay(tx, event)
		return OutcomeDuplicate, nil
	}

	update := storage.SettlementUpdate{
		TransactionID: tx.ID,
		Status:        next,
		CardType:      event.CardType(),
	}
	if referenceBackfill {
		update.PaymentReference = event.Data.Reference
	}
	if next == ledger.StatusCompleted {
		if p := purchaseFor(tx, event); p != nil {
			update.Purchase = p
		}
	}

	settled, err := r.store.ApplySettlement(ctx, update)
	if errors.Is(err, storage.ErrAlreadySettled) {
		// Lost the race against a concurrent duplicate delivery.
		r.auditReplay(settled, event)
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return "", err
	}

	r.log.WithField("transaction_id", settled.ID).
		WithField("reference", settled.PaymentReference).
		WithField("status", settled.Status).
		Info("transaction settled")

	if next == ledger.StatusCompleted {
		return OutcomeCompleted, nil
	}
	return OutcomeFailed, nil
}

// lookup finds the target transaction by provider reference, falling back
// to the internal transaction id the charge metadata carries. The second
// return value reports whether the provider reference must be backfilled
// onto the row.
func (r *Reconciler) lookup(ctx context.Context, event *paystack.Event) (ledger.Transaction, bool, error) {
	tx, err := r.store.GetTransactionByReference(ctx, event.Data.Reference)
	if err == nil {
		return tx, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return ledger.Transaction{}, false, err
	}

	if event.Data.Metadata == nil || event.Data.Metadata.TransactionID == "" {
		return ledger.Transaction{}, false, storage.ErrNotFound
	}
	tx, err = r.store.GetTransactionByID(ctx, event.Data.Metadata.TransactionID)
	if err != nil {
		return ledger.Transaction{}, false, err
	}
	return tx, true, nil
}

// purchaseFor derives the purchase row for a completed charge, preferring
// the ledger row's identifiers and falling back to charge metadata.
func purchaseFor(tx ledger.Transaction, event *paystack.Event) *ledger.Purchase {
	productID := tx.ProductID
	userID := tx.BuyerID
	if productID == "" && event.Data.Metadata != nil {
		productID = event.Data.Metadata.ProductID
		if userID == "" {
			userID = event.Data.Metadata.UserID
		}
	}
	if productID == "" || userID == "" {
		return nil
	}
	return &ledger.Purchase{
		UserID:        userID,
		ProductID:     productID,
		TransactionID: tx.ID,
	}
}

// auditReplay records a delivery that arrived after the transaction was
// already terminal. A replay carrying a different terminal status than the
// ledger is a provider/ledger disagreement worth alerting on, not a bare
// no-op.
func (r *Reconciler) auditReplay(tx ledger.Transaction, event *paystack.Event) {
	entry := r.log.WithField("transaction_id", tx.ID).
		WithField("reference", event.Data.Reference).
		WithField("ledger_status", tx.Status).
		WithField("event", event.Event)

	conflicting := (event.Event == paystack.EventChargeSuccess && tx.Status == ledger.StatusFailed) ||
		(event.Event == paystack.EventChargeFailed && tx.Status == ledger.StatusCompleted)
	if conflicting {
		entry.Warn("terminal replay conflicts with ledger status")
		return
	}
	entry.Info("duplicate webhook delivery ignored")
}
