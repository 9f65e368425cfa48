// Package storage declares the persistence interfaces of the settlement
// layer. Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
)

// ErrNotFound marks a lookup miss for any record type.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateReference marks an attempt to create a second transaction for
// the same provider reference.
var ErrDuplicateReference = errors.New("payment reference already recorded")

// ErrAlreadySettled marks a settlement attempt against a transaction that
// is no longer pending. Settlements apply only from the pending state, so a
// duplicate or late delivery surfaces as this error instead of a rewrite.
var ErrAlreadySettled = errors.New("transaction already settled")

// SettlementUpdate is the atomic unit the reconciler applies: the status
// move, the card type learned from the provider, an optional backfill of
// the provider reference (metadata-fallback matches), and at most one
// purchase row. Either all of it becomes visible or none of it.
type SettlementUpdate struct {
	TransactionID    string
	Status           ledger.Status
	CardType         string
	PaymentReference string
	Purchase         *ledger.Purchase
}

// LedgerStore persists transactions and purchases. Purchase creation is
// idempotent per transaction: applying the same settlement twice leaves
// exactly one purchase row.
type LedgerStore interface {
	CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (ledger.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (ledger.Transaction, error)
	ApplySettlement(ctx context.Context, update SettlementUpdate) (ledger.Transaction, error)
	ListTransactionsForBuyer(ctx context.Context, buyerID string) ([]ledger.Transaction, error)
	ListPurchasesForUser(ctx context.Context, userID string) ([]ledger.Purchase, error)
}
