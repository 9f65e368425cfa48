// Package ledger defines the durable payment records and the settlement
// state machine applied to them.
package ledger

import "time"

// Status is the lifecycle state of a transaction. Completed and failed are
// terminal; no transition is defined out of them.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is defined for the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is one payment attempt. It is created exactly once in pending
// state by the initiator and mutated only by webhook reconciliation.
type Transaction struct {
	ID               string
	BuyerID          string
	ProductID        string // empty when the charge was not tied to a catalog entry
	Amount           int64  // minor currency units
	Currency         string
	PaymentMethod    string
	PaymentReference string // provider-assigned, unique per charge attempt
	Status           Status
	CardType         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Purchase records a completed product sale. At most one exists per
// transaction, created only when the transaction completes with a product
// reference attached.
type Purchase struct {
	ID            string
	UserID        string
	ProductID     string
	TransactionID string
	PurchasedAt   time.Time
}
