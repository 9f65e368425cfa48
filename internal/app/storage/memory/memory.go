// Package memory is an in-memory LedgerStore. It is safe for concurrent use
// and is primarily intended for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
)

// Store holds ledger records in maps guarded by a single mutex.
type Store struct {
	mu                    sync.RWMutex
	transactions          map[string]ledger.Transaction
	transactionsByRef     map[string]string
	purchases             map[string]ledger.Purchase
	purchaseByTransaction map[string]string
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		transactions:          make(map[string]ledger.Transaction),
		transactionsByRef:     make(map[string]string),
		purchases:             make(map[string]ledger.Purchase),
		purchaseByTransaction: make(map[string]string),
	}
}

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.PaymentReference != "" {
		if _, exists := s.transactionsByRef[tx.PaymentReference]; exists {
			return ledger.Transaction{}, storage.ErrDuplicateReference
		}
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	s.transactions[tx.ID] = tx
	if tx.PaymentReference != "" {
		s.transactionsByRef[tx.PaymentReference] = tx.ID
	}
	return tx, nil
}

func (s *Store) GetTransactionByReference(ctx context.Context, reference string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.transactionsByRef[reference]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	return s.transactions[id], nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (s *Store) ApplySettlement(ctx context.Context, update storage.SettlementUpdate) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[update.TransactionID]
	if !ok {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	if tx.Status != ledger.StatusPending {
		return tx, storage.ErrAlreadySettled
	}

	tx.Status = update.Status
	if update.CardType != "" {
		tx.CardType = update.CardType
	}
	if update.PaymentReference != "" && update.PaymentReference != tx.PaymentReference {
		// The provider reference supersedes the one stored at
		// initialization; the stale index entry goes with it.
		delete(s.transactionsByRef, tx.PaymentReference)
		tx.PaymentReference = update.PaymentReference
		s.transactionsByRef[update.PaymentReference] = tx.ID
	}
	tx.UpdatedAt = time.Now().UTC()
	s.transactions[tx.ID] = tx

	if update.Purchase != nil {
		// Uniqueness per transaction mirrors the postgres constraint.
		if _, exists := s.purchaseByTransaction[tx.ID]; !exists {
			p := *update.Purchase
			if p.ID == "" {
				p.ID = uuid.NewString()
			}
			if p.PurchasedAt.IsZero() {
				p.PurchasedAt = time.Now().UTC()
			}
			s.purchases[p.ID] = p
			s.purchaseByTransaction[tx.ID] = p.ID
		}
	}

	return tx, nil
}

func (s *Store) ListTransactionsForBuyer(ctx context.Context, buyerID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ledger.Transaction
	for _, tx := range s.transactions {
		if tx.BuyerID == buyerID {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *Store) ListPurchasesForUser(ctx context.Context, userID string) ([]ledger.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ledger.Purchase
	for _, p := range s.purchases {
		if p.UserID == userID {
			result = append(result, p)
		}
	}
	return result, nil
}

// PurchaseCount reports the number of purchase rows, used by tests
// asserting idempotence.
func (s *Store) PurchaseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.purchases)
}
