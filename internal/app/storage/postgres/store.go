// Package postgres implements the LedgerStore backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
	"github.com/lumamarket/settlement_layer/internal/app/storage"
)

const uniqueViolation = "23505"

// Store implements storage.LedgerStore over a database handle.
type Store struct {
	db *sql.DB
}

var _ storage.LedgerStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateTransaction(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, buyer_id, product_id, amount, currency, payment_method, payment_reference, payment_status, card_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, tx.ID, tx.BuyerID, nullable(tx.ProductID), tx.Amount, tx.Currency, tx.PaymentMethod,
		tx.PaymentReference, tx.Status, nullable(tx.CardType), tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Transaction{}, storage.ErrDuplicateReference
		}
		return ledger.Transaction{}, err
	}
	return tx, nil
}

const transactionColumns = `id, buyer_id, product_id, amount, currency, payment_method, payment_reference, payment_status, card_type, created_at, updated_at`

func (s *Store) GetTransactionByReference(ctx context.Context, reference string) (ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE payment_reference = $1
	`, reference)
	return scanTransaction(row)
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
	`, id)
	return scanTransaction(row)
}

// ApplySettlement performs the status move and the purchase insert inside
// one database transaction. The update is conditioned on the row still
// being pending, and the purchases.transaction_id unique constraint backs
// the ON CONFLICT DO NOTHING insert, so a concurrent duplicate delivery
// cannot rewrite a terminal row or create a second purchase.
func (s *Store) ApplySettlement(ctx context.Context, update storage.SettlementUpdate) (ledger.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Transaction{}, err
	}
	defer dbTx.Rollback()

	now := time.Now().UTC()
	result, err := dbTx.ExecContext(ctx, `
		UPDATE transactions
		SET payment_status = $2,
		    card_type = COALESCE(NULLIF($3, ''), card_type),
		    payment_reference = COALESCE(NULLIF($4, ''), payment_reference),
		    updated_at = $5
		WHERE id = $1 AND payment_status = 'pending'
	`, update.TransactionID, update.Status, update.CardType, update.PaymentReference, now)
	if err != nil {
		return ledger.Transaction{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		existing, err := s.GetTransactionByID(ctx, update.TransactionID)
		if err != nil {
			return ledger.Transaction{}, err
		}
		return existing, storage.ErrAlreadySettled
	}

	if update.Purchase != nil {
		p := *update.Purchase
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.PurchasedAt.IsZero() {
			p.PurchasedAt = now
		}
		_, err = dbTx.ExecContext(ctx, `
			INSERT INTO purchases (id, user_id, product_id, transaction_id, purchased_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (transaction_id) DO NOTHING
		`, p.ID, p.UserID, p.ProductID, p.TransactionID, p.PurchasedAt)
		if err != nil {
			return ledger.Transaction{}, err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return ledger.Transaction{}, err
	}
	return s.GetTransactionByID(ctx, update.TransactionID)
}

func (s *Store) ListTransactionsForBuyer(ctx context.Context, buyerID string) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *Store) ListPurchasesForUser(ctx context.Context, userID string) ([]ledger.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, product_id, transaction_id, purchased_at
		FROM purchases
		WHERE user_id = $1
		ORDER BY purchased_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ledger.Purchase
	for rows.Next() {
		var p ledger.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProductID, &p.TransactionID, &p.PurchasedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (ledger.Transaction, error) {
	var (
		tx        ledger.Transaction
		productID sql.NullString
		cardType  sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.BuyerID, &productID, &tx.Amount, &tx.Currency, &tx.PaymentMethod,
		&tx.PaymentReference, &tx.Status, &cardType, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Transaction{}, storage.ErrNotFound
	}
	if err != nil {
		return ledger.Transaction{}, err
	}
	tx.ProductID = productID.String
	tx.CardType = cardType.String
	return tx, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
