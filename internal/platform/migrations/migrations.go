// Package migrations applies the ledger schema in order. Statements are
// idempotent (IF NOT EXISTS) so Apply can run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY,
		buyer_id UUID NOT NULL,
		product_id UUID,
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'NGN',
		payment_method TEXT NOT NULL DEFAULT 'paystack',
		payment_reference TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		card_type TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_payment_reference_key
		ON transactions (payment_reference)`,
	`CREATE INDEX IF NOT EXISTS transactions_buyer_id_idx
		ON transactions (buyer_id)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		product_id UUID NOT NULL,
		transaction_id UUID NOT NULL REFERENCES transactions (id),
		purchased_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS purchases_transaction_id_key
		ON purchases (transaction_id)`,
	`CREATE INDEX IF NOT EXISTS purchases_user_id_idx
		ON purchases (user_id)`,
}

// Apply runs every migration statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
