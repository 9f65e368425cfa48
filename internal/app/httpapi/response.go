package httpapi

import (
	"time"

	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
)

type transactionResponse struct {
	ID               string `json:"id"`
	ProductID        string `json:"product_id,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference"`
	Status           string `json:"payment_status"`
	CardType         string `json:"card_type,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type purchaseResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	TransactionID string `json:"transaction_id"`
	PurchasedAt   string `json:"purchased_at"`
}

func transactionsJSON(txs []ledger.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:               tx.ID,
			ProductID:        tx.ProductID,
			Amount:           tx.Amount,
			Currency:         tx.Currency,
			PaymentMethod:    tx.PaymentMethod,
			PaymentReference: tx.PaymentReference,
			Status:           string(tx.Status),
			CardType:         tx.CardType,
			CreatedAt:        tx.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt:        tx.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func purchasesJSON(purchases []ledger.Purchase) []purchaseResponse {
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, purchaseResponse{
			ID:            p.ID,
			ProductID:     p.ProductID,
			TransactionID: p.TransactionID,
			PurchasedAt:   p.PurchasedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
