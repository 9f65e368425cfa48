// Package httpapi exposes the settlement layer's REST surface.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	app "github.com/lumamarket/settlement_layer/internal/app"
	"github.com/lumamarket/settlement_layer/internal/app/services/payments"
	"github.com/lumamarket/settlement_layer/internal/app/services/rtctoken"
	"github.com/lumamarket/settlement_layer/internal/middleware"
	"github.com/lumamarket/settlement_layer/internal/paystack"
	"github.com/lumamarket/settlement_layer/internal/rtc"
	"github.com/lumamarket/settlement_layer/pkg/logger"
)

// request bodies here are small; anything larger is hostile.
const maxBodyBytes = 1 << 20

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "settlement-layer",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) mintToken(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ChannelName string `json:"channelName"`
		UID         uint32 `json:"uid"`
		Role        string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Tokens.Mint(rtctoken.MintRequest{
		ChannelName: payload.ChannelName,
		UID:         payload.UID,
		Role:        rtc.Role(payload.Role),
	})
	switch {
	case errors.Is(err, rtctoken.ErrChannelRequired):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, rtctoken.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":       result.Token,
		"appId":       result.AppID,
		"channelName": result.ChannelName,
		"uid":         result.UID,
	})
}

func (h *handler) initializePayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	var payload struct {
		Amount      int64  `json:"amount"`
		Email       string `json:"email"`
		ProductID   string `json:"productId"`
		ProductName string `json:"productName"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Initiator.Initiate(r.Context(), payments.InitiateRequest{
		BuyerID:     claims.Subject,
		Email:       payload.Email,
		Amount:      payload.Amount,
		ProductID:   payload.ProductID,
		ProductName: payload.ProductName,
	})
	switch {
	case errors.Is(err, payments.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err)
		return
	case errors.Is(err, payments.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authorization_url": result.AuthorizationURL,
		"access_code":       result.AccessCode,
		"reference":         result.Reference,
	})
}

func (h *handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	outcome, err := h.app.Reconciler.Process(r.Context(), body, r.Header.Get(paystack.SignatureHeader))
	switch {
	case errors.Is(err, payments.ErrWebhookNotConfigured):
		writeError(w, http.StatusInternalServerError, errors.New("webhook not configured"))
		return
	case errors.Is(err, payments.ErrBadSignature):
		writeError(w, http.StatusUnauthorized, errors.New("invalid signature"))
		return
	case errors.Is(err, payments.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, errors.New("malformed payload"))
		return
	case err != nil:
		h.log.WithError(err).Error("webhook processing failed")
		writeError(w, http.StatusInternalServerError, errors.New("webhook processing failed"))
		return
	}

	h.log.WithField("outcome", outcome).Info("webhook processed")
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}

func (h *handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	txs, err := h.app.Ledger.ListTransactionsForBuyer(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactionsJSON(txs)})
}

func (h *handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.Subject == "" {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return
	}

	purchases, err := h.app.Ledger.ListPurchasesForUser(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchasesJSON(purchases)})
}

func decodeJSON(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
