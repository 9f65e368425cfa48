package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/lumamarket/settlement_layer/internal/app"
	"github.com/lumamarket/settlement_layer/internal/app/domain/ledger"
	"github.com/lumamarket/settlement_layer/internal/app/storage/memory"
	"github.com/lumamarket/settlement_layer/internal/config"
	"github.com/lumamarket/settlement_layer/internal/middleware"
	"github.com/lumamarket/settlement_layer/internal/paystack"
	"github.com/lumamarket/settlement_layer/internal/rtc"
)

const (
	testJWTSecret      = "test-jwt-secret"
	testPaystackSecret = "sk_test_secret"
)

type stubProvider struct {
	auth *paystack.Authorization
	err  error
}

func (s *stubProvider) InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.auth, nil
}

func testConfig() config.Config {
	return config.Config{
		Agora: config.AgoraConfig{
			AppID:          "test-app-id",
			AppCertificate: "test-app-certificate",
			TokenTTL:       time.Hour,
		},
		Paystack: config.PaystackConfig{SecretKey: testPaystackSecret},
		Auth:     config.AuthConfig{JWTSecret: testJWTSecret},
	}
}

func newTestServer(t *testing.T, store *memory.Store, provider *stubProvider) http.Handler {
	t.Helper()
	if provider == nil {
		provider = &stubProvider{auth: &paystack.Authorization{
			AuthorizationURL: "https://checkout.paystack.com/abc",
			AccessCode:       "abc",
			Reference:        "REF123",
		}}
	}
	application := app.New(testConfig(), app.Stores{Ledger: store}, provider, nil)
	return NewRouter(application, RouterConfig{
		Auth: middleware.NewAuthMiddleware(testJWTSecret, nil),
		CORS: middleware.NewCORSMiddleware([]string{"*"}),
	})
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func authed(t *testing.T, req *http.Request, subject string) *http.Request {
	t.Helper()
	token, err := middleware.SignTestToken(testJWTSecret, subject, "buyer@example.com")
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMintTokenEndpoint(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	req := jsonRequest(t, http.MethodPost, "/v1/rtc/token", map[string]any{
		"channelName": "room-42",
		"uid":         7,
		"role":        "subscriber",
	})
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Token       string `json:"token"`
		AppID       string `json:"appId"`
		ChannelName string `json:"channelName"`
		UID         uint32 `json:"uid"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "test-app-id", out.AppID)
	assert.Equal(t, "room-42", out.ChannelName)
	assert.Equal(t, uint32(7), out.UID)

	parsed, err := rtc.Parse(out.Token)
	require.NoError(t, err)
	assert.True(t, rtc.Verify(parsed, "test-app-id", "test-app-certificate", "room-42", 7))
	assert.Equal(t, 1, parsed.Privileges.Len())
}

func TestMintTokenMissingChannel(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	req := jsonRequest(t, http.MethodPost, "/v1/rtc/token", map[string]any{"uid": 1})
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInitializePaymentEndpoint(t *testing.T) {
	store := memory.New()
	server := newTestServer(t, store, nil)

	req := authed(t, jsonRequest(t, http.MethodPost, "/v1/payments/initialize", map[string]any{
		"amount": 500000,
		"email":  "buyer@example.com",
	}), "user-1")
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "REF123", out.Reference)

	tx, err := store.GetTransactionByReference(context.Background(), "REF123")
	require.NoError(t, err)
	assert.Equal(t, "user-1", tx.BuyerID)
	assert.Equal(t, ledger.StatusPending, tx.Status)
}

func TestInitializePaymentRequiresAuth(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	req := jsonRequest(t, http.MethodPost, "/v1/payments/initialize", map[string]any{
		"amount": 1000,
		"email":  "buyer@example.com",
	})
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func postWebhook(server http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func TestWebhookLifecycle(t *testing.T) {
	store := memory.New()
	server := newTestServer(t, store, nil)

	created, err := store.CreateTransaction(context.Background(), ledger.Transaction{
		BuyerID:          "user-1",
		ProductID:        "p1",
		Amount:           500000,
		Currency:         "NGN",
		PaymentMethod:    "paystack",
		PaymentReference: "REF123",
		Status:           ledger.StatusPending,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"event": "charge.success",
		"data": map[string]any{
			"reference": "REF123",
			"amount":    500000,
			"customer":  map[string]any{"email": "buyer@example.com"},
		},
	})
	require.NoError(t, err)
	signature := paystack.ComputeSignature(testPaystackSecret, body)

	resp := postWebhook(server, body, signature)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"received":true}`, resp.Body.String())

	tx, err := store.GetTransactionByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, tx.Status)
	assert.Equal(t, 1, store.PurchaseCount())

	// Redelivery of the identical payload stays acknowledged and changes
	// nothing.
	resp = postWebhook(server, body, signature)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, store.PurchaseCount())
}

func TestWebhookSignatureFailures(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	body := []byte(`{"event":"charge.success","data":{"reference":"REF123"}}`)

	resp := postWebhook(server, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = postWebhook(server, body, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestWebhookMalformedPayload(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	body := []byte("{not json")
	resp := postWebhook(server, body, paystack.ComputeSignature(testPaystackSecret, body))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWebhookUnknownReferenceAcknowledged(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	body := []byte(`{"event":"charge.success","data":{"reference":"NOPE"}}`)
	resp := postWebhook(server, body, paystack.ComputeSignature(testPaystackSecret, body))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"received":true}`, resp.Body.String())
}

func TestLedgerReadEndpoints(t *testing.T) {
	store := memory.New()
	server := newTestServer(t, store, nil)

	created, err := store.CreateTransaction(context.Background(), ledger.Transaction{
		BuyerID:          "user-1",
		ProductID:        "p1",
		Amount:           500000,
		PaymentReference: "REF123",
		Status:           ledger.StatusPending,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"event": "charge.success",
		"data":  map[string]any{"reference": "REF123"},
	})
	require.NoError(t, err)
	resp := postWebhook(server, body, paystack.ComputeSignature(testPaystackSecret, body))
	require.Equal(t, http.StatusOK, resp.Code)

	req := authed(t, httptest.NewRequest(http.MethodGet, "/v1/payments/transactions", nil), "user-1")
	resp = httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var txOut struct {
		Transactions []struct {
			ID     string `json:"id"`
			Status string `json:"payment_status"`
		} `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &txOut))
	require.Len(t, txOut.Transactions, 1)
	assert.Equal(t, created.ID, txOut.Transactions[0].ID)
	assert.Equal(t, "completed", txOut.Transactions[0].Status)

	req = authed(t, httptest.NewRequest(http.MethodGet, "/v1/payments/purchases", nil), "user-1")
	resp = httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var pOut struct {
		Purchases []struct {
			TransactionID string `json:"transaction_id"`
		} `json:"purchases"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &pOut))
	require.Len(t, pOut.Purchases, 1)
	assert.Equal(t, created.ID, pOut.Purchases[0].TransactionID)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, memory.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "healthy")
}

func TestPublicRoutesRateLimited(t *testing.T) {
	store := memory.New()
	application := app.New(testConfig(), app.Stores{Ledger: store}, &stubProvider{auth: &paystack.Authorization{
		AuthorizationURL: "https://checkout.paystack.com/abc",
		AccessCode:       "abc",
		Reference:        "REF123",
	}}, nil)
	server := NewRouter(application, RouterConfig{
		Auth:      middleware.NewAuthMiddleware(testJWTSecret, nil),
		CORS:      middleware.NewCORSMiddleware([]string{"*"}),
		RateLimit: middleware.NewRateLimiter(1, 2, nil),
	})

	send := func(path string) int {
		req := jsonRequest(t, http.MethodPost, path, map[string]any{"channelName": "room-1"})
		req.RemoteAddr = "10.0.0.9:4000"
		resp := httptest.NewRecorder()
		server.ServeHTTP(resp, req)
		return resp.Code
	}

	// Token mint and webhook share the client's bucket.
	assert.Equal(t, http.StatusOK, send("/v1/rtc/token"))
	assert.Equal(t, http.StatusOK, send("/v1/rtc/token"))
	assert.Equal(t, http.StatusTooManyRequests, send("/v1/rtc/token"))
	assert.Equal(t, http.StatusTooManyRequests, send("/v1/payments/webhook"))

	// Routes outside the public subrouter are not limited.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.9:4000"
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}
