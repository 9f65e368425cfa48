package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func protectedHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(claims.Subject))
	})
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := SignTestToken(testSecret, "user-1", "buyer@example.com")
	require.NoError(t, err)

	handler := NewAuthMiddleware(testSecret, nil).Handler(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "user-1", resp.Body.String())
}

func TestAuthMiddlewareRejections(t *testing.T) {
	handler := NewAuthMiddleware(testSecret, nil).Handler(protectedHandler(t))

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token, err := SignTestToken("other-secret", "user-1", "")
	require.NoError(t, err)

	handler := NewAuthMiddleware(testSecret, nil).Handler(protectedHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://shop.example"}).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	req := httptest.NewRequest(http.MethodOptions, "/v1/payments/initialize", nil)
	req.Header.Set("Origin", "https://shop.example")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "https://shop.example", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Headers"), "X-Paystack-Signature")
}

func TestCORSDisallowedOrigin(t *testing.T) {
	handler := NewCORSMiddleware([]string{"https://shop.example"}).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
