// Package paystack is a minimal client for the Paystack payment provider:
// charge initialization on the outbound side and webhook signature
// verification plus event parsing on the inbound side.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// APIError surfaces non-successful HTTP responses from Paystack.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Client calls the Paystack REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient builds a client for the given secret key. A nil httpClient gets
// a 30s-timeout default so a stalled provider call fails the request
// cleanly instead of hanging it.
func NewClient(secretKey string, httpClient *http.Client) (*Client, error) {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return nil, errors.New("paystack secret key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		secretKey:  secretKey,
	}, nil
}

// WithBaseURL overrides the API endpoint, used by tests against httptest
// servers.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// InitializeRequest is the charge-initialize payload. Amount is in minor
// currency units (kobo).
type InitializeRequest struct {
	Amount      int64             `json:"amount"`
	Email       string            `json:"email"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Authorization is the provider's handle for a newly opened charge.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type initializeResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Data    Authorization `json:"data"`
}

// InitializeTransaction opens a charge with the provider and returns the
// redirect handle.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	if req.Amount <= 0 {
		return nil, errors.New("amount must be positive")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, errors.New("email is required")
	}

	body, err := c.post(ctx, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	var resp initializeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("paystack rejected initialize: %s", resp.Message)
	}
	if resp.Data.Reference == "" {
		return nil, errors.New("initialize response missing reference")
	}
	return &resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call paystack: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read paystack response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
