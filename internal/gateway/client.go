package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Config holds the live gateway credentials and endpoints.
type Config struct {
	SecretKey   string
	BaseURL     string // defaults to the provider API root
	CallbackURL string // where the buyer lands after paying
}

// Client is the live PaymentGateway implementation. It speaks the
// provider's transaction-initialize API: a POST creates a hosted
// checkout session and returns the redirect URL; completion arrives
// later on the webhook, signed with HMAC-SHA512 over the raw body.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient constructs a live gateway client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type initializeRequest struct {
	Email       string            `json:"email"`
	Amount      uint32            `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// CreateCheckoutSession initializes a hosted checkout. The reference
// we generate becomes the gateway session id: it is echoed back in the
// completion callback and keys the booking's idempotency guard.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	reference := "cs_" + uuid.NewString()
	body, err := json.Marshal(initializeRequest{
		Email:       p.Email,
		Amount:      p.AmountCents,
		Currency:    p.Currency,
		Reference:   reference,
		CallbackURL: p.SuccessURL,
		Metadata:    p.Metadata,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: initialize request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway: initialize returned %d: %s", resp.StatusCode, raw)
	}
	var out initializeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gateway: decode initialize response: %w", err)
	}
	if !out.Status {
		return nil, fmt.Errorf("gateway: initialize rejected: %s", out.Message)
	}
	return &CheckoutSession{ID: out.Data.Reference, URL: out.Data.AuthorizationURL}, nil
}

// VerifySignature checks the webhook HMAC-SHA512 signature in constant
// time against the secret key.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	return verifyHMAC(c.cfg.SecretKey, payload, signature)
}

func verifyHMAC(secret string, payload []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SignPayload computes the HMAC-SHA512 hex signature for a payload.
// Exposed for the sandbox and for tests that fabricate callbacks.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
