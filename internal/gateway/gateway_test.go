package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)
	sig := SignPayload("sk_test_secret", payload)

	c := NewClient(Config{SecretKey: "sk_test_secret"})
	assert.True(t, c.VerifySignature(payload, sig))
	assert.False(t, c.VerifySignature(payload, "bogus"))
	assert.False(t, c.VerifySignature([]byte(`{"event":"charge.success" }`), sig),
		"any byte change invalidates the signature")
	assert.False(t, NewClient(Config{SecretKey: "other"}).VerifySignature(payload, sig))
}

func TestParseNotification(t *testing.T) {
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"id": 302961,
			"reference": "cs_abc123",
			"status": "success",
			"metadata": {"intent": "aa:bb"}
		}
	}`)
	n, err := ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, "cs_abc123", n.SessionID)
	assert.Equal(t, "302961", n.PaymentID)
	assert.True(t, n.Succeeded())
	assert.Equal(t, "aa:bb", n.Metadata["intent"])
}

func TestParseNotification_MissingReference(t *testing.T) {
	_, err := ParseNotification([]byte(`{"event":"charge.success","data":{"status":"success"}}`))
	assert.Error(t, err)

	_, err = ParseNotification([]byte(`not json`))
	assert.Error(t, err)
}

func TestNotification_Succeeded(t *testing.T) {
	assert.True(t, (&Notification{Status: "success"}).Succeeded())
	assert.True(t, (&Notification{Status: "successful"}).Succeeded())
	assert.False(t, (&Notification{Status: "failed"}).Succeeded())
	assert.False(t, (&Notification{}).Succeeded())
}

func TestClient_CreateCheckoutSession(t *testing.T) {
	var got initializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.test/xyz",
				"access_code":       "xyz",
				"reference":         got.Reference,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{SecretKey: "sk_test_secret", BaseURL: srv.URL})
	sess, err := c.CreateCheckoutSession(context.Background(), CheckoutParams{
		Email:       "buyer@example.test",
		AmountCents: 5500,
		Metadata:    map[string]string{"intent": "aa:bb"},
		SuccessURL:  "https://example.test/success",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.test/xyz", sess.URL)
	assert.Equal(t, got.Reference, sess.ID, "session id is the generated reference")
	assert.Equal(t, uint32(5500), got.Amount)
	assert.Equal(t, "aa:bb", got.Metadata["intent"])
}

func TestClient_CreateCheckoutSession_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{SecretKey: "bad", BaseURL: srv.URL})
	_, err := c.CreateCheckoutSession(context.Background(), CheckoutParams{Email: "x@y.test", AmountCents: 100})
	assert.ErrorContains(t, err, "Invalid key")
}

func TestSandbox_CompletedPayloadVerifies(t *testing.T) {
	s := NewSandbox()
	sess, err := s.CreateCheckoutSession(context.Background(), CheckoutParams{
		Email:       "buyer@example.test",
		AmountCents: 100,
		Metadata:    map[string]string{"intent": "aa:bb"},
	})
	require.NoError(t, err)

	body, sig, err := s.CompletedPayload(sess.ID)
	require.NoError(t, err)
	assert.True(t, s.VerifySignature(body, sig))

	n, err := ParseNotification(body)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, n.SessionID)
	assert.True(t, n.Succeeded())
	assert.Equal(t, "aa:bb", n.Metadata["intent"], "metadata rides the callback untouched")

	_, _, err = s.CompletedPayload("cs_unknown")
	assert.Error(t, err)
}
