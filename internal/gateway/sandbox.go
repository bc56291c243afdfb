package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

// SandboxSecret signs sandbox webhook payloads. Development tooling
// uses it to fabricate completion callbacks against a local server.
const SandboxSecret = "sandbox-webhook-secret"

// Sandbox is an in-memory PaymentGateway used when no live credentials
// are configured. Sessions it creates are remembered so development
// tooling can replay them as completion callbacks.
type Sandbox struct {
	mu       sync.Mutex
	sessions map[string]CheckoutParams
}

// NewSandbox constructs the sandbox gateway.
func NewSandbox() *Sandbox {
	log.Printf("gateway: no secret key configured, using sandbox")
	return &Sandbox{sessions: make(map[string]CheckoutParams)}
}

// CreateCheckoutSession fabricates a session id and a local redirect URL.
func (s *Sandbox) CreateCheckoutSession(_ context.Context, p CheckoutParams) (*CheckoutSession, error) {
	id := "cs_test_" + uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = p
	s.mu.Unlock()
	return &CheckoutSession{ID: id, URL: "https://sandbox.invalid/pay/" + id}, nil
}

// VerifySignature checks against the fixed sandbox secret.
func (s *Sandbox) VerifySignature(payload []byte, signature string) bool {
	return verifyHMAC(SandboxSecret, payload, signature)
}

// CompletedPayload renders a signed payment-completed callback body
// for a session previously created through this sandbox, mimicking
// what the live provider would deliver.
func (s *Sandbox) CompletedPayload(sessionID string) (body []byte, signature string, err error) {
	s.mu.Lock()
	p, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("gateway: unknown sandbox session %q", sessionID)
	}
	body, err = json.Marshal(map[string]interface{}{
		"event": "charge.success",
		"data": map[string]interface{}{
			"id":        1,
			"reference": sessionID,
			"status":    "success",
			"metadata":  p.Metadata,
		},
	})
	if err != nil {
		return nil, "", err
	}
	return body, SignPayload(SandboxSecret, body), nil
}
