// Package intent encodes the checkout payload into an opaque token the
// payment gateway carries as metadata. The gateway is a courier, not a
// store of truth: it is untrusted for confidentiality, so the payload
// is sealed with an AEAD and only this server's key can open it. This
// is not gateway authentication – the gateway's own callback signature
// is the trust anchor for provenance; decryption only recovers the
// payload.
package intent

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// ErrDecrypt is returned when a token is malformed, truncated or fails
// authentication (wrong key or tampered ciphertext). Decode never
// returns wrong data silently: any modification breaks the AEAD tag.
var ErrDecrypt = errors.New("intent: decryption failed")

// Codec seals and opens payment intents with a symmetric key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from a 32-byte key. Keys are supplied hex
// encoded through configuration; see config.Load.
func NewCodec(key []byte) (*Codec, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Encode serializes the intent and seals it under a fresh random
// nonce. The result is "nonce:ciphertext" in hex, safe to embed as
// gateway metadata.
func (c *Codec) Encode(in model.PaymentIntent) (string, error) {
	plain, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nil, nonce, plain, nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decode reverses Encode. Every malformed input path collapses to
// ErrDecrypt so callers cannot distinguish tampering from truncation.
func (c *Codec) Decode(token string) (model.PaymentIntent, error) {
	var out model.PaymentIntent
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 {
		return out, ErrDecrypt
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return out, ErrDecrypt
	}
	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return out, ErrDecrypt
	}
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return out, ErrDecrypt
	}
	if err := json.Unmarshal(plain, &out); err != nil {
		return out, ErrDecrypt
	}
	return out, nil
}
