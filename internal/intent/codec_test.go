package intent

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func testKey() []byte { return bytes.Repeat([]byte{0x42}, 32) }

func testIntent() model.PaymentIntent {
	return model.PaymentIntent{
		UserID:      "u1",
		EventID:     "ev1",
		SessionID:   "sess1",
		Seats:       []string{"A1", "A2"},
		TotalCents:  5500,
		BookingDate: time.Date(2026, 10, 3, 19, 30, 0, 0, time.UTC),
		TicketType:  "GA",
		CreatedAt:   time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c, err := NewCodec(testKey())
	require.NoError(t, err)

	in := testIntent()
	token, err := c.Encode(in)
	require.NoError(t, err)

	parts := strings.SplitN(token, ":", 2)
	require.Len(t, parts, 2, "token must be nonce:ciphertext")
	assert.NotContains(t, token, "sess1", "token must not leak plaintext")

	out, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.EventID, out.EventID)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.Seats, out.Seats)
	assert.Equal(t, in.TotalCents, out.TotalCents)
	assert.Equal(t, in.TicketType, out.TicketType)
	assert.True(t, in.BookingDate.Equal(out.BookingDate))
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestCodec_FreshNoncePerToken(t *testing.T) {
	c, err := NewCodec(testKey())
	require.NoError(t, err)

	t1, err := c.Encode(testIntent())
	require.NoError(t, err)
	t2, err := c.Encode(testIntent())
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2, "identical intents must not produce identical tokens")
}

func TestCodec_TamperedCiphertext(t *testing.T) {
	c, err := NewCodec(testKey())
	require.NoError(t, err)

	token, err := c.Encode(testIntent())
	require.NoError(t, err)

	// Flip one hex digit of the ciphertext.
	b := []byte(token)
	last := len(b) - 1
	if b[last] == '0' {
		b[last] = '1'
	} else {
		b[last] = '0'
	}
	_, err = c.Decode(string(b))
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestCodec_MalformedTokens(t *testing.T) {
	c, err := NewCodec(testKey())
	require.NoError(t, err)

	for _, token := range []string{
		"",
		"no-separator",
		"zz:zz",
		"abcd:",
		":abcd",
		"abcd:abcd", // nonce too short
	} {
		_, err := c.Decode(token)
		assert.ErrorIs(t, err, ErrDecrypt, "token %q", token)
	}
}

func TestCodec_WrongKey(t *testing.T) {
	c1, err := NewCodec(testKey())
	require.NoError(t, err)
	c2, err := NewCodec(bytes.Repeat([]byte{0x7f}, 32))
	require.NoError(t, err)

	token, err := c1.Encode(testIntent())
	require.NoError(t, err)

	_, err = c2.Decode(token)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestNewCodec_RejectsBadKeySize(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	assert.Error(t, err)
}
