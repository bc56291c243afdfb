package sweeper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLockStore struct {
	removed int64
	err     error
	calls   int
}

func (s *stubLockStore) Sweep(context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func TestSweeper_ReportsRemovedCount(t *testing.T) {
	store := &stubLockStore{removed: 4}
	n, err := New(store).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 1, store.calls)
}

func TestSweeper_PropagatesStoreError(t *testing.T) {
	store := &stubLockStore{err: errors.New("db down")}
	_, err := New(store).Sweep(context.Background())
	assert.Error(t, err)
}
