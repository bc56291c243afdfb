package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Upload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/static/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "tickets/b1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/static/tickets/b1.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "tickets", "b1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestLocalStore_CreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "artifacts"), "https://cdn.test")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), "a/b/c.png", []byte{1}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a/b/c.png", url)
}
