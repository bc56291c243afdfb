// Package storage persists ticket artifacts (QR images) and returns
// publicly reachable URLs for them.
package storage

import "context"

// ArtifactStore uploads an artifact under a key and returns its URL.
// Implementations: S3Store for S3-compatible object storage (including
// Cloudflare R2), LocalStore for credential-less development.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
