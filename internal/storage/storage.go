package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// AssetStore is the binary-asset collaborator for signature images and
// verification documents. The core stores only the returned URL plus its own
// encrypted copy of the payload; it never relies on the store for decryption.
type AssetStore interface {
	// Upload persists data and returns a durable URL for rendering.
	Upload(ctx context.Context, category string, data []byte) (string, error)
	// Destroy releases the asset behind a previously returned URL.
	// Best-effort; failures are logged by callers, never surfaced.
	Destroy(ctx context.Context, url string) error
}

// LocalAssetStore keeps assets on the local filesystem, mirroring the layout
// a cloud store would use. Suitable for development and tests.
type LocalAssetStore struct {
	baseURL   string
	uploadDir string
}

func NewLocalAssetStore(baseURL, uploadDir string) (*LocalAssetStore, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalAssetStore{baseURL: baseURL, uploadDir: uploadDir}, nil
}

func (s *LocalAssetStore) Upload(ctx context.Context, category string, data []byte) (string, error) {
	key := fmt.Sprintf("%s/%s.bin", category, uuid.New().String())
	fullPath := filepath.Join(s.uploadDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	return fmt.Sprintf("%s/assets/%s", s.baseURL, key), nil
}

func (s *LocalAssetStore) Destroy(ctx context.Context, url string) error {
	key, ok := keyFromURL(url)
	if !ok {
		return fmt.Errorf("unrecognized asset url %q", url)
	}
	fullPath := filepath.Join(s.uploadDir, key)
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove asset: %w", err)
	}
	return nil
}

func keyFromURL(url string) (string, bool) {
	const marker = "/assets/"
	for i := 0; i+len(marker) <= len(url); i++ {
		if url[i:i+len(marker)] == marker {
			return url[i+len(marker):], true
		}
	}
	return "", false
}
