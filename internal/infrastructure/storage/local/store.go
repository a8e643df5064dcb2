// Package local keeps uploaded images on the local filesystem. The HTTP layer
// serves the directory under URLPrefix.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const URLPrefix = "/uploads"

type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates dir when missing.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

var _ ports.ImageStore = (*Store)(nil)

// Dir is the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Upload writes data under a fresh uuid name that keeps the extension.
// The returned reference is that file name.
func (s *Store) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, ref)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write image: %w", err)
	}

	metrics.ImagesUploadedTotal.WithLabelValues("local").Inc()
	s.log.Info().Str("ref", ref).Int("size_bytes", len(data)).Msg("image stored")
	return ref, nil
}

// Resolve maps a reference to its public path. Absolute URLs pass through so
// listings may point at external images.
func (s *Store) Resolve(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return URLPrefix + "/" + ref
}
