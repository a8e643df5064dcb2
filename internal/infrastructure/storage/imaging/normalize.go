// Package imaging normalises uploaded listing photos before they are stored.
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register the PNG decoder
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"

	"github.com/ecofinds/marketplace/internal/core/domain"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const (
	MaxWidth    = 800
	JPEGQuality = 80
	// MaxPixels caps the decoded size of an upload; the header is checked
	// before any pixel buffer is allocated.
	MaxPixels = 40_000_000
)

// Normalize decodes a JPEG or PNG, scales it down to MaxWidth keeping the
// aspect ratio, and re-encodes it as JPEG. Narrower images keep their size.
func Normalize(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Reason: "must be a JPEG or PNG image"}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &domain.ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("image of %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Reason: "must be a JPEG or PNG image"}
	}

	if img.Bounds().Dx() > MaxWidth {
		img = resize.Resize(MaxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Store wraps an ImageStore so that every upload is normalised first.
type Store struct {
	next ports.ImageStore
}

func NewStore(next ports.ImageStore) *Store {
	return &Store{next: next}
}

var _ ports.ImageStore = (*Store)(nil)

func (s *Store) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	out, err := Normalize(data)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return s.next.Upload(ctx, base+".jpg", out)
}

func (s *Store) Resolve(ref string) string {
	return s.next.Resolve(ref)
}
