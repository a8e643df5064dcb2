// Package minio stores listing images in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/api/metrics"
	"github.com/ecofinds/marketplace/internal/core/ports"
)

const objectPrefix = "listings/"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL replaces the endpoint URL as the base of resolved references.
	PublicURL string
}

type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     zerolog.Logger
}

// NewStore connects to the endpoint and makes sure the bucket exists.
func NewStore(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client for %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	base := cfg.PublicURL
	if base == "" {
		base = client.EndpointURL().String()
	}
	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(base, "/"),
		log:     log,
	}, nil
}

var _ ports.ImageStore = (*Store)(nil)

// Upload puts data under listings/<uuid><ext> and returns the object key.
func (s *Store) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	key := objectPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  http.DetectContentType(data),
		UserMetadata: map[string]string{"original-filename": filepath.Base(filename)},
	})
	if err != nil {
		s.log.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("put object failed")
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	metrics.ImagesUploadedTotal.WithLabelValues("minio").Inc()
	s.log.Info().Str("key", key).Int64("size_bytes", info.Size).Msg("image stored")
	return key, nil
}

func (s *Store) Resolve(ref string) string {
	return resolve(s.baseURL, s.bucket, ref)
}

func resolve(baseURL, bucket, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return baseURL + "/" + bucket + "/" + ref
}
