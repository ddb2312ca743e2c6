// internal/app/system/imagehost/minio.go
package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig configures an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base that delivery URLs start with, e.g.
	// "https://cdn.example.com/eventportal". Defaults to the endpoint
	// plus the bucket.
	PublicURL string
}

// MinIO stores images in an S3-compatible bucket.
type MinIO struct {
	mc      *minio.Client
	bucket  string
	baseURL string
}

// NewMinIO builds a client for cfg. It does not contact the server.
func NewMinIO(cfg MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio: endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("minio: access key and secret key are required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "eventportal"
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}

	base := cfg.PublicURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint + "/" + cfg.Bucket
	}
	return &MinIO{mc: mc, bucket: cfg.Bucket, baseURL: strings.TrimRight(base, "/")}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.mc.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: create bucket: %w", err)
	}
	return nil
}

func (m *MinIO) Upload(ctx context.Context, obj Object) (Stored, error) {
	name := obj.Name
	if name == "" {
		name = uuid.NewString()
	}
	key := path.Join(obj.Folder, name+extFor(obj.ContentType))

	_, err := m.mc.PutObject(ctx, m.bucket, key, bytes.NewReader(obj.Data), int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return Stored{}, fmt.Errorf("minio upload %s: %w", key, err)
	}
	return Stored{URL: m.baseURL + "/" + key, PublicID: key}, nil
}

func (m *MinIO) Destroy(ctx context.Context, publicID string) error {
	if _, err := m.mc.StatObject(ctx, m.bucket, publicID, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("minio stat %s: %w", publicID, err)
	}
	if err := m.mc.RemoveObject(ctx, m.bucket, publicID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", publicID, err)
	}
	return nil
}

// PublicID strips the bucket's public base from rawURL.
func (m *MinIO) PublicID(rawURL string) string {
	return keyUnder(m.baseURL, rawURL)
}

func keyUnder(base, rawURL string) string {
	if !strings.HasPrefix(rawURL, base+"/") {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	key := strings.TrimPrefix(rawURL, base+"/")
	if u.RawQuery != "" {
		key = strings.TrimSuffix(key, "?"+u.RawQuery)
	}
	if key == "" || strings.Contains(key, "..") {
		return ""
	}
	return key
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
