package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

// MinIOClient stores uploaded meeting audio
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // e.g. https://minio.example.com when MinIO sits behind a proxy
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}

	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the bucket when missing. Audio is private, so no read policy is set.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutAudio uploads audio bytes under key and returns the object's URL
func (m *MinIOClient) PutAudio(ctx context.Context, key string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	return m.objectURL(key), nil
}

// Ping checks that the bucket is reachable
func (m *MinIOClient) Ping(ctx context.Context) error {
	if _, err := m.client.BucketExists(ctx, m.bucket); err != nil {
		return fmt.Errorf("failed to reach object storage: %w", err)
	}
	return nil
}

func (m *MinIOClient) objectURL(key string) string {
	base := m.publicURL
	if base == "" {
		base = strings.TrimRight(m.client.EndpointURL().String(), "/")
	}
	return base + "/" + path.Join(m.bucket, key)
}
