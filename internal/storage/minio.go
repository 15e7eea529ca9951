package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const zipContentType = "application/zip"

// MinIOOptions configures the object store connection.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Secure    bool
}

// objectStore is the subset of *minio.Client the publisher needs.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinIO uploads archives to an S3-compatible bucket, creating it on first use.
type MinIO struct {
	client objectStore
	bucket string
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewMinIO connects to the endpoint in opts.
func NewMinIO(opts MinIOOptions, logger *zap.Logger) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinIO(client, opts.Bucket, opts.Prefix, logger), nil
}

func newMinIO(client objectStore, bucket, prefix string, logger *zap.Logger) *MinIO {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinIO{client: client, bucket: bucket, prefix: prefix, now: time.Now, logger: logger}
}

// Publish uploads localPath as <prefix>/<YYYYMMDD>/<name> and returns the
// object key.
func (m *MinIO) Publish(ctx context.Context, name, localPath string) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := ObjectKey(m.prefix, m.now(), name)
	info, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{ContentType: zipContentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	m.logger.Info("archive uploaded",
		zap.String("bucket", m.bucket),
		zap.String("object", key),
		zap.Int64("size", info.Size))
	return key, nil
}

func (m *MinIO) ensureBucket(ctx context.Context) error {
	err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	if err == nil {
		m.logger.Info("bucket created", zap.String("bucket", m.bucket))
		return nil
	}
	exists, existsErr := m.client.BucketExists(ctx, m.bucket)
	if existsErr == nil && exists {
		return nil
	}
	return fmt.Errorf("create bucket %s: %w", m.bucket, err)
}
