package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StatementArchiver writes wallet statement exports to durable object storage
// and returns the object location.
type StatementArchiver interface {
	Archive(ctx context.Context, ownerID string, statement []byte) (location string, err error)
}

// Client wraps a MinIO/S3 client over a private statements bucket.
type Client struct {
	bucket         string
	client         *minio.Client
	logger         *slog.Logger
	now            func() time.Time
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewClient configures an archiver using the provided endpoint and credentials.
func NewClient(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	return &Client{
		bucket: bucket,
		client: minioClient,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Archive stores the statement JSON under a per-owner, timestamped key. The
// bucket stays private; statements are financial records, not public assets.
func (c *Client) Archive(ctx context.Context, ownerID string, statement []byte) (string, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", errors.New("s3: owner id is required")
	}
	if len(statement) == 0 {
		return "", errors.New("s3: statement payload is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := fmt.Sprintf("statements/%s/%s.json", ownerID, c.now().Format("2006-01-02T15-04-05Z"))
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(statement), int64(len(statement)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", c.bucket, key)
	if c.logger != nil {
		c.logger.Info("statement archived", "bucket", c.bucket, "key", key)
	}
	return location, nil
}

// NoopArchiver fails fast when object storage is unavailable.
type NoopArchiver struct{}

func (NoopArchiver) Archive(_ context.Context, _ string, _ []byte) (string, error) {
	return "", errors.New("s3 archiver is not configured")
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return c.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ StatementArchiver = (*Client)(nil)
var _ StatementArchiver = NoopArchiver{}
