package minio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Client wraps minio.Client.
type Client struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// ClientOptions contains options for client creation.
type ClientOptions struct {
	Logger *slog.Logger
}

// NewClient connects to the storage and checks the default bucket when one is configured.
func NewClient(cfg Config, options *ClientOptions) (*Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	logger := options.Logger.WithGroup("s3")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Region: cfg.Region,
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create S3 client")
	}

	if cfg.DefaultBucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout())
		defer cancel()

		ok, err := client.BucketExists(ctx, cfg.DefaultBucket)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to S3 storage")
		}
		if !ok {
			return nil, errors.Errorf("attachments bucket %q does not exist", cfg.DefaultBucket)
		}
	}

	logger.Info("S3 client initialized", "endpoint", cfg.Endpoint, "bucket", cfg.DefaultBucket)

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// MinioClient returns the underlying minio.Client.
func (c *Client) MinioClient() *minio.Client {
	return c.client
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close marks the client closed. minio.Client holds no connections to release.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.logger.Info("S3 client closed")
	return nil
}
