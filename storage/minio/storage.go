package minio

import (
	"context"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pure-golang/zeptomail/storage"
)

var _ storage.Storage = (*Storage)(nil)

var tracer = otel.Tracer("github.com/pure-golang/zeptomail/storage/minio")

var errClosed = &storage.StorageError{Code: storage.CodeInternalError, Message: "storage client is closed"}

// Storage implements storage.Storage on top of Client.
type Storage struct {
	client *Client
	logger *slog.Logger
}

// StorageOptions contains options for Storage creation.
type StorageOptions struct {
	Logger *slog.Logger
}

// NewStorage creates a Storage using client.
func NewStorage(client *Client, opts *StorageOptions) *Storage {
	if opts == nil {
		opts = &StorageOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Storage{
		client: client,
		logger: opts.Logger.WithGroup("storage").With("backend", "s3"),
	}
}

// NewDefault creates a Storage with a new client.
func NewDefault(cfg Config) (*Storage, error) {
	client, err := NewClient(cfg, nil)
	if err != nil {
		return nil, err
	}
	return NewStorage(client, nil), nil
}

// start opens a span and resolves the bucket.
func (s *Storage) start(ctx context.Context, op, bucket, key string) (context.Context, trace.Span, string) {
	if bucket == "" {
		bucket = s.client.cfg.DefaultBucket
	}

	ctx, span := tracer.Start(ctx, "S3."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("s3.bucket", bucket),
		attribute.String("s3.key", key),
	)
	return ctx, span, bucket
}

// Put stores an object.
func (s *Storage) Put(ctx context.Context, bucket, key string, reader io.Reader, opts *storage.PutOptions) error {
	ctx, span, bucket := s.start(ctx, "Put", bucket, key)
	defer span.End()

	if s.client.isClosed() {
		recordError(span, errClosed)
		return errClosed
	}
	if opts == nil {
		opts = &storage.PutOptions{}
	}

	info, err := s.client.client.PutObject(ctx, bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Metadata,
	})
	if err != nil {
		recordError(span, err)
		return errors.Wrap(toStorageError(err, bucket, key), "failed to put object")
	}

	span.SetAttributes(attribute.Int64("s3.size", info.Size))
	span.SetStatus(codes.Ok, "")
	s.logger.Debug("object stored", "bucket", bucket, "key", key, "size", info.Size)
	return nil
}

// Get opens an object. Stat is performed eagerly so missing objects fail here
// rather than on the first Read.
func (s *Storage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	ctx, span, bucket := s.start(ctx, "Get", bucket, key)
	defer span.End()

	if s.client.isClosed() {
		recordError(span, errClosed)
		return nil, nil, errClosed
	}

	obj, err := s.client.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		recordError(span, err)
		return nil, nil, toStorageError(err, bucket, key)
	}

	stat, err := obj.Stat()
	if err != nil {
		if closeErr := obj.Close(); closeErr != nil {
			s.logger.With("error", closeErr).Warn("failed to close object after stat error")
		}
		recordError(span, err)
		return nil, nil, toStorageError(err, bucket, key)
	}

	span.SetAttributes(attribute.Int64("s3.size", stat.Size))
	span.SetStatus(codes.Ok, "")

	return obj, &storage.ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
		Metadata:     stat.UserMetadata,
	}, nil
}

// Exists reports whether an object exists. A missing object is not an error.
func (s *Storage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	ctx, span, bucket := s.start(ctx, "Exists", bucket, key)
	defer span.End()

	if s.client.isClosed() {
		recordError(span, errClosed)
		return false, errClosed
	}

	_, err := s.client.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		serr := toStorageError(err, bucket, key)
		if storage.IsNotFound(serr) {
			span.SetStatus(codes.Ok, "")
			return false, nil
		}
		recordError(span, err)
		return false, serr
	}

	span.SetStatus(codes.Ok, "")
	return true, nil
}

// Delete removes an object.
func (s *Storage) Delete(ctx context.Context, bucket, key string) error {
	ctx, span, bucket := s.start(ctx, "Delete", bucket, key)
	defer span.End()

	if s.client.isClosed() {
		recordError(span, errClosed)
		return errClosed
	}

	if err := s.client.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		recordError(span, err)
		return toStorageError(err, bucket, key)
	}

	span.SetStatus(codes.Ok, "")
	s.logger.Debug("object deleted", "bucket", bucket, "key", key)
	return nil
}

// Close closes the underlying client.
func (s *Storage) Close() error {
	return s.client.Close()
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
