package mail

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/pure-golang/zeptomail/storage"
)

const defaultMimeType = "application/octet-stream"

// ObjectSource reads objects from storage. storage.Storage satisfies it.
type ObjectSource interface {
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, *storage.ObjectInfo, error)
}

// AttachmentFromReader base64-encodes r into a content attachment.
func AttachmentFromReader(r io.Reader, mimeType, name string) (Attachment, error) {
	content, err := encodeContent(r)
	if err != nil {
		return Attachment{}, err
	}
	return AttachmentFromContent(content, mimeType, name), nil
}

// AttachmentFromObject loads an object and attaches its content.
// An empty name defaults to the base name of key.
func AttachmentFromObject(ctx context.Context, src ObjectSource, bucket, key, name string) (Attachment, error) {
	content, mimeType, err := loadObject(ctx, src, bucket, key)
	if err != nil {
		return Attachment{}, err
	}
	if name == "" {
		name = path.Base(key)
	}
	return AttachmentFromContent(content, mimeType, name), nil
}

// InlineImageFromObject loads an image object for embedding under cid.
func InlineImageFromObject(ctx context.Context, src ObjectSource, bucket, key, cid string) (InlineImage, error) {
	content, mimeType, err := loadObject(ctx, src, bucket, key)
	if err != nil {
		return InlineImage{}, err
	}
	return NewInlineImage(cid, content, mimeType, ""), nil
}

func loadObject(ctx context.Context, src ObjectSource, bucket, key string) (string, string, error) {
	rc, info, err := src.Get(ctx, bucket, key)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to get object %s/%s", bucket, key)
	}
	defer rc.Close() // nolint:errcheck

	content, err := encodeContent(rc)
	if err != nil {
		return "", "", errors.Wrapf(err, "object %s/%s", bucket, key)
	}

	var contentType string
	if info != nil {
		contentType = info.ContentType
	}
	return content, detectMimeType(contentType, key), nil
}

func encodeContent(r io.Reader) (string, error) {
	var sb strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := io.Copy(enc, r); err != nil {
		return "", errors.Wrap(err, "failed to read content")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "failed to encode content")
	}
	return sb.String(), nil
}

// detectMimeType prefers the stored content type, then the key extension.
func detectMimeType(contentType, key string) string {
	if contentType != "" && contentType != defaultMimeType {
		return contentType
	}
	if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType
		}
	}
	return defaultMimeType
}
