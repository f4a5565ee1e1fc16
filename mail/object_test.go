package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/zeptomail/storage"
)

type fakeSource struct {
	objects map[string]string
	types   map[string]string
	closed  int
}

type trackingCloser struct {
	io.Reader
	src *fakeSource
}

func (c *trackingCloser) Close() error {
	c.src.closed++
	return nil
}

func (f *fakeSource) Get(_ context.Context, bucket, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, nil, &storage.StorageError{Code: storage.CodeNotFound, Message: "object not found", Bucket: bucket, Key: key}
	}
	return &trackingCloser{Reader: strings.NewReader(body), src: f},
		&storage.ObjectInfo{Key: key, Size: int64(len(body)), ContentType: f.types[key]}, nil
}

func TestAttachmentFromObject(t *testing.T) {
	src := &fakeSource{
		objects: map[string]string{
			"docs/invoices/42.pdf": "%PDF",
			"docs/notes":           "plain",
			"docs/report.txt":      "report",
		},
		types: map[string]string{
			"invoices/42.pdf": "application/pdf",
			"notes":           "application/octet-stream",
			"report.txt":      "",
		},
	}
	ctx := context.Background()

	t.Run("content type from object info", func(t *testing.T) {
		a, err := AttachmentFromObject(ctx, src, "docs", "invoices/42.pdf", "")
		require.NoError(t, err)

		assert.Equal(t, "42.pdf", a.Name())
		assert.Equal(t, "application/pdf", a.MimeType())
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), a.Content())
	})

	t.Run("explicit name", func(t *testing.T) {
		a, err := AttachmentFromObject(ctx, src, "docs", "invoices/42.pdf", "invoice.pdf")
		require.NoError(t, err)
		assert.Equal(t, "invoice.pdf", a.Name())
	})

	t.Run("content type from extension", func(t *testing.T) {
		a, err := AttachmentFromObject(ctx, src, "docs", "report.txt", "")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", a.MimeType())
	})

	t.Run("fallback content type", func(t *testing.T) {
		a, err := AttachmentFromObject(ctx, src, "docs", "notes", "")
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", a.MimeType())
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := AttachmentFromObject(ctx, src, "docs", "missing.pdf", "")
		require.Error(t, err)
		assert.True(t, storage.IsNotFound(err))
		assert.ErrorContains(t, err, "failed to get object docs/missing.pdf")
	})

	assert.Equal(t, 4, src.closed)
}

func TestInlineImageFromObject(t *testing.T) {
	src := &fakeSource{
		objects: map[string]string{"assets/logo.png": "png-bytes"},
		types:   map[string]string{},
	}

	img, err := InlineImageFromObject(context.Background(), src, "assets", "logo.png", "logo")
	require.NoError(t, err)

	assert.Equal(t, InlineImage{
		CID:      "logo",
		Content:  base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		MimeType: "image/png",
	}, img)
}

func TestAttachmentFromReader(t *testing.T) {
	a, err := AttachmentFromReader(strings.NewReader("hello"), "text/plain", "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, AttachmentFromContent("aGVsbG8=", "text/plain", "hello.txt"), a)

	readErr := errors.New("disk failure")
	_, err = AttachmentFromReader(iotest.ErrReader(readErr), "text/plain", "broken.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}
