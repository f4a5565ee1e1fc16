package mail

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Attachment is either a reference to a file cache key or inline base64 content.
// Only one variant is populated, use AttachmentFromCache or AttachmentFromContent.
type Attachment struct {
	cached       bool
	fileCacheKey string
	content      string
	mimeType     string
	name         string
}

// AttachmentFromCache references content previously uploaded to the provider.
func AttachmentFromCache(fileCacheKey, name string) Attachment {
	return Attachment{cached: true, fileCacheKey: fileCacheKey, name: name}
}

// AttachmentFromContent attaches base64 encoded content.
func AttachmentFromContent(content, mimeType, name string) Attachment {
	return Attachment{content: content, mimeType: mimeType, name: name}
}

// IsCached reports whether the attachment references a file cache key.
func (a Attachment) IsCached() bool { return a.cached }

// FileCacheKey returns the cache key of a cached attachment, or "".
func (a Attachment) FileCacheKey() string { return a.fileCacheKey }

// Content returns the base64 content of an inline attachment, or "".
func (a Attachment) Content() string { return a.content }

// MimeType returns the content type of an inline attachment, or "".
func (a Attachment) MimeType() string { return a.mimeType }

// Name returns the file name shown to recipients.
func (a Attachment) Name() string { return a.name }

type cachedAttachment struct {
	FileCacheKey string `json:"file_cache_key"`
	Name         string `json:"name,omitempty"`
}

type contentAttachment struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

// MarshalJSON writes the populated variant only.
func (a Attachment) MarshalJSON() ([]byte, error) {
	if a.cached {
		return json.Marshal(cachedAttachment{FileCacheKey: a.fileCacheKey, Name: a.name})
	}
	return json.Marshal(contentAttachment{Content: a.content, MimeType: a.mimeType, Name: a.name})
}

// UnmarshalJSON picks the variant by the presence of file_cache_key.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	var raw struct {
		FileCacheKey *string `json:"file_cache_key"`
		Content      string  `json:"content"`
		MimeType     string  `json:"mime_type"`
		Name         string  `json:"name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "failed to decode attachment")
	}

	if raw.FileCacheKey != nil {
		*a = AttachmentFromCache(*raw.FileCacheKey, raw.Name)
		return nil
	}
	*a = AttachmentFromContent(raw.Content, raw.MimeType, raw.Name)
	return nil
}

// InlineImage is an image referenced from the HTML body by its cid.
type InlineImage struct {
	CID          string `json:"cid"`
	Content      string `json:"content,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileCacheKey string `json:"file_cache_key,omitempty"`
}

// NewInlineImage builds an inline image. Content is kept only together with
// its mime type. Content and file cache key may both be set; the API decides
// which one to use.
func NewInlineImage(cid, content, mimeType, fileCacheKey string) InlineImage {
	img := InlineImage{CID: cid, FileCacheKey: fileCacheKey}
	if content != "" && mimeType != "" {
		img.Content = content
		img.MimeType = mimeType
	}
	return img
}
