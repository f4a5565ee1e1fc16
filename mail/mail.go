package mail

import (
	"context"
	"io"
)

// Sender sends composed messages through an email API.
type Sender interface {
	// Send delivers a single message.
	Send(ctx context.Context, p SendParams) (Response, error)
	// SendBatch delivers a templated message to many recipients.
	SendBatch(ctx context.Context, p BatchParams) (Response, error)
	io.Closer
}

// Response is the decoded JSON body returned by the provider.
// It carries both success and error envelopes and is never reinterpreted.
type Response map[string]any

// Params contains the fields shared by single and batch sends.
type Params struct {
	FromAddress string
	FromName    string

	To  []Recipient
	Cc  []Recipient
	Bcc []Recipient

	Subject  string
	HTMLBody string
	TextBody string

	Attachments  []Attachment
	InlineImages []InlineImage

	// TrackClicks and TrackOpens default to true when nil.
	TrackClicks *bool
	TrackOpens  *bool

	ClientReference string
	MimeHeaders     map[string]string
}

// SendParams describes a single-send request.
type SendParams struct {
	Params
	ReplyTo []Recipient
}

// BatchParams describes a batch-send request.
type BatchParams struct {
	Params
	// MergeInfo applies to recipients without their own merge info.
	MergeInfo map[string]any
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func boolOrTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
