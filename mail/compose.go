package mail

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

// Envelope holds the fields common to single and batch messages.
// Optional fields are nil or empty when the caller did not supply them.
type Envelope struct {
	From    EmailAddress
	Subject string

	To  []Recipient
	Cc  []Recipient
	Bcc []Recipient

	HTMLBody string
	TextBody string

	TrackClicks bool
	TrackOpens  bool

	ClientReference string
	MimeHeaders     map[string]string
	Attachments     []Attachment
	InlineImages    []InlineImage
}

// Message is the payload of a single send.
type Message struct {
	Envelope
	ReplyTo []Recipient
}

// BatchMessage is the payload of a batch send.
type BatchMessage struct {
	Envelope
	MergeInfo map[string]any
}

// ComposeSingle builds a single-send message. It never fails and performs
// no semantic validation.
func ComposeSingle(p SendParams) Message {
	return Message{
		Envelope: composeEnvelope(p.Params),
		ReplyTo:  keep(p.ReplyTo),
	}
}

// ComposeBatch builds a batch-send message.
func ComposeBatch(p BatchParams) BatchMessage {
	return BatchMessage{
		Envelope:  composeEnvelope(p.Params),
		MergeInfo: keep(p.MergeInfo),
	}
}

func composeEnvelope(p Params) Envelope {
	return Envelope{
		From:            NewEmailAddress(p.FromAddress, p.FromName),
		Subject:         p.Subject,
		To:              keep(p.To),
		Cc:              keep(p.Cc),
		Bcc:             keep(p.Bcc),
		HTMLBody:        p.HTMLBody,
		TextBody:        p.TextBody,
		TrackClicks:     boolOrTrue(p.TrackClicks),
		TrackOpens:      boolOrTrue(p.TrackOpens),
		ClientReference: p.ClientReference,
		MimeHeaders:     keep(p.MimeHeaders),
		Attachments:     keep(p.Attachments),
		InlineImages:    keep(p.InlineImages),
	}
}

// RecipientCount returns the number of to, cc and bcc recipients.
func (e Envelope) RecipientCount() int {
	return len(e.To) + len(e.Cc) + len(e.Bcc)
}

func (e Envelope) payload() payload {
	p := payload{
		"from":         e.From,
		"subject":      e.Subject,
		"track_clicks": e.TrackClicks,
		"track_opens":  e.TrackOpens,
	}
	p.set("to", e.To)
	p.set("cc", e.Cc)
	p.set("bcc", e.Bcc)
	p.set("htmlbody", e.HTMLBody)
	p.set("textbody", e.TextBody)
	p.set("client_reference", e.ClientReference)
	p.set("mime_headers", e.MimeHeaders)
	p.set("attachments", e.Attachments)
	p.set("inline_images", e.InlineImages)
	return p
}

// MarshalJSON writes the wire payload. Absent optional fields produce no key.
func (m Message) MarshalJSON() ([]byte, error) {
	p := m.Envelope.payload()
	p.set("reply_to", m.ReplyTo)
	return json.Marshal(p)
}

// MarshalJSON writes the wire payload. Absent optional fields produce no key.
func (m BatchMessage) MarshalJSON() ([]byte, error) {
	p := m.Envelope.payload()
	p.set("merge_info", m.MergeInfo)
	return json.Marshal(p)
}

// UnmarshalJSON restores a Message from its wire payload.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w struct {
		envelopeWire
		ReplyTo []Recipient `json:"reply_to"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return errors.Wrap(err, "failed to decode message")
	}

	*m = Message{Envelope: w.envelope(), ReplyTo: w.ReplyTo}
	return nil
}

// UnmarshalJSON restores a BatchMessage from its wire payload. Merge values
// come back as JSON-native types (numbers as float64), so the result is
// deep-equal to the original only when merge data holds JSON-native values;
// the wire form is always preserved.
func (m *BatchMessage) UnmarshalJSON(b []byte) error {
	var w struct {
		envelopeWire
		MergeInfo map[string]any `json:"merge_info"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return errors.Wrap(err, "failed to decode batch message")
	}

	*m = BatchMessage{Envelope: w.envelope(), MergeInfo: w.MergeInfo}
	return nil
}

type envelopeWire struct {
	From            EmailAddress      `json:"from"`
	Subject         string            `json:"subject"`
	To              []Recipient       `json:"to"`
	Cc              []Recipient       `json:"cc"`
	Bcc             []Recipient       `json:"bcc"`
	HTMLBody        string            `json:"htmlbody"`
	TextBody        string            `json:"textbody"`
	TrackClicks     bool              `json:"track_clicks"`
	TrackOpens      bool              `json:"track_opens"`
	ClientReference string            `json:"client_reference"`
	MimeHeaders     map[string]string `json:"mime_headers"`
	Attachments     []Attachment      `json:"attachments"`
	InlineImages    []InlineImage     `json:"inline_images"`
}

func (w envelopeWire) envelope() Envelope {
	return Envelope(w)
}

// payload is the generic form of a message at the serialization boundary.
type payload map[string]any

// set stores v under key only when v is present.
func (p payload) set(key string, v any) {
	if present(v) {
		p[key] = v
	}
}

// present reports whether v carries a meaningful value: non-nil and,
// for strings, slices and maps, non-empty.
func present(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// keep returns v if present, otherwise the zero value of T.
func keep[T any](v T) T {
	if present(v) {
		return v
	}

	var zero T
	return zero
}
