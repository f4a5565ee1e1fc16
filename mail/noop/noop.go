package noop

import (
	"context"
	"sync"

	"github.com/pure-golang/zeptomail/mail"
)

var _ mail.Sender = (*Sender)(nil)

// Sender composes messages and discards them. It keeps the last composed
// payloads so tests of callers can inspect what would have been sent.
type Sender struct {
	mx        sync.Mutex
	lastSend  *mail.Message
	lastBatch *mail.BatchMessage
}

// NewSender creates a new no-op Sender.
func NewSender() *Sender {
	return &Sender{}
}

// Send composes the message and returns an empty response.
func (n *Sender) Send(_ context.Context, p mail.SendParams) (mail.Response, error) {
	msg := mail.ComposeSingle(p)

	n.mx.Lock()
	n.lastSend = &msg
	n.mx.Unlock()

	return mail.Response{}, nil
}

// SendBatch composes the batch message and returns an empty response.
func (n *Sender) SendBatch(_ context.Context, p mail.BatchParams) (mail.Response, error) {
	msg := mail.ComposeBatch(p)

	n.mx.Lock()
	n.lastBatch = &msg
	n.mx.Unlock()

	return mail.Response{}, nil
}

// LastSend returns the last single message, if any.
func (n *Sender) LastSend() (mail.Message, bool) {
	n.mx.Lock()
	defer n.mx.Unlock()

	if n.lastSend == nil {
		return mail.Message{}, false
	}
	return *n.lastSend, true
}

// LastBatch returns the last batch message, if any.
func (n *Sender) LastBatch() (mail.BatchMessage, bool) {
	n.mx.Lock()
	defer n.mx.Unlock()

	if n.lastBatch == nil {
		return mail.BatchMessage{}, false
	}
	return *n.lastBatch, true
}

// Close is a no-op.
func (n *Sender) Close() error {
	return nil
}
