// Package webhook decodes ZeptoMail webhook deliveries into typed events and
// routes them to handlers.
package webhook

import (
	"encoding/json"
	"time"
)

// EventType is the "object" name of an event_data entry.
type EventType string

const (
	EventHardBounce EventType = "hardbounce"
	EventSoftBounce EventType = "softbounce"
	EventOpen       EventType = "email_open"
	EventClick      EventType = "email_link_click"
)

// Address is an address as reported in email_info.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type recipient struct {
	EmailAddress Address `json:"email_address"`
}

// EmailInfo describes the message an event refers to.
type EmailInfo struct {
	EmailReference  string
	ClientReference string
	Subject         string
	BounceAddress   string
	From            Address
	To              []Address
	ProcessedTime   time.Time
}

// Meta is shared by all events of a delivery.
type Meta struct {
	// DeliveryID is webhook_request_id, or a generated UUID when absent.
	DeliveryID   string
	RequestID    string
	MailAgentKey string
	Email        EmailInfo
	Time         time.Time
}

// Event is one of *BounceEvent, *OpenEvent, *ClickEvent or *UnknownEvent.
type Event interface {
	Type() EventType
	Metadata() Meta
}

// BounceEvent reports a hard or soft bounce of one recipient.
type BounceEvent struct {
	Meta
	Hard              bool
	Recipient         string
	Reason            string
	DiagnosticMessage string
}

func (e *BounceEvent) Type() EventType {
	if e.Hard {
		return EventHardBounce
	}
	return EventSoftBounce
}

func (e *BounceEvent) Metadata() Meta { return e.Meta }

// Client names a piece of recipient software and its version.
type Client struct {
	Name    string
	Version string
}

// OpenEvent reports that a recipient opened a message.
type OpenEvent struct {
	Meta
	IPAddress       string
	UserAgent       string
	DeviceName      string
	DeviceType      string
	EmailClient     Client
	OperatingSystem Client
}

func (e *OpenEvent) Type() EventType { return EventOpen }

func (e *OpenEvent) Metadata() Meta { return e.Meta }

// ClickEvent reports that a recipient followed a tracked link.
type ClickEvent struct {
	Meta
	Link      string
	IPAddress string
	UserAgent string
}

func (e *ClickEvent) Type() EventType { return EventClick }

func (e *ClickEvent) Metadata() Meta { return e.Meta }

// UnknownEvent carries an event kind this package does not model. Type returns
// the raw object name.
type UnknownEvent struct {
	Meta
	Object  string
	Details json.RawMessage
}

func (e *UnknownEvent) Type() EventType { return EventType(e.Object) }

func (e *UnknownEvent) Metadata() Meta { return e.Meta }
