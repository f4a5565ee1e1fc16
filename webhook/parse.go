package webhook

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrMalformedPayload is returned for bodies that are not a webhook delivery.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// timeLayouts are tried in order; ZeptoMail sends offsets without a colon.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
}

type payload struct {
	EventName        []string        `json:"event_name"`
	EventMessage     *[]eventMessage `json:"event_message"`
	MailAgentKey     string          `json:"mailagent_key"`
	WebhookRequestID string          `json:"webhook_request_id"`
}

type eventMessage struct {
	EmailInfo emailInfo   `json:"email_info"`
	EventData []eventData `json:"event_data"`
	RequestID string      `json:"request_id"`
}

type emailInfo struct {
	EmailReference  string      `json:"email_reference"`
	ClientReference string      `json:"client_reference"`
	Subject         string      `json:"subject"`
	BounceAddress   string      `json:"bounce_address"`
	From            Address     `json:"from"`
	To              []recipient `json:"to"`
	ProcessedTime   string      `json:"processed_time"`
}

type eventData struct {
	Object  string            `json:"object"`
	Details []json.RawMessage `json:"details"`
}

type nameVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type detail struct {
	Time string `json:"time"`

	BouncedRecipient  string `json:"bounced_recipient"`
	Reason            string `json:"reason"`
	DiagnosticMessage string `json:"diagnostic_message"`

	IPAddress       string      `json:"ip_address"`
	UserAgent       string      `json:"user_agent"`
	EmailClient     nameVersion `json:"email_client"`
	OperatingSystem nameVersion `json:"operating_system"`
	Device          struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"device"`

	ClickedLink string `json:"clicked_link"`
}

// Parse decodes a delivery body into one event per event_data detail, in
// payload order. An event_data entry without details still yields one event.
func Parse(body []byte) ([]Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, errors.Wrap(ErrMalformedPayload, "body is not a JSON object")
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.Wrapf(ErrMalformedPayload, "failed to decode body: %v", err)
	}
	if p.EventMessage == nil {
		return nil, errors.Wrap(ErrMalformedPayload, "event_message is missing")
	}

	deliveryID := p.WebhookRequestID
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	var events []Event
	for _, msg := range *p.EventMessage {
		base := Meta{
			DeliveryID:   deliveryID,
			RequestID:    msg.RequestID,
			MailAgentKey: p.MailAgentKey,
			Email:        msg.EmailInfo.toEmailInfo(),
		}

		for _, data := range msg.EventData {
			details := data.Details
			if len(details) == 0 {
				details = []json.RawMessage{nil}
			}
			for _, raw := range details {
				ev, err := newEvent(base, data.Object, raw)
				if err != nil {
					return nil, err
				}
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

func newEvent(meta Meta, object string, raw json.RawMessage) (Event, error) {
	var d detail
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, errors.Wrapf(ErrMalformedPayload, "failed to decode %s details: %v", object, err)
		}
	}
	meta.Time = parseTime(d.Time)

	switch EventType(object) {
	case EventHardBounce, EventSoftBounce:
		return &BounceEvent{
			Meta:              meta,
			Hard:              EventType(object) == EventHardBounce,
			Recipient:         d.BouncedRecipient,
			Reason:            d.Reason,
			DiagnosticMessage: d.DiagnosticMessage,
		}, nil
	case EventOpen:
		return &OpenEvent{
			Meta:            meta,
			IPAddress:       d.IPAddress,
			UserAgent:       d.UserAgent,
			DeviceName:      d.Device.Name,
			DeviceType:      d.Device.Type,
			EmailClient:     Client(d.EmailClient),
			OperatingSystem: Client(d.OperatingSystem),
		}, nil
	case EventClick:
		return &ClickEvent{
			Meta:      meta,
			Link:      d.ClickedLink,
			IPAddress: d.IPAddress,
			UserAgent: d.UserAgent,
		}, nil
	default:
		return &UnknownEvent{Meta: meta, Object: object, Details: raw}, nil
	}
}

func (i emailInfo) toEmailInfo() EmailInfo {
	out := EmailInfo{
		EmailReference:  i.EmailReference,
		ClientReference: i.ClientReference,
		Subject:         i.Subject,
		BounceAddress:   i.BounceAddress,
		From:            i.From,
		ProcessedTime:   parseTime(i.ProcessedTime),
	}
	for _, r := range i.To {
		out.To = append(out.To, r.EmailAddress)
	}
	return out
}

// parseTime returns the zero time for empty or unknown formats.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
