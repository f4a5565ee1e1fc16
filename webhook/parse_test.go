package webhook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bouncePayload = `{
  "event_name": ["hardbounce"],
  "event_message": [{
    "email_info": {
      "email_reference": "2d6f.1a2b",
      "client_reference": "order-42",
      "subject": "Your invoice",
      "bounce_address": "bounce@bounce.example.com",
      "from": {"address": "billing@example.com", "name": "Billing"},
      "to": [{"email_address": {"address": "gone@example.org", "name": "Gone"}}],
      "processed_time": "2024-03-01T10:15:30.123+0530"
    },
    "event_data": [{
      "object": "hardbounce",
      "details": [{
        "reason": "Mailbox does not exist",
        "bounced_recipient": "gone@example.org",
        "time": "2024-03-01T10:15:31.000+0530",
        "diagnostic_message": "550 5.1.1 User unknown"
      }]
    }],
    "request_id": "req-1"
  }],
  "mailagent_key": "agent-1",
  "webhook_request_id": "hook-1"
}`

func TestParse_Bounce(t *testing.T) {
	t.Parallel()

	events, err := Parse([]byte(bouncePayload))
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev, ok := events[0].(*BounceEvent)
	require.True(t, ok)

	ist := time.FixedZone("", 5*3600+30*60)
	assert.Equal(t, EventHardBounce, ev.Type())
	assert.True(t, ev.Hard)
	assert.Equal(t, "gone@example.org", ev.Recipient)
	assert.Equal(t, "Mailbox does not exist", ev.Reason)
	assert.Equal(t, "550 5.1.1 User unknown", ev.DiagnosticMessage)
	assert.True(t, ev.Time.Equal(time.Date(2024, 3, 1, 10, 15, 31, 0, ist)))

	meta := ev.Metadata()
	assert.Equal(t, "hook-1", meta.DeliveryID)
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, "agent-1", meta.MailAgentKey)
	assert.Equal(t, "order-42", meta.Email.ClientReference)
	assert.Equal(t, "2d6f.1a2b", meta.Email.EmailReference)
	assert.Equal(t, "Your invoice", meta.Email.Subject)
	assert.Equal(t, "bounce@bounce.example.com", meta.Email.BounceAddress)
	assert.Equal(t, Address{Address: "billing@example.com", Name: "Billing"}, meta.Email.From)
	assert.Equal(t, []Address{{Address: "gone@example.org", Name: "Gone"}}, meta.Email.To)
	assert.True(t, meta.Email.ProcessedTime.Equal(time.Date(2024, 3, 1, 10, 15, 30, 123e6, ist)))
}

func TestParse_EventKinds(t *testing.T) {
	t.Parallel()

	body := `{
	  "event_message": [{
	    "email_info": {"from": {"address": "news@example.com"}},
	    "event_data": [
	      {"object": "softbounce", "details": [{"bounced_recipient": "full@example.org", "reason": "Mailbox full"}]},
	      {"object": "email_open", "details": [
	        {"ip_address": "203.0.113.7", "user_agent": "Mozilla/5.0", "device": {"name": "iPhone", "type": "mobile"},
	         "email_client": {"name": "Apple Mail", "version": "16"}, "operating_system": {"name": "iOS", "version": "17.2"}},
	        {"ip_address": "203.0.113.8"}
	      ]},
	      {"object": "email_link_click", "details": [{"clicked_link": "https://example.com/offer", "ip_address": "198.51.100.1", "user_agent": "curl"}]},
	      {"object": "spam_complaint", "details": [{"source": "feedback-loop"}]},
	      {"object": "email_open"}
	    ]
	  }]
	}`

	events, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, events, 6)

	soft, ok := events[0].(*BounceEvent)
	require.True(t, ok)
	assert.Equal(t, EventSoftBounce, soft.Type())
	assert.False(t, soft.Hard)
	assert.Equal(t, "full@example.org", soft.Recipient)

	open, ok := events[1].(*OpenEvent)
	require.True(t, ok)
	assert.Equal(t, &OpenEvent{
		Meta:            open.Meta,
		IPAddress:       "203.0.113.7",
		UserAgent:       "Mozilla/5.0",
		DeviceName:      "iPhone",
		DeviceType:      "mobile",
		EmailClient:     Client{Name: "Apple Mail", Version: "16"},
		OperatingSystem: Client{Name: "iOS", Version: "17.2"},
	}, open)

	second, ok := events[2].(*OpenEvent)
	require.True(t, ok)
	assert.Equal(t, "203.0.113.8", second.IPAddress)

	click, ok := events[3].(*ClickEvent)
	require.True(t, ok)
	assert.Equal(t, EventClick, click.Type())
	assert.Equal(t, "https://example.com/offer", click.Link)
	assert.Equal(t, "198.51.100.1", click.IPAddress)
	assert.Equal(t, "curl", click.UserAgent)

	unknown, ok := events[4].(*UnknownEvent)
	require.True(t, ok)
	assert.Equal(t, EventType("spam_complaint"), unknown.Type())
	assert.JSONEq(t, `{"source":"feedback-loop"}`, string(unknown.Details))

	bare, ok := events[5].(*OpenEvent)
	require.True(t, ok)
	assert.Empty(t, bare.IPAddress)
	assert.True(t, bare.Time.IsZero())
}

func TestParse_GeneratesDeliveryID(t *testing.T) {
	t.Parallel()

	body := `{"event_message":[{"event_data":[{"object":"email_open","details":[{},{}]}]}]}`

	events, err := Parse([]byte(body))
	require.NoError(t, err)
	require.Len(t, events, 2)

	id := events[0].Metadata().DeliveryID
	_, err = uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, events[1].Metadata().DeliveryID)
}

func TestParse_EmptyDelivery(t *testing.T) {
	t.Parallel()

	events, err := Parse([]byte(`{"event_message": []}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "whitespace", body: "  \n"},
		{name: "array", body: `[{"event_message":[]}]`},
		{name: "null", body: `null`},
		{name: "invalid json", body: `{"event_message":`},
		{name: "missing event_message", body: `{"event_name":["email_open"]}`},
		{name: "null event_message", body: `{"event_message":null}`},
		{name: "event_message not array", body: `{"event_message":{}}`},
		{name: "details not objects", body: `{"event_message":[{"event_data":[{"object":"email_open","details":["x"]}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.Nil(t, events)
		})
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-03-01T10:15:30.123+0530", want: time.Date(2024, 3, 1, 4, 45, 30, 123e6, time.UTC)},
		{in: "2024-03-01T10:15:30+0000", want: time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)},
		{in: "2024-03-01T10:15:30Z", want: time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)},
		{in: "yesterday"},
		{in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := parseTime(tt.in)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestUnknownEvent_NilDetailsMarshal(t *testing.T) {
	t.Parallel()

	events, err := Parse([]byte(`{"event_message":[{"event_data":[{"object":"custom"}]}]}`))
	require.NoError(t, err)
	require.Len(t, events, 1)

	unknown := events[0].(*UnknownEvent)
	assert.Nil(t, unknown.Details)

	_, err = json.Marshal(unknown)
	assert.NoError(t, err)
}
