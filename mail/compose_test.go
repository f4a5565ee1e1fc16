package mail

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestComposeSingle_Minimal(t *testing.T) {
	msg := ComposeSingle(SendParams{
		Params: Params{
			FromAddress: "s@x.com",
			Subject:     "Hi",
			To:          []Recipient{NewRecipient("r@x.com", "")},
		},
	})

	payload := toMap(t, msg)
	assert.ElementsMatch(t, []string{"from", "subject", "to", "track_clicks", "track_opens"}, keys(payload))
	assert.Equal(t, map[string]any{"address": "s@x.com"}, payload["from"])
	assert.Equal(t, "Hi", payload["subject"])
	assert.Equal(t, true, payload["track_clicks"])
	assert.Equal(t, true, payload["track_opens"])
	assert.NotContains(t, payload, "htmlbody")
	assert.NotContains(t, payload, "textbody")
}

func TestComposeSingle_EmptyParams(t *testing.T) {
	payload := toMap(t, ComposeSingle(SendParams{}))

	assert.Equal(t, map[string]any{
		"from":         map[string]any{"address": ""},
		"subject":      "",
		"track_clicks": true,
		"track_opens":  true,
	}, payload)
}

func TestComposeSingle_EmptyCollectionsAreFiltered(t *testing.T) {
	msg := ComposeSingle(SendParams{
		Params: Params{
			FromAddress:  "s@x.com",
			To:           []Recipient{},
			Cc:           []Recipient{},
			Bcc:          []Recipient{},
			Attachments:  []Attachment{},
			InlineImages: []InlineImage{},
			MimeHeaders:  map[string]string{},
		},
		ReplyTo: []Recipient{},
	})

	assert.Nil(t, msg.To)
	assert.Nil(t, msg.ReplyTo)
	assert.Nil(t, msg.MimeHeaders)
	assert.ElementsMatch(t, []string{"from", "subject", "track_clicks", "track_opens"}, keys(toMap(t, msg)))
}

func TestComposeSingle_OptionalFields(t *testing.T) {
	full := SendParams{
		Params: Params{
			FromAddress:     "s@x.com",
			FromName:        "Sender",
			To:              []Recipient{NewRecipient("to@x.com", "To")},
			Cc:              []Recipient{NewRecipient("cc@x.com", "")},
			Bcc:             []Recipient{NewRecipient("bcc@x.com", "")},
			Subject:         "Subject",
			HTMLBody:        "<p>hi</p>",
			TextBody:        "hi",
			Attachments:     []Attachment{AttachmentFromCache("key", "a.pdf")},
			InlineImages:    []InlineImage{NewInlineImage("logo", "", "", "img-key")},
			ClientReference: "ref-1",
			MimeHeaders:     map[string]string{"X-Test": "1"},
		},
		ReplyTo: []Recipient{NewRecipient("reply@x.com", "")},
	}

	tests := []struct {
		key   string
		clear func(p *SendParams)
		value any
	}{
		{key: "to", clear: func(p *SendParams) { p.To = nil }, value: []any{map[string]any{"email_address": map[string]any{"address": "to@x.com", "name": "To"}}}},
		{key: "cc", clear: func(p *SendParams) { p.Cc = nil }, value: []any{map[string]any{"email_address": map[string]any{"address": "cc@x.com"}}}},
		{key: "bcc", clear: func(p *SendParams) { p.Bcc = nil }, value: []any{map[string]any{"email_address": map[string]any{"address": "bcc@x.com"}}}},
		{key: "reply_to", clear: func(p *SendParams) { p.ReplyTo = nil }, value: []any{map[string]any{"email_address": map[string]any{"address": "reply@x.com"}}}},
		{key: "htmlbody", clear: func(p *SendParams) { p.HTMLBody = "" }, value: "<p>hi</p>"},
		{key: "textbody", clear: func(p *SendParams) { p.TextBody = "" }, value: "hi"},
		{key: "client_reference", clear: func(p *SendParams) { p.ClientReference = "" }, value: "ref-1"},
		{key: "mime_headers", clear: func(p *SendParams) { p.MimeHeaders = nil }, value: map[string]any{"X-Test": "1"}},
		{key: "attachments", clear: func(p *SendParams) { p.Attachments = nil }, value: []any{map[string]any{"file_cache_key": "key", "name": "a.pdf"}}},
		{key: "inline_images", clear: func(p *SendParams) { p.InlineImages = nil }, value: []any{map[string]any{"cid": "logo", "file_cache_key": "img-key"}}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			present := toMap(t, ComposeSingle(full))
			assert.Equal(t, tt.value, present[tt.key])

			p := full
			tt.clear(&p)
			absent := toMap(t, ComposeSingle(p))
			assert.NotContains(t, absent, tt.key)
			assert.Len(t, absent, len(present)-1)
		})
	}
}

func TestComposeSingle_Tracking(t *testing.T) {
	tests := []struct {
		name          string
		clicks, opens *bool
		wantClicks    bool
		wantOpens     bool
	}{
		{name: "defaults", wantClicks: true, wantOpens: true},
		{name: "disabled clicks", clicks: Bool(false), wantClicks: false, wantOpens: true},
		{name: "disabled both", clicks: Bool(false), opens: Bool(false)},
		{name: "explicit true", clicks: Bool(true), opens: Bool(true), wantClicks: true, wantOpens: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := Params{FromAddress: "s@x.com", TrackClicks: tt.clicks, TrackOpens: tt.opens}

			single := toMap(t, ComposeSingle(SendParams{Params: params}))
			assert.Equal(t, tt.wantClicks, single["track_clicks"])
			assert.Equal(t, tt.wantOpens, single["track_opens"])

			batch := toMap(t, ComposeBatch(BatchParams{Params: params}))
			assert.Equal(t, tt.wantClicks, batch["track_clicks"])
			assert.Equal(t, tt.wantOpens, batch["track_opens"])
		})
	}
}

func TestComposeBatch(t *testing.T) {
	msg := ComposeBatch(BatchParams{
		Params: Params{
			FromAddress: "news@x.com",
			To: []Recipient{
				NewBatchRecipient("a@x.com", "A", map[string]any{"name": "Ann"}),
				NewBatchRecipient("b@x.com", "B", nil),
			},
			Subject: "Hello {{name}}",
		},
		MergeInfo: map[string]any{"name": "friend"},
	})

	payload := toMap(t, msg)
	assert.ElementsMatch(t, []string{"from", "subject", "to", "track_clicks", "track_opens", "merge_info"}, keys(payload))
	assert.Equal(t, map[string]any{"name": "friend"}, payload["merge_info"])
	assert.NotContains(t, payload, "reply_to")
}

func TestComposeBatch_EmptyMergeInfo(t *testing.T) {
	msg := ComposeBatch(BatchParams{
		Params:    Params{FromAddress: "news@x.com"},
		MergeInfo: map[string]any{},
	})

	assert.Nil(t, msg.MergeInfo)
	assert.NotContains(t, toMap(t, msg), "merge_info")
}

func TestComposeSingle_RoundTrip(t *testing.T) {
	msg := ComposeSingle(SendParams{
		Params: Params{
			FromAddress:     "s@x.com",
			FromName:        "Sender",
			To:              []Recipient{NewRecipient("to@x.com", "To")},
			Bcc:             []Recipient{NewRecipient("bcc@x.com", "")},
			Subject:         "Subject",
			TextBody:        "hi",
			Attachments:     []Attachment{AttachmentFromCache("key", "a.pdf"), AttachmentFromContent("aGk=", "text/plain", "hi.txt")},
			InlineImages:    []InlineImage{NewInlineImage("logo", "iVBORw0=", "image/png", "")},
			TrackOpens:      Bool(false),
			ClientReference: "ref-1",
			MimeHeaders:     map[string]string{"X-Test": "1"},
		},
		ReplyTo: []Recipient{NewRecipient("reply@x.com", "")},
	})

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var got Message
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, msg, got)
}

func TestComposeBatch_RoundTrip(t *testing.T) {
	msg := ComposeBatch(BatchParams{
		Params: Params{
			FromAddress: "news@x.com",
			To:          []Recipient{NewBatchRecipient("a@x.com", "A", map[string]any{"name": "Ann"})},
			Subject:     "Hello",
			HTMLBody:    "<p>{{name}}</p>",
		},
		MergeInfo: map[string]any{"name": "friend"},
	})

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var got BatchMessage
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, msg, got)
}

func TestComposeBatch_RoundTripNumericMergeInfo(t *testing.T) {
	msg := ComposeBatch(BatchParams{
		Params: Params{
			FromAddress: "news@x.com",
			To:          []Recipient{NewBatchRecipient("a@x.com", "A", map[string]any{"count": 3, "ratio": 0.5})},
			Subject:     "You have {{count}} items",
		},
		MergeInfo: map[string]any{"count": 0, "total": int64(1 << 40)},
	})

	first, err := json.Marshal(msg)
	require.NoError(t, err)

	var got BatchMessage
	require.NoError(t, json.Unmarshal(first, &got))

	second, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))

	assert.Equal(t, float64(0), got.MergeInfo["count"])
	assert.Equal(t, float64(1<<40), got.MergeInfo["total"])
	assert.Equal(t, float64(3), got.To[0].MergeInfo["count"])
}

func TestEnvelope_RecipientCount(t *testing.T) {
	msg := ComposeSingle(SendParams{
		Params: Params{
			To:  []Recipient{NewRecipient("a@x.com", ""), NewRecipient("b@x.com", "")},
			Cc:  []Recipient{NewRecipient("c@x.com", "")},
			Bcc: []Recipient{NewRecipient("d@x.com", "")},
		},
		ReplyTo: []Recipient{NewRecipient("e@x.com", "")},
	})

	assert.Equal(t, 4, msg.RecipientCount())
}

func TestPresent(t *testing.T) {
	var nilMap map[string]any
	var nilSlice []Recipient
	var nilPtr *bool

	assert.False(t, present(nil))
	assert.False(t, present(""))
	assert.False(t, present(nilMap))
	assert.False(t, present(nilSlice))
	assert.False(t, present([]Attachment{}))
	assert.False(t, present(nilPtr))

	assert.True(t, present("x"))
	assert.True(t, present([]Recipient{{}}))
	assert.True(t, present(map[string]string{"k": "v"}))
	assert.True(t, present(Bool(false)))
	assert.True(t, present(false))
	assert.True(t, present(0))
}
