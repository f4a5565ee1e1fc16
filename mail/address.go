package mail

// EmailAddress is a mailbox with an optional display name.
type EmailAddress struct {
	Address string `json:"address"`        // "john@example.com"
	Name    string `json:"name,omitempty"` // "John Doe"
}

// Recipient wraps an address for the to, cc, bcc and reply_to lists.
// MergeInfo is used by batch sends for per-recipient personalization.
type Recipient struct {
	EmailAddress EmailAddress   `json:"email_address"`
	MergeInfo    map[string]any `json:"merge_info,omitempty"`
}

// NewEmailAddress builds an address. The name is omitted when empty.
// The address is not validated, the API rejects malformed ones.
func NewEmailAddress(address, name string) EmailAddress {
	return EmailAddress{Address: address, Name: name}
}

// NewRecipient builds a recipient for single or batch sends.
func NewRecipient(address, name string) Recipient {
	return Recipient{EmailAddress: NewEmailAddress(address, name)}
}

// NewBatchRecipient builds a recipient carrying its own merge fields.
// Empty merge info is dropped so the message-level merge info applies.
func NewBatchRecipient(address, name string, mergeInfo map[string]any) Recipient {
	r := NewRecipient(address, name)
	if len(mergeInfo) > 0 {
		r.MergeInfo = mergeInfo
	}
	return r
}
