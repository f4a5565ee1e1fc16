package zeptomail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pure-golang/zeptomail/mail"
)

// APIError is the error envelope ZeptoMail returns in the response body:
//
//	{"error": {"code": "TM_3201", "message": "...", "details": [...], "request_id": "..."}}
type APIError struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details"`
	RequestID string        `json:"request_id"`
}

// ErrorDetail points at the offending field when the provider reports one.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target"`
}

func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "zeptomail: %s: %s", e.Code, e.Message)
	for _, d := range e.Details {
		fmt.Fprintf(&sb, "; %s", d.Code)
		if d.Target != "" {
			fmt.Fprintf(&sb, " (%s)", d.Target)
		}
		if d.Message != "" && d.Message != e.Message {
			fmt.Fprintf(&sb, ": %s", d.Message)
		}
	}
	return sb.String()
}

// ParseError extracts the provider error envelope from a response.
// It returns false for success responses. The dispatcher never calls it;
// interpreting provider errors is up to the caller.
func ParseError(resp mail.Response) (*APIError, bool) {
	raw, ok := resp["error"]
	if !ok || raw == nil {
		return nil, false
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}

	var apiErr APIError
	if err := json.Unmarshal(b, &apiErr); err != nil {
		return nil, false
	}
	return &apiErr, true
}

// RequestID returns the provider request id of a success or error response.
func RequestID(resp mail.Response) string {
	if id, ok := resp["request_id"].(string); ok {
		return id
	}
	if e, ok := resp["error"].(map[string]any); ok {
		if id, ok := e["request_id"].(string); ok {
			return id
		}
	}
	return ""
}
