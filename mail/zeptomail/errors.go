package zeptomail

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTransport matches failures to reach the API: connection, DNS,
	// timeouts, cancellation and unreadable bodies.
	ErrTransport = errors.New("zeptomail: transport failure")

	// ErrDecode matches response bodies that are not a JSON object.
	ErrDecode = errors.New("zeptomail: response is not valid JSON")
)

// TransportError is returned when no response body could be obtained.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("zeptomail: POST %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError is returned when the response body is not a JSON object.
// Body holds the raw response for inspection.
type DecodeError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("zeptomail: POST %s: status %d: decode response: %v", e.Endpoint, e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsDecode reports whether err is a response decode failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}
