package webhook

import "fmt"

type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindClient  ErrorKind = "client"
	KindServer  ErrorKind = "server"
)

// TransportError is returned when the webhook cannot be reached or answers
// with a non-2xx status.
type TransportError struct {
	Kind   ErrorKind
	Status int // zero for network failures
	Err    error
}

func (e *TransportError) Error() string {
	if e.Kind == KindNetwork {
		return fmt.Sprintf("webhook: network error: %v", e.Err)
	}
	return fmt.Sprintf("webhook: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage is the banner text shown for this failure.
func (e *TransportError) UserMessage() string {
	switch e.Kind {
	case KindClient:
		return "There was a problem with the request. Please try again."
	case KindServer:
		return "The server encountered an error. Please try again later."
	default:
		return "Unable to reach the server. Please check your connection."
	}
}

func statusError(status int) *TransportError {
	kind := KindServer
	if status >= 400 && status < 500 {
		kind = KindClient
	}
	return &TransportError{Kind: kind, Status: status}
}
