package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrNoType is returned by Decode for frames that do not name a message type.
var ErrNoType = errors.New("protocol: frame has no type")

// FrameError reports a frame or payload that could not be encoded or decoded.
type FrameError struct {
	Op   string
	Type MessageType
	Err  error
}

func (e *FrameError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("protocol: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("protocol: %s %q: %v", e.Op, e.Type, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Encode frames payload as a message of type t. A nil payload leaves the
// payload field out.
func Encode(t MessageType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		raw, err := sonic.ConfigStd.Marshal(payload)
		if err != nil {
			return nil, &FrameError{Op: "encode", Type: t, Err: err}
		}
		env.Payload = raw
	}
	return sonic.Marshal(env)
}

// Decode parses a client frame. Unknown top-level fields are ignored.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return Envelope{}, &FrameError{Op: "decode", Err: err}
	}
	if env.Type == "" {
		return Envelope{}, &FrameError{Op: "decode", Err: ErrNoType}
	}
	return env, nil
}

var jsonNull = []byte("null")

// Payload decodes the payload of env into P. Messages sent without a
// payload, or with a null one, decode to the zero value.
func Payload[P any](env Envelope) (P, error) {
	var p P
	raw := bytes.TrimSpace(env.Payload)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return p, nil
	}
	if err := sonic.Unmarshal(raw, &p); err != nil {
		return p, &FrameError{Op: "payload", Type: env.Type, Err: err}
	}
	return p, nil
}
