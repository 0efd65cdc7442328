package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusOK is the only status the engine uses for success.
const StatusOK = "OK"

// Request is one structured command sent to the engine.
//
// Arguments holds string, json.Number or bool values keyed by argument name.
// A nil or empty map is omitted from the wire document entirely.
type Request struct {
	Command   string         `json:"command"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return ErrEmptyCommand
	}
	return nil
}

// Hello is the connection handshake payload.
type Hello struct {
	Version string `json:"version"`
}

// Response is one decoded engine reply.
//
// Message is opaque and command specific. Raw is the complete document as
// received, kept for callers that forward it unchanged.
type Response struct {
	Status  string
	Message json.RawMessage
	Raw     json.RawMessage
}

// OK reports whether the engine accepted the request.
func (r Response) OK() bool {
	return r.Status == StatusOK
}

// responseEnvelope accepts the engine's "return" key and the generic "status" key.
type responseEnvelope struct {
	Return  *string         `json:"return"`
	Status  *string         `json:"status"`
	Message json.RawMessage `json:"message"`
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var env responseEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch {
	case env.Return != nil:
		r.Status = *env.Return
	case env.Status != nil:
		r.Status = *env.Status
	default:
		return ErrMissingStatus
	}
	r.Message = env.Message
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON writes the received document back out unchanged when available.
func (r Response) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	msg := r.Message
	if len(msg) == 0 {
		msg = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Return  string          `json:"return"`
		Message json.RawMessage `json:"message"`
	}{Return: r.Status, Message: msg})
}
