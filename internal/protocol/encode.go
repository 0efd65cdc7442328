package protocol

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageBytes bounds a single outbound document.
const MaxMessageBytes = 128 * 1024

// Encoder writes one JSON document per call.
type Encoder struct {
	w       io.Writer
	newline bool
}

// NewEncoder returns an encoder; newline selects the v0.2 line terminator.
func NewEncoder(w io.Writer, newline bool) *Encoder {
	return &Encoder{w: w, newline: newline}
}

// Marshal renders v as one wire document, without terminator.
func Marshal(v any) ([]byte, error) {
	if req, ok := v.(Request); ok {
		if err := req.Validate(); err != nil {
			return nil, err
		}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(payload) > MaxMessageBytes {
		return nil, ErrMessageTooLarge
	}
	return payload, nil
}

// WriteMessage writes one already marshalled document plus terminator.
func (e *Encoder) WriteMessage(payload []byte) error {
	out := payload
	if e.newline {
		out = append(payload[:len(payload):len(payload)], '\n')
	}
	_, err := e.w.Write(out)
	return err
}

// Encode marshals v, writes it, and returns the document without terminator.
func (e *Encoder) Encode(v any) ([]byte, error) {
	payload, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := e.WriteMessage(payload); err != nil {
		return nil, err
	}
	return payload, nil
}
