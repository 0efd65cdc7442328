package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Decoder reads consecutive JSON documents from a stream.
//
// Documents may or may not be newline terminated; the decoder consumes
// exactly one value per call and keeps any following bytes buffered.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// ReadResponse decodes one response document.
//
// A stream closed before any byte of the document returns io.EOF. A stream
// closed mid-document returns ErrTruncated. Transport errors are returned
// as-is.
func (d *Decoder) ReadResponse() (Response, error) {
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return Response{}, classifyDecodeErr(err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		if errors.Is(err, ErrMalformed) || errors.Is(err, ErrMissingStatus) {
			return Response{}, err
		}
		return Response{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if resp.Raw == nil {
		return Response{}, ErrMissingStatus
	}
	return resp, nil
}

func classifyDecodeErr(err error) error {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ErrTruncated
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	default:
		return err
	}
}
