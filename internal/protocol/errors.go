package protocol

import "errors"

var (
	ErrMalformed       = errors.New("protocol: malformed message")
	ErrTruncated       = errors.New("protocol: truncated message")
	ErrMissingStatus   = errors.New("protocol: response missing status")
	ErrEmptyCommand    = errors.New("protocol: request missing command")
	ErrMessageTooLarge = errors.New("protocol: message too large")
	ErrInvalidVersion  = errors.New("protocol: invalid protocol version")
)
