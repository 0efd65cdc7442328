package client

import (
	"errors"
	"io/fs"
	"syscall"
)

var (
	ErrNotFound          = errors.New("client: engine socket not found")
	ErrPermissionDenied  = errors.New("client: permission denied")
	ErrIO                = errors.New("client: i/o failure")
	ErrProtocol          = errors.New("client: protocol error")
	ErrHandshake         = errors.New("client: handshake rejected")
	ErrNotConnected      = errors.New("client: not connected")
	ErrRequestInFlight   = errors.New("client: request already in flight")
	ErrNoRequestInFlight = errors.New("client: no request in flight")
)

// IsConnectionLost reports whether err left the client unusable.
func IsConnectionLost(err error) bool {
	return errors.Is(err, ErrIO) || errors.Is(err, ErrProtocol) || errors.Is(err, ErrNotConnected)
}

// classifyDialErr maps an OS dial failure onto the connect error kinds.
func classifyDialErr(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ECONNREFUSED):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return ErrIO
	}
}
