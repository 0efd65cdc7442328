// Package client owns the engine command-socket connection.
//
// Ownership boundary:
// - unix socket dial and connect error classification
// - version handshake
// - the Disconnected/Connected/AwaitingResponse state machine
//
// A connection carries at most one outstanding request. Send and Read are
// the only state transitions; calling them out of order returns
// ErrRequestInFlight or ErrNoRequestInFlight without touching the socket.
package client
