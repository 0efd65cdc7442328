// Package session drives an engine connection for an operator.
//
// Ownership boundary:
// - batch and interactive runs over a Conn
// - response rendering
// - line input (editor with completion, or plain piped input)
// - reconnect with exponential backoff after a lost connection
//
// The driver is synchronous. Exactly one request is outstanding at a time,
// and reconnecting replaces Driver.Conn, so callers close Driver.Conn rather
// than the connection they started with.
package session
