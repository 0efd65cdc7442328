// Package protocol owns the engine control-socket wire contract.
//
// Ownership boundary:
// - request/response document shapes
// - JSON message framing over a byte stream
// - protocol version negotiation helpers
//
// Messages are single JSON documents. From protocol 0.2 on, each document
// sent to the engine is terminated by a newline; responses are read with a
// streaming decoder and need no terminator.
package protocol
