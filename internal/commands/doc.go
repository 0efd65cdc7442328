// Package commands owns the engine command catalog and the line parser.
//
// Ownership boundary:
// - typed positional argument schemas
// - the fixed command registry
// - text line to protocol.Request conversion
package commands
