// Package logging owns process-wide logger setup.
//
// Ownership boundary:
// - runtime and test profiles
// - ENGINECTL_LOG_* environment overrides
// - console and rotated file sinks behind the zerolog global logger
package logging
