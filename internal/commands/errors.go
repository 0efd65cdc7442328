package commands

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty            = errors.New("commands: no command provided")
	ErrUnknownCommand   = errors.New("commands: unknown command")
	ErrMissingArguments = errors.New("commands: missing arguments")
	ErrInvalidArgument  = errors.New("commands: invalid argument")
)

// ParseError is a local, recoverable rejection of one input line.
// Kind is one of the sentinel errors above and matches with errors.Is.
type ParseError struct {
	Kind     error
	Command  string
	Token    string
	Required int
	msg      string
}

func (e *ParseError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	switch e.Kind {
	case ErrEmpty:
		return "no command provided"
	case ErrUnknownCommand:
		return fmt.Sprintf("unknown command %s", e.Command)
	case ErrMissingArguments:
		return fmt.Sprintf("missing arguments: expected at least %d", e.Required)
	default:
		return e.Kind.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}
