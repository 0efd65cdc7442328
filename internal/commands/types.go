package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ArgType is the closed set of argument value kinds.
type ArgType int

const (
	String ArgType = iota
	Number
	Boolean
)

func (t ArgType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("ArgType(%d)", int(t))
	}
}

// Convert turns one raw token into the typed value sent on the wire:
// string, json.Number or bool.
func (t ArgType) Convert(token string) (any, error) {
	switch t {
	case String:
		return token, nil
	case Boolean:
		return convertBool(token)
	case Number:
		return convertNumber(token)
	default:
		return nil, fmt.Errorf("commands: unsupported argument type %s", t)
	}
}

func convertBool(token string) (any, error) {
	switch token {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return nil, &ParseError{
			Kind:  ErrInvalidArgument,
			Token: token,
			msg:   "bad argument: value is not a boolean: " + token,
		}
	}
}

// convertNumber accepts exactly one JSON numeric literal.
func convertNumber(token string) (any, error) {
	bad := &ParseError{
		Kind:  ErrInvalidArgument,
		Token: token,
		msg:   "bad argument: not a number: " + token,
	}
	dec := json.NewDecoder(strings.NewReader(token))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, bad
	}
	n, ok := v.(json.Number)
	if !ok {
		return nil, bad
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, bad
	}
	return n, nil
}

// ArgSpec describes one positional argument.
type ArgSpec struct {
	Name     string
	Required bool
	Type     ArgType
}

// Required and Optional are shorthands for catalog declarations.
func Required(name string, t ArgType) ArgSpec {
	return ArgSpec{Name: name, Required: true, Type: t}
}

func Optional(name string, t ArgType) ArgSpec {
	return ArgSpec{Name: name, Required: false, Type: t}
}

// CommandSpec is the ordered argument schema of one command.
type CommandSpec []ArgSpec

// Required counts the arguments that must be supplied.
func (s CommandSpec) Required() int {
	n := 0
	for _, arg := range s {
		if arg.Required {
			n++
		}
	}
	return n
}

// Usage renders the schema as "<name:type> [name:type]".
func (s CommandSpec) Usage() string {
	parts := make([]string, 0, len(s))
	for _, arg := range s {
		if arg.Required {
			parts = append(parts, fmt.Sprintf("<%s:%s>", arg.Name, arg.Type))
		} else {
			parts = append(parts, fmt.Sprintf("[%s:%s]", arg.Name, arg.Type))
		}
	}
	return strings.Join(parts, " ")
}
