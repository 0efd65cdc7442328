package commands

import (
	"strings"

	"github.com/danmuck/enginectl/internal/protocol"
)

// Parse validates one input line against reg and shapes it into a request.
//
// Tokens are matched to the command's arguments by position. Tokens past
// the end of the schema are ignored. When no argument was supplied the
// request carries a nil Arguments map.
func Parse(line string, reg *Registry) (protocol.Request, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return protocol.Request{}, &ParseError{Kind: ErrEmpty}
	}
	name := tokens[0]
	tokens = tokens[1:]

	spec, ok := reg.Lookup(name)
	if !ok {
		return protocol.Request{}, &ParseError{Kind: ErrUnknownCommand, Command: name}
	}

	var args map[string]any
	for i, arg := range spec {
		if i >= len(tokens) {
			if arg.Required {
				return protocol.Request{}, &ParseError{
					Kind:     ErrMissingArguments,
					Command:  name,
					Required: spec.Required(),
				}
			}
			continue
		}
		val, err := arg.Type.Convert(tokens[i])
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Command = name
			}
			return protocol.Request{}, err
		}
		if args == nil {
			args = make(map[string]any, len(spec))
		}
		args[arg.Name] = val
	}

	return protocol.Request{Command: name, Arguments: args}, nil
}
