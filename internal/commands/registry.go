package commands

import (
	"sort"
	"strings"
)

// Registry stores command schemas by name.
//
// A Registry is filled once at startup and only read afterwards; it is
// not safe for registration concurrent with lookups.
type Registry struct {
	items map[string]CommandSpec
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]CommandSpec)}
}

// Register inserts or replaces the schema for name. Last registration wins.
func (r *Registry) Register(name string, args ...ArgSpec) {
	spec := make(CommandSpec, len(args))
	copy(spec, args)
	r.items[name] = spec
}

// Lookup returns a copy of the schema registered under name.
func (r *Registry) Lookup(name string) (CommandSpec, bool) {
	spec, ok := r.items[name]
	if !ok {
		return nil, false
	}
	out := make(CommandSpec, len(spec))
	copy(out, spec)
	return out, true
}

// Names returns every registered command name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete returns the sorted command names that start with prefix.
func (r *Registry) Complete(prefix string) []string {
	out := make([]string, 0)
	for _, name := range r.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
