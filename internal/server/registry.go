// Package server implements the line-delimited JSON command dispatcher
// served over stdio or TCP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fmbridge/fmbridge/internal/errors"
)

// Handler executes one command against already-decoded parameters.
// Handlers decode params into their own typed structs.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

type registration struct {
	handler     Handler
	description string
}

// Registry maps command names to handlers. It is populated at startup
// and read-only afterwards, so concurrent connections can share it.
type Registry struct {
	commands map[string]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]registration)}
}

// Register adds a command. A duplicate name is a programming error
// surfaced before any request is served.
func (r *Registry) Register(name string, handler Handler, description string) error {
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("command %q: handler must not be nil", name)
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %q registered twice", name)
	}
	r.commands[name] = registration{handler: handler, description: description}
	return nil
}

// CommandNames returns the registered command names, sorted.
func (r *Registry) CommandNames() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HandleCall invokes one command by name.
func (r *Registry) HandleCall(ctx context.Context, name string, params json.RawMessage) (any, error) {
	reg, ok := r.commands[name]
	if !ok {
		return nil, errors.NewNotFound(fmt.Sprintf("unknown command %q", name))
	}
	return reg.handler(ctx, params)
}
