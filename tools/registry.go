package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnknownTool is returned when a tool name is not registered
	ErrUnknownTool = errors.New("unknown tool")
	// ErrDuplicateTool is returned when two tools share a name
	ErrDuplicateTool = errors.New("duplicate tool name")
)

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
	// lenient entries only require the payload to be valid JSON
	lenient bool
}

// Registry maps tool names to tools. It is built once by NewRegistry and is
// read-only afterwards, so it is safe to share.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry creates a registry holding the given tools in order. Every
// tool's parameter schema is compiled up front.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(tools)),
		entries: make(map[string]entry, len(tools)),
	}

	for _, tool := range tools {
		name := tool.Name()
		if name == "" {
			return nil, fmt.Errorf("tool %T has an empty name", tool)
		}
		if _, exists := r.entries[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		schema, err := compileSchema(name, tool.Parameters())
		if err != nil {
			return nil, err
		}
		lenient := false
		if ig, ok := tool.(ArgumentIgnorer); ok {
			lenient = ig.IgnoresArguments()
		}
		r.entries[name] = entry{tool: tool, schema: schema, lenient: lenient}
		r.order = append(r.order, name)
	}

	return r, nil
}

// Lookup resolves a tool by name
func (r *Registry) Lookup(name string) (Tool, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.tool, true
}

// Names returns the registered tool names in registration order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the model-facing descriptions of all tools
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		t := r.entries[name].tool
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Invoke runs a registered tool by name with a raw argument payload as sent
// by the model. The payload is parsed and, unless the tool ignores its
// arguments, validated against the tool's schema before the tool runs.
func (r *Registry) Invoke(ctx context.Context, name, payload string) (string, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	args, err := ParseArguments(payload)
	if err != nil {
		return "", err
	}
	if !e.lenient {
		if err := validateArguments(e.schema, args); err != nil {
			return "", err
		}
	}

	return e.tool.Invoke(ctx, args)
}
