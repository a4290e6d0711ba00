package tools

import (
	"context"
	"encoding/json"
)

// Tool defines the interface for all locally executable tools
type Tool interface {
	// Name returns the unique name of the tool (e.g. "get_current_datetime")
	Name() string

	// Description returns a description of what the tool does and its arguments
	Description() string

	// Parameters returns the JSON schema of the tool's input object
	Parameters() map[string]any

	// Invoke runs the tool with already parsed and validated arguments
	Invoke(ctx context.Context, args json.RawMessage) (string, error)
}

// ArgumentIgnorer is implemented by tools that accept any argument payload
// and never read it. The registry then only checks the payload is valid JSON.
type ArgumentIgnorer interface {
	IgnoresArguments() bool
}

// Definition is the model-facing description of a registered tool
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
}
