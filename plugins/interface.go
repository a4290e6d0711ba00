package plugins

import (
	"context"

	"github.com/va6996/tooldispatch/tools"
)

// ToolCallRequest is a single structured request from the model to run a tool
type ToolCallRequest struct {
	ID   string
	Name string
	// Arguments is the serialized argument payload exactly as the model sent it
	Arguments string
}

// ModelResponse is the model's answer to one query. When ToolCalls is
// non-empty the caller dispatches the calls and ignores Content.
type ModelResponse struct {
	Content   string
	ToolCalls []ToolCallRequest
}

// LLMClient defines the interface for LLM interaction
type LLMClient interface {
	Complete(ctx context.Context, query string, defs []tools.Definition) (*ModelResponse, error)
}
