package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/va6996/tooldispatch/tools"
)

// DateTimeLayout renders as YYYY-MM-DD HH:MM:SS
const DateTimeLayout = "2006-01-02 15:04:05"

// DateTimeInput defines the input for the datetime tool. The field exists for
// clients that always send a single string argument; its value is ignored.
type DateTimeInput struct {
	ToolInput string `json:"tool_input,omitempty" jsonschema:"description=Optional free text. Ignored."`
}

// DateTimeTool returns the current local date and time
type DateTimeTool struct {
	Now func() time.Time
}

var (
	_ tools.Tool            = (*DateTimeTool)(nil)
	_ tools.ArgumentIgnorer = (*DateTimeTool)(nil)
)

// NewDateTimeTool creates a DateTimeTool reading the system clock
func NewDateTimeTool() *DateTimeTool {
	return &DateTimeTool{
		Now: time.Now,
	}
}

func (t *DateTimeTool) Name() string {
	return "get_current_datetime"
}

func (t *DateTimeTool) Description() string {
	return "Return the current date and time as a string formatted YYYY-MM-DD HH:MM:SS in local time."
}

func (t *DateTimeTool) Parameters() map[string]any {
	return tools.SchemaFor(&DateTimeInput{})
}

// IgnoresArguments reports that any JSON payload is accepted, including a
// null or non-string tool_input.
func (t *DateTimeTool) IgnoresArguments() bool {
	return true
}

func (t *DateTimeTool) Invoke(ctx context.Context, _ json.RawMessage) (string, error) {
	return t.Current(), nil
}

// Current formats the clock reading in the local time zone
func (t *DateTimeTool) Current() string {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return now().Local().Format(DateTimeLayout)
}
