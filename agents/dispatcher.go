package agents

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	appctx "github.com/va6996/tooldispatch/context"
	"github.com/va6996/tooldispatch/log"
	"github.com/va6996/tooldispatch/plugins"
	"github.com/va6996/tooldispatch/tools"
)

// UnknownToolNotice is printed when the model asks for a tool that is not registered
const UnknownToolNotice = "Unknown tool requested."

// ToolCallResult stores the result of a tool call
type ToolCallResult struct {
	ToolName  string    `json:"tool_name"`
	Arguments string    `json:"arguments"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	Unknown   bool      `json:"unknown,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn records what happened for one query
type Turn struct {
	QueryID     string           `json:"query_id"`
	Query       string           `json:"query"`
	Content     string           `json:"content,omitempty"`
	ToolResults []ToolCallResult `json:"tool_results,omitempty"`
}

// Dispatcher sends queries to the model and routes each answer either to
// the matching local tools or straight to the output.
type Dispatcher struct {
	llm      plugins.LLMClient
	registry *tools.Registry
	out      io.Writer
}

// NewDispatcher creates a Dispatcher writing to out. A nil out means stdout.
func NewDispatcher(llm plugins.LLMClient, registry *tools.Registry, out io.Writer) *Dispatcher {
	if out == nil {
		out = os.Stdout
	}
	return &Dispatcher{
		llm:      llm,
		registry: registry,
		out:      out,
	}
}

// Run processes queries one at a time in order. The first model error stops
// the run; turns completed so far are returned with it.
func (d *Dispatcher) Run(ctx context.Context, queries []string) ([]*Turn, error) {
	turns := make([]*Turn, 0, len(queries))
	for _, query := range queries {
		if err := ctx.Err(); err != nil {
			return turns, err
		}
		turn, err := d.Process(ctx, query)
		if err != nil {
			return turns, err
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Process handles a single query end to end and prints the outcome.
func (d *Dispatcher) Process(ctx context.Context, query string) (*Turn, error) {
	queryID := appctx.QueryIDFromContext(ctx)
	if queryID == "" {
		queryID = appctx.NewQueryID()
		ctx = appctx.WithQueryID(ctx, queryID)
	}

	turn := &Turn{QueryID: queryID, Query: query}
	d.printf("User: %s\n", query)
	log.Infof(ctx, "Processing query: %q", query)

	resp, err := d.llm.Complete(ctx, query, d.registry.Definitions())
	if err != nil {
		log.Errorf(ctx, "Model request failed: %v", err)
		return nil, fmt.Errorf("query %q: %w", query, err)
	}

	if len(resp.ToolCalls) == 0 {
		turn.Content = resp.Content
		d.printf("LLM: %s\n", resp.Content)
		return turn, nil
	}

	for _, call := range resp.ToolCalls {
		turn.ToolResults = append(turn.ToolResults, d.dispatch(ctx, call))
	}
	return turn, nil
}

// dispatch runs one tool-call request. Failures are reported on the output
// and never abort the remaining calls.
func (d *Dispatcher) dispatch(ctx context.Context, call plugins.ToolCallRequest) ToolCallResult {
	result := ToolCallResult{
		ToolName:  call.Name,
		Arguments: call.Arguments,
		Timestamp: time.Now(),
	}
	d.printf("LLM requested tool: %s\n", call.Name)

	if _, ok := d.registry.Lookup(call.Name); !ok {
		log.Warnf(ctx, "Model requested unregistered tool %q", call.Name)
		result.Unknown = true
		d.printf("%s\n", UnknownToolNotice)
		return result
	}

	output, err := d.registry.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		log.WithField(ctx, "tool", call.Name).Warnf("Tool invocation failed: %v", err)
		result.Error = err.Error()
		d.printf("Tool Error: %v\n", err)
		return result
	}

	log.Debugf(ctx, "Tool %s returned %q", call.Name, output)
	result.Output = output
	d.printf("Tool Output: %s\n", output)
	return result
}

func (d *Dispatcher) printf(format string, args ...interface{}) {
	fmt.Fprintf(d.out, format, args...)
}
