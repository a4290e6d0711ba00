package agents

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appctx "github.com/va6996/tooldispatch/context"
	"github.com/va6996/tooldispatch/plugins"
	"github.com/va6996/tooldispatch/plugins/core"
	"github.com/va6996/tooldispatch/tools"
)

// MockLLM
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, query string, defs []tools.Definition) (*plugins.ModelResponse, error) {
	args := m.Called(ctx, query, defs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plugins.ModelResponse), args.Error(1)
}

var toolOutputLine = regexp.MustCompile(`(?m)^Tool Output: (\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})$`)

func newTestDispatcher(t *testing.T, llm plugins.LLMClient) (*Dispatcher, *bytes.Buffer) {
	t.Helper()
	reg, err := tools.NewRegistry(core.NewClient().Tools()...)
	require.NoError(t, err)
	var out bytes.Buffer
	return NewDispatcher(llm, reg, &out), &out
}

func toolCall(name, args string) *plugins.ModelResponse {
	return &plugins.ModelResponse{ToolCalls: []plugins.ToolCallRequest{{ID: "call_1", Name: name, Arguments: args}}}
}

func TestProcess_TextResponse(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, "Tell me a joke", mock.Anything).
		Return(&plugins.ModelResponse{Content: "Why did..."}, nil)
	d, out := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "Tell me a joke")
	require.NoError(t, err)

	assert.Equal(t, "User: Tell me a joke\nLLM: Why did...\n", out.String())
	assert.Equal(t, "Why did...", turn.Content)
	assert.Empty(t, turn.ToolResults)
	llm.AssertExpectations(t)
}

func TestProcess_TextIsVerbatim(t *testing.T) {
	content := "  line one\n\tline two with 100% and %s  "
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&plugins.ModelResponse{Content: content}, nil)
	d, out := newTestDispatcher(t, llm)

	_, err := d.Process(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "User: q\nLLM: "+content+"\n", out.String())
}

func TestProcess_DateTimeToolCall(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, "What is the current time and date?", mock.MatchedBy(func(defs []tools.Definition) bool {
		return len(defs) == 1 && defs[0].Name == "get_current_datetime"
	})).Return(toolCall("get_current_datetime", ""), nil)
	d, out := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "What is the current time and date?")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "User: What is the current time and date?", lines[0])
	assert.Equal(t, "LLM requested tool: get_current_datetime", lines[1])

	match := toolOutputLine.FindStringSubmatch(lines[2])
	require.NotNil(t, match, lines[2])
	_, err = time.ParseInLocation(core.DateTimeLayout, match[1], time.Local)
	assert.NoError(t, err)

	require.Len(t, turn.ToolResults, 1)
	assert.Equal(t, match[1], turn.ToolResults[0].Output)
	assert.Empty(t, turn.ToolResults[0].Error)
	assert.Empty(t, turn.Content)
}

func TestProcess_UnknownTool(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(toolCall("unknown_tool", "{}"), nil)
	d, out := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "User: q\nLLM requested tool: unknown_tool\nUnknown tool requested.\n", out.String())
	require.Len(t, turn.ToolResults, 1)
	assert.True(t, turn.ToolResults[0].Unknown)
}

func TestProcess_MalformedArgumentsAreIsolated(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&plugins.ModelResponse{ToolCalls: []plugins.ToolCallRequest{
			{Name: "get_current_datetime", Arguments: "{broken"},
			{Name: "get_current_datetime", Arguments: `{"tool_input":""}`},
		}}, nil)
	d, out := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "q")
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Tool Error: invalid tool arguments")
	assert.Regexp(t, toolOutputLine, out.String())

	require.Len(t, turn.ToolResults, 2)
	assert.NotEmpty(t, turn.ToolResults[0].Error)
	assert.NotEmpty(t, turn.ToolResults[1].Output)
}

func TestProcess_MultipleCallsInOrder(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(&plugins.ModelResponse{
			Content: "ignored when tools are requested",
			ToolCalls: []plugins.ToolCallRequest{
				{Name: "unknown_tool"},
				{Name: "get_current_datetime"},
			},
		}, nil)
	d, out := newTestDispatcher(t, llm)

	_, err := d.Process(context.Background(), "q")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "LLM requested tool: unknown_tool", lines[1])
	assert.Equal(t, UnknownToolNotice, lines[2])
	assert.Equal(t, "LLM requested tool: get_current_datetime", lines[3])
	assert.Regexp(t, toolOutputLine, lines[4])
	assert.NotContains(t, out.String(), "ignored when tools are requested")
}

func TestProcess_ModelError(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("401 unauthorized"))
	d, out := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "q")
	assert.Nil(t, turn)
	assert.ErrorContains(t, err, "401 unauthorized")
	assert.Equal(t, "User: q\n", out.String())
}

func TestProcess_QueryID(t *testing.T) {
	var seen string
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			seen = appctx.QueryIDFromContext(args.Get(0).(context.Context))
		}).
		Return(&plugins.ModelResponse{Content: "ok"}, nil)
	d, _ := newTestDispatcher(t, llm)

	turn, err := d.Process(context.Background(), "q")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.QueryID)
	assert.Equal(t, turn.QueryID, seen)

	ctx := appctx.WithQueryID(context.Background(), "fixed-id")
	turn, err = d.Process(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", turn.QueryID)
}

func TestRun_Sequential(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, "What is the current time and date?", mock.Anything).
		Return(toolCall("get_current_datetime", ""), nil).Once()
	llm.On("Complete", mock.Anything, "Tell me a joke", mock.Anything).
		Return(&plugins.ModelResponse{Content: "Why did..."}, nil).Once()
	d, out := newTestDispatcher(t, llm)

	turns, err := d.Run(context.Background(), []string{"What is the current time and date?", "Tell me a joke"})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.NotEqual(t, turns[0].QueryID, turns[1].QueryID)

	text := out.String()
	first := strings.Index(text, "User: What is the current time and date?")
	second := strings.Index(text, "User: Tell me a joke")
	assert.True(t, first >= 0 && second > first)
	assert.True(t, strings.HasSuffix(text, "LLM: Why did...\n"))
	llm.AssertExpectations(t)
}

func TestRun_StopsOnFirstError(t *testing.T) {
	llm := new(MockLLM)
	llm.On("Complete", mock.Anything, "first", mock.Anything).
		Return(&plugins.ModelResponse{Content: "ok"}, nil).Once()
	llm.On("Complete", mock.Anything, "second", mock.Anything).
		Return(nil, errors.New("rate limited")).Once()
	d, out := newTestDispatcher(t, llm)

	turns, err := d.Run(context.Background(), []string{"first", "second", "third"})
	assert.ErrorContains(t, err, "rate limited")
	assert.Len(t, turns, 1)
	assert.NotContains(t, out.String(), "third")
	llm.AssertNotCalled(t, "Complete", mock.Anything, "third", mock.Anything)
}

func TestRun_CancelledContext(t *testing.T) {
	llm := new(MockLLM)
	d, out := newTestDispatcher(t, llm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turns, err := d.Run(ctx, []string{"q"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, turns)
	assert.Empty(t, out.String())
}

func TestProcess_DateTimeToleratesAnyArgumentValues(t *testing.T) {
	payloads := []string{`{"tool_input":null}`, `{"tool_input":5}`, `{"tool_input":{}}`, `"hello"`}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			llm := new(MockLLM)
			llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).
				Return(toolCall("get_current_datetime", payload), nil)
			d, out := newTestDispatcher(t, llm)

			turn, err := d.Process(context.Background(), "What is the current time and date?")
			require.NoError(t, err)

			assert.NotContains(t, out.String(), "Tool Error:")
			assert.Regexp(t, toolOutputLine, out.String())
			require.Len(t, turn.ToolResults, 1)
			assert.Empty(t, turn.ToolResults[0].Error)
		})
	}
}
