package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/va6996/tooldispatch/log"
	"github.com/va6996/tooldispatch/plugins"
	"github.com/va6996/tooldispatch/tools"
)

// Client handles Ollama chat API requests
type Client struct {
	BaseURL     string
	Model       string
	Temperature float64
	client      *http.Client
}

// Ensure Client satisfies LLMClient
var _ plugins.LLMClient = (*Client)(nil)

// NewClient creates a new Ollama API client. A zero timeout leaves requests
// bounded only by the caller's context.
func NewClient(baseURL, model string, temperature float64, timeout time.Duration) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Model:       model,
		Temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

// ChatMessage is one message in a chat request or response
type ChatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []ChatToolCall `json:"tool_calls,omitempty"`
}

// ChatToolCall is a tool call as returned by Ollama. Arguments arrive as a
// JSON object rather than a string.
type ChatToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// ChatTool declares a function the model may call
type ChatTool struct {
	Type     string       `json:"type"`
	Function ChatFunction `json:"function"`
}

type ChatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatRequest represents the payload for Ollama chat API
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Tools    []ChatTool     `json:"tools,omitempty"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

// ChatResponse represents the response from Ollama chat API
type ChatResponse struct {
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Complete sends the query to /api/chat and maps the reply into a ModelResponse
func (c *Client) Complete(ctx context.Context, query string, defs []tools.Definition) (*plugins.ModelResponse, error) {
	reqBody := ChatRequest{
		Model:    c.Model,
		Messages: []ChatMessage{{Role: "user", Content: query}},
		Stream:   false,
		Options:  map[string]any{"temperature": c.Temperature},
	}
	for _, def := range defs {
		reqBody.Tools = append(reqBody.Tools, ChatTool{
			Type: "function",
			Function: ChatFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debugf(ctx, "Requesting chat from Ollama model %s", c.Model)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if chatResp.Error != "" {
		return nil, errors.New("ollama: " + chatResp.Error)
	}

	out := &plugins.ModelResponse{Content: chatResp.Message.Content}
	for _, call := range chatResp.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, plugins.ToolCallRequest{
			Name:      call.Function.Name,
			Arguments: argumentsString(call.Function.Arguments),
		})
	}
	return out, nil
}

// argumentsString turns Ollama's object arguments into the serialized form
// the dispatcher expects. String-encoded arguments are unwrapped.
func argumentsString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
