// Package groq talks to Groq's OpenAI-compatible chat-completions API.
// Any other OpenAI-compatible endpoint works by changing the base URL.
package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/va6996/tooldispatch/config"
	"github.com/va6996/tooldispatch/log"
	"github.com/va6996/tooldispatch/plugins"
	"github.com/va6996/tooldispatch/tools"
)

// ErrEmptyResponse is returned when the API answers without any choice
var ErrEmptyResponse = errors.New("model returned no choices")

// Client handles chat-completion requests
type Client struct {
	Model       string
	Temperature float64

	api openai.Client
}

// Ensure Client satisfies LLMClient
var _ plugins.LLMClient = (*Client)(nil)

// NewClient creates a client from the LLM configuration. Extra request
// options are appended after the configured ones.
func NewClient(cfg config.LLMConfig, opts ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Failures surface immediately; nothing is retried
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	return &Client{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		api:         openai.NewClient(reqOpts...),
	}, nil
}

// Complete sends the query as a single user message together with the tool
// definitions and maps the first choice into a ModelResponse.
func (c *Client) Complete(ctx context.Context, query string, defs []tools.Definition) (*plugins.ModelResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(query),
		},
		Tools:       toolParams(defs),
		Temperature: openai.Float(c.Temperature),
	}

	log.Debugf(ctx, "Requesting completion from %s with %d tools", c.Model, len(defs))

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			log.Warnf(ctx, "Completion request rejected with status %d", apiErr.StatusCode)
		}
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	out := &plugins.ModelResponse{
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, plugins.ToolCallRequest{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	log.Debugf(ctx, "Completion finished: reason=%s tool_calls=%d", resp.Choices[0].FinishReason, len(out.ToolCalls))
	return out, nil
}

func toolParams(defs []tools.Definition) []openai.ChatCompletionToolParam {
	if len(defs) == 0 {
		return nil
	}
	params := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		fn := openai.FunctionDefinitionParam{
			Name:       def.Name,
			Parameters: openai.FunctionParameters(def.Parameters),
		}
		if def.Description != "" {
			fn.Description = openai.String(def.Description)
		}
		params = append(params, openai.ChatCompletionToolParam{Function: fn})
	}
	return params
}
