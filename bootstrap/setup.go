package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/va6996/tooldispatch/agents"
	"github.com/va6996/tooldispatch/config"
	"github.com/va6996/tooldispatch/log"
	"github.com/va6996/tooldispatch/plugins"
	"github.com/va6996/tooldispatch/plugins/core"
	"github.com/va6996/tooldispatch/plugins/groq"
	"github.com/va6996/tooldispatch/plugins/ollama"
	"github.com/va6996/tooldispatch/tools"
)

// App holds the initialized components of the application
type App struct {
	Dispatcher *agents.Dispatcher
	Registry   *tools.Registry
	LLM        plugins.LLMClient
}

// NewRegistry builds the tool registry shared by every entry point
func NewRegistry() (*tools.Registry, error) {
	registry, err := tools.NewRegistry(core.NewClient().Tools()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build tool registry: %w", err)
	}
	return registry, nil
}

// Setup initializes the application components based on the configuration.
// Results are written to out.
func Setup(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Model client
	llm, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model client: %w", err)
	}

	// 2. Tools
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	log.Debugf(ctx, "Registered tools: %v", registry.Names())

	// 3. Dispatcher
	return &App{
		Dispatcher: agents.NewDispatcher(llm, registry, out),
		Registry:   registry,
		LLM:        llm,
	}, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (plugins.LLMClient, error) {
	if cfg.Provider == config.ProviderOllama {
		log.Infof(ctx, "Using Ollama (Model: %s) at %s", cfg.Ollama.Model, cfg.Ollama.BaseURL)
		return ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.Temperature, cfg.Timeout), nil
	}
	log.Infof(ctx, "Using Groq (Model: %s) at %s", cfg.Model, cfg.BaseURL)
	return groq.NewClient(cfg)
}
