package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

// Supported model providers
const (
	ProviderGroq   = "groq"
	ProviderOllama = "ollama"
)

// ErrMissingAPIKey is returned when no LLM credential is configured.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY must be set (or set LLM_PROVIDER=ollama)")

// Config aggregates all application configuration
type Config struct {
	LLM LLMConfig `yaml:"llm"`
	Log LogConfig `yaml:"log"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"groq"`
	APIKey      string        `yaml:"api_key" env:"GROQ_API_KEY"`
	Model       string        `yaml:"model" env:"LLM_MODEL" env-default:"llama-3.3-70b-versatile"`
	BaseURL     string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://api.groq.com/openai/v1"`
	Temperature float64       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"0s"`
	Ollama      OllamaConfig  `yaml:"ollama"`
}

type OllamaConfig struct {
	Model   string `yaml:"model" env:"OLLAMA_MODEL" env-default:"qwen3:4b"`
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://localhost:11434"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from an optional .env file, the YAML file at path
// and environment variables.
// Priority: Env Vars > Config File > Defaults
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to access config file %s: %w", path, statErr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetModel overrides the model of the selected provider
func (c *LLMConfig) SetModel(model string) {
	if model == "" {
		return
	}
	if c.Provider == ProviderOllama {
		c.Ollama.Model = model
		return
	}
	c.Model = model
}

// Validate checks the values that have no usable default.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGroq, "":
		if c.LLM.APIKey == "" {
			return ErrMissingAPIKey
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm model must not be empty")
		}
	case ProviderOllama:
		if c.LLM.Ollama.Model == "" || c.LLM.Ollama.BaseURL == "" {
			return fmt.Errorf("ollama model and base url must be set")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative, got %s", c.LLM.Timeout)
	}
	return nil
}
