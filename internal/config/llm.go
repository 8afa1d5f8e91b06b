package config

import (
	"fmt"
	"os"
	"time"
)

// Supported caption model providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Default models used when llm.model is not set.
const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Fallback policies for failed model calls.
const (
	FallbackPerTone  = "per_tone"
	FallbackAllTones = "all_tones"
)

// LLMConfig defines the external caption model.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`    // openai, gemini, none
	Model       string        `mapstructure:"model"`       // model name/ID
	APIKey      string        `mapstructure:"api_key"`     // set directly or via APIKeyEnv
	APIKeyEnv   string        `mapstructure:"api_key_env"` // environment variable holding the key
	BaseURL     string        `mapstructure:"base_url"`    // OpenAI-compatible base URL
	Timeout     time.Duration `mapstructure:"timeout"`     // per-call bound
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
}

// ApplyDefaults picks the provider's default model and resolves the API key.
func (c *LLMConfig) ApplyDefaults() {
	if c.Model == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.Model = DefaultOpenAIModel
		case ProviderGemini:
			c.Model = DefaultGeminiModel
		}
	}
	c.ResolveAPIKey()
}

// ResolveAPIKey loads the key from APIKeyEnv when it is not set directly.
// Gemini falls back to GEMINI_API_KEY when no variable was named.
func (c *LLMConfig) ResolveAPIKey() {
	if c.APIKey != "" {
		return
	}
	envName := c.APIKeyEnv
	if c.Provider == ProviderGemini && (envName == "" || envName == "OPENAI_API_KEY") {
		envName = "GEMINI_API_KEY"
	}
	if envName != "" {
		c.APIKey = os.Getenv(envName)
	}
}

// Validate checks that the model configuration is usable.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case ProviderNone:
		return nil
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm: unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("llm %q: model is required", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("llm %q: timeout must be positive", c.Provider)
	}
	return nil
}

// Enabled reports whether an external model is configured and has credentials.
func (c *LLMConfig) Enabled() bool {
	return c.Provider != ProviderNone && c.APIKey != ""
}
