package config

import (
	"fmt"
	"os"
	"time"
)

// ChatConfig holds configuration for the upstream AI chat provider.
type ChatConfig struct {
	// APIURL is the full URL of the OpenAI-compatible chat completions
	// endpoint, e.g. https://api.openai.com/v1/chat/completions
	APIURL string
	// APIKey is sent as a Bearer token on every upstream request.
	APIKey string
	// Model is the model identifier forwarded to the upstream provider.
	Model string
	// RequestTimeout bounds the whole upstream request including the
	// streamed response body.
	RequestTimeout time.Duration
}

// LoadChatConfig loads the chat provider configuration from environment
// variables. REQUIRED environment variables:
// - AI_API_URL: chat completions endpoint URL
// - AI_API_KEY: provider API key
// Optional:
// - AI_MODEL: model name (default gpt-4o-mini)
// - AI_REQUEST_TIMEOUT: Go duration string (default 120s)
func LoadChatConfig() (*ChatConfig, error) {
	apiURL := os.Getenv("AI_API_URL")
	if apiURL == "" {
		return nil, fmt.Errorf("AI_API_URL environment variable not set")
	}

	apiKey := os.Getenv("AI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("AI_API_KEY environment variable not set")
	}

	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeout := 120 * time.Second
	if raw := os.Getenv("AI_REQUEST_TIMEOUT"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid AI_REQUEST_TIMEOUT %q: %w", raw, err)
		}
		timeout = parsed
	}

	return &ChatConfig{
		APIURL:         apiURL,
		APIKey:         apiKey,
		Model:          model,
		RequestTimeout: timeout,
	}, nil
}
