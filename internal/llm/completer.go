// Package llm provides text completion via langchaingo.
//
// The completion model is treated as a black box returning unstructured
// text; callers are responsible for defensively parsing whatever comes back.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCompletionFailed indicates a completion call failure.
	ErrCompletionFailed = errors.New("completion failed")
)

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the OpenAI-compatible completion client.
type Config struct {
	// BaseURL is the API base URL (OpenAI, or any compatible server).
	BaseURL string

	// Model is the chat model to use.
	Model string

	// APIKey authenticates against the endpoint.
	APIKey string

	// Temperature controls sampling randomness. The agent runs cool to keep
	// classification and decomposition output stable.
	Temperature float64
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIClient is a Completer backed by an OpenAI-compatible chat API.
type OpenAIClient struct {
	llm    *openai.LLM
	config Config
}

// NewOpenAIClient creates a completion client with the given configuration.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := cfg.APIKey
	if apiKey == "" && cfg.BaseURL != "" {
		// langchaingo requires a token; keyless local servers ignore it
		apiKey = "placeholder"
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAIClient{llm: client, config: cfg}, nil
}

// Complete runs a single-prompt completion and returns the raw text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.config.Temperature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}
	return text, nil
}
