// Package llm abstracts text generation over the configured backend.
package llm

import (
	"context"
	"errors"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"

	"github.com/lavka-group/shop-assistant/internal/config"
	"github.com/lavka-group/shop-assistant/internal/resilience"
	"github.com/lavka-group/shop-assistant/pkg/anthropic"
	"github.com/lavka-group/shop-assistant/pkg/ollama"
)

// Generator produces a completion for a prompt. Implementations classify
// their failures so the caller can decide what is worth retrying.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the generator selected by the configuration.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaGenerator(ollama.NewClient(
			ollama.WithHost(cfg.Ollama.Host),
			ollama.WithModel(cfg.Ollama.Model),
			ollama.WithTimeout(time.Duration(cfg.Ollama.TimeoutSecs)*time.Second),
		)), nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("llm: anthropic provider requires an API key")
		}
		return NewAnthropicGenerator(
			anthropic.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
		), nil
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// OllamaGenerator generates through a local Ollama server.
type OllamaGenerator struct {
	client ollama.Client
}

// NewOllamaGenerator wraps an Ollama client.
func NewOllamaGenerator(client ollama.Client) *OllamaGenerator {
	return &OllamaGenerator{client: client}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.client.Chat(ctx, prompt)
}

// AnthropicGenerator generates through the Anthropic API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator wraps an Anthropic client.
func NewAnthropicGenerator(client anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}
	return resp.Text(), nil
}

// classifyAnthropicError marks overload and server-side API failures as
// transient. Auth and validation failures stay terminal.
func classifyAnthropicError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) && resilience.IsTransientHTTPStatus(apierr.StatusCode) {
		return resilience.NewTransientError(err, apierr.StatusCode)
	}
	return err
}
