// Package llm talks to the language model behind the mentor. Two providers
// are supported: a local Ollama server and the OpenAI chat completions API.
package llm

import (
	"context"
	"fmt"
	"time"

	"leetmentor/internal/platform/breaker"
	"leetmentor/internal/platform/config"
)

// ChatRequest is one system + user exchange.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
}

// ChatClient returns the raw assistant text for a request.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// New picks the provider named in cfg and wraps it with the call timeout and cb.
func New(cfg *config.Config, cb *breaker.Breaker) (ChatClient, error) {
	var inner ChatClient
	switch cfg.LLMProvider {
	case config.LLMProviderOllama:
		inner = NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.LLMTimeout)
	case config.LLMProviderOpenAI:
		inner = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
	return &guardedClient{inner: inner, timeout: cfg.LLMTimeout, cb: cb}, nil
}

type guardedClient struct {
	inner   ChatClient
	timeout time.Duration
	cb      *breaker.Breaker
}

func (g *guardedClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return breaker.Do(g.cb, func() (string, error) {
		return g.inner.Chat(ctx, req)
	})
}
