// Package llmclient is the chat-completions contract shared by the chat
// engine (C12) and the reranker. It wraps github.com/openai/openai-go/v2,
// grounded on internal/llm/openai/client.go's Client/New, pointed at
// whatever OpenAI-compatible generation host is configured rather than
// repeating the provider-selection and tool-calling machinery elsewhere in
// this codebase, which Archon's text-only RAG chat has no use for.
package llmclient

import (
	"net/http"
	"time"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"archon/internal/config"
)

// Client talks to one chat-completions-compatible generation endpoint. The
// reranker endpoint (see rerank.go) is not chat-completions-shaped, so the
// client keeps a plain http.Client alongside the SDK for that one path.
type Client struct {
	sdk    sdk.Client
	http   *http.Client
	model  string
	apiKey string
}

// NewClient builds a Client against cfg.
func NewClient(cfg config.LLMConfig) *Client {
	httpClient := &http.Client{Timeout: 180 * time.Second}

	opts := []option.RequestOption{option.WithHTTPClient(httpClient)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.GenerationHost != "" {
		opts = append(opts, option.WithBaseURL(cfg.GenerationHost))
	}

	return &Client{
		sdk:    sdk.NewClient(opts...),
		http:   httpClient,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
	}
}
