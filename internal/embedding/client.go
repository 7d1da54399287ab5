package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"archon/internal/config"
)

// TaskType tells the embedding backend how the vector will be used, so it
// can apply an asymmetric query/document encoding if it supports one.
type TaskType string

const (
	TaskDocument TaskType = "retrieval_document"
	TaskQuery    TaskType = "retrieval_query"
)

// Client is the embedding backend contract (C5): document/query/batch
// embedding with a fixed declared dimension.
type Client struct {
	http *http.Client
	cfg  config.EmbeddingsConfig
}

// NewClient builds a Client against cfg. Dimensions must be > 0; it is the
// fixed vector dimension every upsert and query must match.
func NewClient(cfg config.EmbeddingsConfig) *Client {
	return &Client{http: &http.Client{Timeout: 60 * time.Second}, cfg: cfg}
}

// Dimensions returns the fixed vector dimension D declared at startup.
func (c *Client) Dimensions() int { return c.cfg.Dimensions }

// EmbedDocument embeds one chunk of document text.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	out, err := c.embedRemote(ctx, []string{text}, TaskDocument)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedQuery embeds a search query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := c.embedRemote(ctx, []string{text}, TaskQuery)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds every text in one request when possible. If the batch
// request fails outright (network error, non-2xx), it falls back to
// embedding each text individually so a single bad input does not sink the
// whole batch: a per-item failure is recorded as a zero vector of length D
// at that index, preserving positional alignment with texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out, err := c.embedRemote(ctx, texts, task)
	if err == nil {
		return out, nil
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		vec, itemErr := c.embedRemote(ctx, []string{text}, task)
		if itemErr != nil {
			result[i] = make([]float32, c.cfg.Dimensions)
			continue
		}
		result[i] = vec[0]
	}
	return result, nil
}

type embedRequest struct {
	Input    []string `json:"input"`
	TaskType string   `json:"task_type,omitempty"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// embedRemote is the single HTTP round trip every public method funnels
// through, grounded on root rag.go's FetchEmbeddings raw-HTTP JSON call,
// rewritten to return errors instead of panicking on failure.
func (c *Client) embedRemote(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Input: texts, TaskType: string(task)})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Host, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("embedding endpoint returned %s: %s", resp.Status, string(raw))
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(parsed.Data), len(texts))
	}

	out := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		out[i] = parsed.Data[i].Embedding
	}
	return out, nil
}

// CheckReachability verifies the embedding endpoint responds to a trivial
// request, mirroring root's startup reachability check.
func (c *Client) CheckReachability(ctx context.Context) error {
	_, err := c.EmbedQuery(ctx, "ping")
	if err != nil {
		return fmt.Errorf("embedding endpoint reachability check failed: %w", err)
	}
	return nil
}
