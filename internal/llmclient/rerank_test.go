package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"archon/internal/config"
)

func TestRerankParsesCleanJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a": 0.9, "b": 0.2}`))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{})
	scores := c.Rerank(context.Background(), srv.URL, "model", "query", []Passage{{ID: "a", Text: "x"}, {ID: "b", Text: "y"}})
	assert.Equal(t, 0.9, scores["a"])
	assert.Equal(t, 0.2, scores["b"])
}

func TestRerankToleratesJSONWrappedInProse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Here are the relevance scores:\n{\"a\": 1.4, \"b\": -0.3}\nLet me know if you need more."))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{})
	scores := c.Rerank(context.Background(), srv.URL, "model", "query", []Passage{{ID: "a"}, {ID: "b"}})
	assert.Equal(t, 1.0, scores["a"], "scores above 1 clamp to 1")
	assert.Equal(t, 0.0, scores["b"], "scores below 0 clamp to 0")
}

func TestRerankReturnsEmptyMapOnUnparsableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("no json here at all"))
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{})
	scores := c.Rerank(context.Background(), srv.URL, "model", "query", []Passage{{ID: "a"}})
	assert.Empty(t, scores)
}

func TestRerankReturnsEmptyMapOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(config.LLMConfig{})
	scores := c.Rerank(context.Background(), srv.URL, "model", "query", []Passage{{ID: "a"}})
	assert.Empty(t, scores)
}
