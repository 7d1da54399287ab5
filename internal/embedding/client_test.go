package embedding

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/config"
)

func TestEmbedDocumentRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, string(TaskDocument), req.TaskType)

		resp := embedResponse{}
		for range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
			}{Embedding: []float32{1, 2, 3}})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingsConfig{Host: srv.URL, Dimensions: 3})
	vec, err := client.EmbedDocument(t.Context(), "evidence text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbedBatchFallsBackPerItemOnBatchFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if len(req.Input) > 1 {
			http.Error(w, "batch too large", http.StatusBadRequest)
			return
		}
		if req.Input[0] == "poison" {
			http.Error(w, "cannot embed", http.StatusInternalServerError)
			return
		}
		resp := embedResponse{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{{Embedding: []float32{9, 9}}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingsConfig{Host: srv.URL, Dimensions: 2})
	out, err := client.EmbedBatch(t.Context(), []string{"good one", "poison", "good two"}, TaskDocument)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []float32{9, 9}, out[0])
	assert.Equal(t, []float32{0, 0}, out[1])
	assert.Equal(t, []float32{9, 9}, out[2])
	assert.True(t, calls > 1)
}

func TestEmbedQueryUsesQueryTaskType(t *testing.T) {
	var gotTask string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotTask = req.TaskType
		require.NoError(t, json.NewEncoder(w).Encode(embedResponse{Data: []struct {
			Embedding []float32 `json:"embedding"`
		}{{Embedding: []float32{0.5}}}}))
	}))
	defer srv.Close()

	client := NewClient(config.EmbeddingsConfig{Host: srv.URL, Dimensions: 1})
	_, err := client.EmbedQuery(t.Context(), "what happened")
	require.NoError(t, err)
	assert.Equal(t, string(TaskQuery), gotTask)
}
