// Package lexicalindex is the lexical index adapter (C7): an HTTP JSON
// client over a Meilisearch-shaped search engine, with filter-clause
// escaping and integer validation to prevent filter injection.
package lexicalindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"archon/internal/config"
)

const (
	highlightPreTag  = "<mark>"
	highlightPostTag = "</mark>"
	snippetCropLen   = 200
)

var searchableAttributes = []string{"text_content", "file_name", "file_path"}
var filterableAttributes = []string{"file_type", "scan_id", "file_modified_at", "file_path"}
var sortableAttributes = []string{"file_modified_at", "indexed_at", "file_size"}

// Doc is one document projected into the lexical index.
type Doc struct {
	ID             string
	ScanID         int64
	FilePath       string
	FileName       string
	FileType       string
	TextContent    string
	FileModifiedAt time.Time
	IndexedAt      time.Time
	FileSize       int64
}

// Hit is one search result row.
type Hit struct {
	ID             string   `json:"id"`
	FilePath       string   `json:"file_path"`
	FileName       string   `json:"file_name"`
	FileType       string   `json:"file_type"`
	ScanID         int64    `json:"scan_id"`
	Snippet        string   `json:"snippet"`
	MatchPositions []string `json:"match_positions"`
}

// SearchFilters narrows the candidate set before ranking.
type SearchFilters struct {
	Limit       int
	Offset      int
	FileTypes   []string
	ScanIDs     []int64
	ProjectPath string
}

// SearchResponse carries the hits plus the engine's own accounting fields.
type SearchResponse struct {
	Hits               []Hit `json:"hits"`
	EstimatedTotalHits  int   `json:"estimatedTotalHits"`
	ProcessingTimeMs    int   `json:"processingTimeMs"`
}

// Index is the C7 adapter over one engine index.
type Index struct {
	http  *http.Client
	cfg   config.LexicalIndexConfig
}

// New builds an Index against cfg and ensures the index's
// searchable/filterable/sortable attribute settings are applied; highlight
// tags and crop length are sent with each Search request instead.
func New(ctx context.Context, cfg config.LexicalIndexConfig) (*Index, error) {
	idx := &Index{http: &http.Client{Timeout: 30 * time.Second}, cfg: cfg}
	if err := idx.ensureSettings(ctx); err != nil {
		return nil, fmt.Errorf("lexicalindex: ensure settings: %w", err)
	}
	return idx, nil
}

type settingsPayload struct {
	SearchableAttributes []string `json:"searchableAttributes"`
	FilterableAttributes []string `json:"filterableAttributes"`
	SortableAttributes   []string `json:"sortableAttributes"`
}

func (idx *Index) ensureSettings(ctx context.Context) error {
	body, err := json.Marshal(settingsPayload{
		SearchableAttributes: searchableAttributes,
		FilterableAttributes: filterableAttributes,
		SortableAttributes:   sortableAttributes,
	})
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = idx.do(ctx, http.MethodPatch, fmt.Sprintf("/indexes/%s/settings", idx.cfg.Index), body)
	return err
}

// Index upserts one document into the lexical engine.
func (idx *Index) Index(ctx context.Context, doc Doc) error {
	body, err := json.Marshal([]map[string]any{
		{
			"id":               doc.ID,
			"scan_id":          doc.ScanID,
			"file_path":        doc.FilePath,
			"file_name":        doc.FileName,
			"file_type":        doc.FileType,
			"text_content":     doc.TextContent,
			"file_modified_at": doc.FileModifiedAt.UTC().Format(time.RFC3339),
			"indexed_at":       doc.IndexedAt.UTC().Format(time.RFC3339),
			"file_size":        doc.FileSize,
		},
	})
	if err != nil {
		return fmt.Errorf("lexicalindex: marshal doc: %w", err)
	}
	_, err = idx.do(ctx, http.MethodPost, fmt.Sprintf("/indexes/%s/documents", idx.cfg.Index), body)
	if err != nil {
		return fmt.Errorf("lexicalindex: index: %w", err)
	}
	return nil
}

// Delete removes one document by id.
func (idx *Index) Delete(ctx context.Context, docID string) error {
	_, err := idx.do(ctx, http.MethodDelete, fmt.Sprintf("/indexes/%s/documents/%s", idx.cfg.Index, docID), nil)
	if err != nil {
		return fmt.Errorf("lexicalindex: delete: %w", err)
	}
	return nil
}

// DeleteByScan removes every document belonging to one scan.
func (idx *Index) DeleteByScan(ctx context.Context, scanID int64) error {
	body, err := json.Marshal(map[string]string{"filter": fmt.Sprintf("scan_id = %d", scanID)})
	if err != nil {
		return fmt.Errorf("lexicalindex: marshal filter: %w", err)
	}
	_, err = idx.do(ctx, http.MethodPost, fmt.Sprintf("/indexes/%s/documents/delete", idx.cfg.Index), body)
	if err != nil {
		return fmt.Errorf("lexicalindex: delete by scan: %w", err)
	}
	return nil
}

type searchRequest struct {
	Query                string `json:"q"`
	Limit                int    `json:"limit,omitempty"`
	Offset               int    `json:"offset,omitempty"`
	Filter               string `json:"filter,omitempty"`
	AttributesToHighlight []string `json:"attributesToHighlight,omitempty"`
	HighlightPreTag      string `json:"highlightPreTag,omitempty"`
	HighlightPostTag     string `json:"highlightPostTag,omitempty"`
	CropLength           int    `json:"cropLength,omitempty"`
}

// Search builds an AND-combined filter clause (list-valued filters become
// OR within their own group), escaping every string value and validating
// scan_ids as integers, then issues the search request.
func (idx *Index) Search(ctx context.Context, query string, filters SearchFilters) (SearchResponse, error) {
	filterClause, err := buildFilterClause(filters)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("lexicalindex: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}

	body, err := json.Marshal(searchRequest{
		Query:                 query,
		Limit:                 limit,
		Offset:                filters.Offset,
		Filter:                filterClause,
		AttributesToHighlight: []string{"text_content", "file_name"},
		HighlightPreTag:       highlightPreTag,
		HighlightPostTag:      highlightPostTag,
		CropLength:            snippetCropLen,
	})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("lexicalindex: marshal search request: %w", err)
	}

	raw, err := idx.do(ctx, http.MethodPost, fmt.Sprintf("/indexes/%s/search", idx.cfg.Index), body)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("lexicalindex: search: %w", err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SearchResponse{}, fmt.Errorf("lexicalindex: parse search response: %w", err)
	}
	return resp, nil
}

func (idx *Index) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, idx.cfg.Host+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idx.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+idx.cfg.APIKey)
	}

	resp, err := idx.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("engine returned %s: %s", resp.Status, string(raw))
	}
	return raw, nil
}

// escapeFilterValue escapes embedded backslashes and double quotes so a
// value cannot break out of its filter clause. Backslashes must be escaped
// first, or a value ending in a literal backslash would emit an unescaped
// trailing `\"` that closes the clause early.
func escapeFilterValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}
