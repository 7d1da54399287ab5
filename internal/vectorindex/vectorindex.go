// Package vectorindex is the vector index adapter (C6): collection
// lifecycle, chunk upsert, and candidate-fetch/filter/dedup/MMR search over
// a Qdrant collection.
package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"archon/internal/catalog"
)

// PayloadIDField stores the caller-supplied point ID when it is not itself a
// UUID, mirroring the qdrant adapter's convention for the same problem.
const PayloadIDField = "_original_id"

// DocMeta is the per-document metadata stamped onto every chunk's payload.
type DocMeta struct {
	FilePath string
	FileName string
	FileType catalog.FileType
}

// Chunk is one embedded slice of a document awaiting upsert.
type Chunk struct {
	Index  int
	Text   string
	Vector []float32
}

// SearchFilters narrows candidates before scoring.
type SearchFilters struct {
	FileTypes []catalog.FileType
	ScanIDs   []int64
}

// SearchOptions controls the MMR re-selection pass.
type SearchOptions struct {
	UseMMR             bool
	Lambda             float64 // default 0.5
	CandidateMultiplier int    // default 2, or 18 when UseMMR
	MinScore           float64
}

// Result is one document-deduplicated hit.
type Result struct {
	DocumentID int64
	ScanID     int64
	FilePath   string
	FileName   string
	FileType   catalog.FileType
	ChunkIndex int
	ChunkText  string
	Score      float64
	Vector     []float32
}

// Index is the C6 adapter over a single Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// New connects to Qdrant at dsn (host[:port], gRPC scheme optional) and
// ensures collection exists with the fixed dimension and cosine distance,
// plus payload indexes on document_id, scan_id, file_type.
func New(ctx context.Context, dsn, collection string, dimension int) (*Index, error) {
	if collection == "" {
		return nil, fmt.Errorf("vectorindex: collection name is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("vectorindex: dimension must be > 0")
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: parse dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: invalid port in dsn: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vectorindex: create client: %w", err)
	}

	idx := &Index{client: client, collection: collection, dimension: dimension}
	if err := idx.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("vectorindex: ensure collection: %w", err)
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}

	if err := idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	for _, field := range []string{"document_id", "scan_id", "file_type"} {
		if err := idx.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: idx.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		}); err != nil {
			return fmt.Errorf("create field index %s: %w", field, err)
		}
	}
	return nil
}

// Close releases the underlying client connection.
func (idx *Index) Close() error { return idx.client.Close() }

// Dimension returns the fixed vector dimension D the collection was created with.
func (idx *Index) Dimension() int { return idx.dimension }
