// Package scan is the scan orchestrator (C9): the central state machine
// that walks a filesystem root, expands archives and forensic images,
// extracts text, hashes, indexes, embeds, and tags entities for every file
// it discovers, publishing progress as it goes.
//
// Its shape is grounded on internal/rag/service.Service: a struct of narrow
// collaborator interfaces assembled via functional options, with one
// exported entry point per stage of the pipeline.
package scan

import (
	"context"
	"io"
	"time"

	"archon/internal/audit"
	"archon/internal/catalog"
	"archon/internal/embedding"
	"archon/internal/extract"
	"archon/internal/hashing"
	"archon/internal/lexicalindex"
	"archon/internal/telemetry"
	"archon/internal/vectorindex"
)

// VectorIndexer is the subset of vectorindex.Index the orchestrator needs.
type VectorIndexer interface {
	Upsert(ctx context.Context, documentID, scanID int64, meta vectorindex.DocMeta, chunks []vectorindex.Chunk) ([]string, error)
	DeleteByDocument(ctx context.Context, documentID int64) error
}

// LexicalIndexer is the subset of lexicalindex.Index the orchestrator needs.
type LexicalIndexer interface {
	Index(ctx context.Context, doc lexicalindex.Doc) error
	Delete(ctx context.Context, docID string) error
	DeleteByScan(ctx context.Context, scanID int64) error
}

// Embedder is the subset of embedding.Client the orchestrator needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error)
	Dimensions() int
}

// Hasher computes content digests; satisfied by hashing.Stream wrapped to
// take a path, so tests can substitute a fake.
type Hasher func(path string) (md5, sha256 string, err error)

// Clock abstracts time.Now for deterministic tests.
type Clock func() time.Time

// Archiver optionally durably archives a document's original bytes (§2's
// optional evidence archival, beyond the catalog's back-references).
type Archiver interface {
	Archive(ctx context.Context, scanID, documentID int64, logicalPath string, r io.Reader) (string, error)
}

// Auditor optionally appends scan lifecycle transitions to the hash-chained
// audit log (§4.11 scan_completed/scan_cancelled entries). A failed audit
// append never fails the scan itself.
type Auditor interface {
	Append(ctx context.Context, e audit.Entry) (*catalog.AuditEntry, error)
}

// Orchestrator runs scans (C9) against an injected set of collaborators.
type Orchestrator struct {
	store   catalog.Store
	vector  VectorIndexer
	lexical LexicalIndexer
	embed   Embedder
	hash    Hasher
	clock   Clock
	mounter extract.Mounter
	ocr     extract.OCR
	publish Publisher
	archive Archiver
	audit   Auditor
	tracer  *telemetry.Tracer

	allowedRoot     string
	archiveMaxDepth int
	ocrEnabled      bool
	ocrLanguages    []string
	nerEnabled      bool
	chunkSizeTokens int
	chunkOverlap    int
	embedBatchSize  int
}

// Option configures an Orchestrator during New.
type Option func(*Orchestrator)

func WithVectorIndex(v VectorIndexer) Option   { return func(o *Orchestrator) { o.vector = v } }
func WithLexicalIndex(l LexicalIndexer) Option { return func(o *Orchestrator) { o.lexical = l } }
func WithEmbedder(e Embedder) Option           { return func(o *Orchestrator) { o.embed = e } }
func WithHasher(h Hasher) Option                  { return func(o *Orchestrator) { o.hash = h } }
func WithClock(c Clock) Option                    { return func(o *Orchestrator) { o.clock = c } }
func WithMounter(m extract.Mounter) Option        { return func(o *Orchestrator) { o.mounter = m } }
func WithOCR(ocr extract.OCR) Option              { return func(o *Orchestrator) { o.ocr = ocr } }
func WithPublisher(p Publisher) Option            { return func(o *Orchestrator) { o.publish = p } }
func WithArchiver(a Archiver) Option               { return func(o *Orchestrator) { o.archive = a } }
func WithAuditor(a Auditor) Option                 { return func(o *Orchestrator) { o.audit = a } }
func WithOCREnabled(enabled bool) Option {
	return func(o *Orchestrator) { o.ocrEnabled = enabled }
}
func WithOCRLanguages(langs []string) Option {
	return func(o *Orchestrator) { o.ocrLanguages = langs }
}
func WithNEREnabled(enabled bool) Option { return func(o *Orchestrator) { o.nerEnabled = enabled } }
func WithArchiveMaxDepth(depth int) Option {
	return func(o *Orchestrator) { o.archiveMaxDepth = depth }
}
func WithChunking(sizeTokens, overlapTokens int) Option {
	return func(o *Orchestrator) { o.chunkSizeTokens, o.chunkOverlap = sizeTokens, overlapTokens }
}
func WithEmbedBatchSize(n int) Option { return func(o *Orchestrator) { o.embedBatchSize = n } }

// New builds an Orchestrator rooted at allowedRoot, every scan's root path
// must resolve inside it (§4.8 step 1).
func New(store catalog.Store, allowedRoot string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:           store,
		allowedRoot:     allowedRoot,
		clock:           time.Now,
		hash:            hashing.File,
		archiveMaxDepth: 5,
		chunkSizeTokens: 500,
		chunkOverlap:    50,
		embedBatchSize:  16,
		publish:         noopPublisher{},
		tracer:          telemetry.NewTracer("scan"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
