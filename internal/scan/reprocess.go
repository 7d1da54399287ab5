package scan

import (
	"context"
	"fmt"

	"archon/internal/catalog"
	"archon/internal/entities"
	"archon/internal/lexicalindex"
)

// Reprocess re-runs steps (e)-(g) of the per-file algorithm (§4.8) against
// an existing Document: re-index lexically, delete stale vectors and
// re-embed, and re-tag entities. Used when an extractor or embedding model
// changes and existing documents need fresh derived data without a full
// re-scan.
func (o *Orchestrator) Reprocess(ctx context.Context, documentID int64) error {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("scan: reprocess: load document %d: %w", documentID, err)
	}

	if o.lexical != nil {
		if err := o.lexical.Index(ctx, lexicalindex.Doc{
			ID:             fmt.Sprintf("%d", doc.ID),
			ScanID:         doc.ScanID,
			FilePath:       doc.FilePath,
			FileName:       doc.FileName,
			FileType:       string(doc.FileType),
			TextContent:    doc.TextContent,
			FileModifiedAt: doc.FileModifiedAt,
			IndexedAt:      doc.IndexedAt,
			FileSize:       doc.FileSize,
		}); err != nil {
			return fmt.Errorf("scan: reprocess: lexical index: %w", err)
		}
		doc.LexicalRef = fmt.Sprintf("%d", doc.ID)
	}

	if o.embed != nil && o.vector != nil && !isDeferredOCR(doc.TextContent) {
		if err := o.vector.DeleteByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("scan: reprocess: delete stale vectors: %w", err)
		}
		refs, err := o.embedAndIndex(ctx, doc.ScanID, doc)
		if err != nil {
			return fmt.Errorf("scan: reprocess: embed: %w", err)
		}
		doc.VectorRefs = refs
	}

	if o.nerEnabled {
		for _, occ := range entities.Extract(doc.TextContent) {
			start := occ.StartChar
			if err := o.store.UpsertEntity(ctx, &catalog.Entity{
				DocumentID: doc.ID, Text: occ.Text, Type: occ.Type, Count: occ.Count, StartChar: &start,
			}); err != nil {
				return fmt.Errorf("scan: reprocess: upsert entity: %w", err)
			}
		}
	}

	if err := o.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("scan: reprocess: update document: %w", err)
	}
	return nil
}
