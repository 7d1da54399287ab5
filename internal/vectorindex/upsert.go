package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const chunkTextPayloadLimit = 1000

// Upsert stores one point per chunk, payload {document_id, scan_id,
// file_path, file_name, file_type, chunk_index, chunk_text[:1000]}, keyed by
// a deterministic UUID derived from (document_id, chunk index) so re-running
// a scan overwrites rather than duplicates points. Returns the point IDs in
// chunk order.
func (idx *Index) Upsert(ctx context.Context, documentID, scanID int64, meta DocMeta, chunks []Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Vector) != idx.dimension {
			return nil, fmt.Errorf("vectorindex: chunk %d has vector dimension %d, want %d", c.Index, len(c.Vector), idx.dimension)
		}

		originalID := fmt.Sprintf("%d:%d", documentID, c.Index)
		pointUUID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(originalID)).String()
		ids = append(ids, pointUUID)

		text := c.Text
		if len(text) > chunkTextPayloadLimit {
			text = text[:chunkTextPayloadLimit]
		}
		payload := qdrant.NewValueMap(map[string]any{
			"document_id": documentID,
			"scan_id":     scanID,
			"file_path":   meta.FilePath,
			"file_name":   meta.FileName,
			"file_type":   string(meta.FileType),
			"chunk_index": int64(c.Index),
			"chunk_text":  text,
			PayloadIDField: originalID,
		})

		vec := make([]float32, len(c.Vector))
		copy(vec, c.Vector)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointUUID),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: payload,
		})
	}

	if _, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
	}); err != nil {
		return nil, fmt.Errorf("vectorindex: upsert: %w", err)
	}
	return ids, nil
}

// DeleteByDocument removes every point for one document_id.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID int64) error {
	return idx.deleteByFilter(ctx, qdrant.NewMatchInt("document_id", documentID))
}

// DeleteByScan removes every point for one scan_id.
func (idx *Index) DeleteByScan(ctx context.Context, scanID int64) error {
	return idx.deleteByFilter(ctx, qdrant.NewMatchInt("scan_id", scanID))
}

func (idx *Index) deleteByFilter(ctx context.Context, cond *qdrant.Condition) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{cond},
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete: %w", err)
	}
	return nil
}
