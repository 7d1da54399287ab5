package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/catalog"
	"archon/internal/embedding"
	"archon/internal/lexicalindex"
	"archon/internal/vectorindex"
)

type fakeVectorIndex struct {
	upserts []vectorindex.DocMeta
	deleted []int64
}

func (f *fakeVectorIndex) Upsert(ctx context.Context, documentID, scanID int64, meta vectorindex.DocMeta, chunks []vectorindex.Chunk) ([]string, error) {
	f.upserts = append(f.upserts, meta)
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%d:%d", documentID, i)
	}
	return ids, nil
}

func (f *fakeVectorIndex) DeleteByDocument(ctx context.Context, documentID int64) error {
	f.deleted = append(f.deleted, documentID)
	return nil
}

type fakeLexicalIndex struct {
	indexed []lexicalindex.Doc
}

func (f *fakeLexicalIndex) Index(ctx context.Context, doc lexicalindex.Doc) error {
	f.indexed = append(f.indexed, doc)
	return nil
}
func (f *fakeLexicalIndex) Delete(ctx context.Context, docID string) error       { return nil }
func (f *fakeLexicalIndex) DeleteByScan(ctx context.Context, scanID int64) error { return nil }

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int { return f.dim }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunProcessesPlainTextFilesEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "memo.txt", "the witness confirmed the meeting took place")
	writeFile(t, root, "empty.txt", "   ")

	store := newFakeStore()
	store.putScan(&catalog.Scan{ID: 1, RootPath: root, Status: catalog.ScanPending, EmbeddingsEnabled: true})

	vi := &fakeVectorIndex{}
	li := &fakeLexicalIndex{}
	o := New(store, root,
		WithVectorIndex(vi),
		WithLexicalIndex(li),
		WithEmbedder(&fakeEmbedder{dim: 4}),
		WithClock(func() time.Time { return time.Unix(0, 0).UTC() }),
	)

	err := o.Run(context.Background(), 1, false)
	require.NoError(t, err)

	final, err := store.GetScan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, catalog.ScanCompleted, final.Status)
	assert.Equal(t, 2, final.TotalFiles)
	assert.Equal(t, 1, final.FailedFiles)    // empty.txt
	assert.Equal(t, 1, final.ProcessedFiles) // memo.txt only; failures don't also count as processed

	require.Len(t, store.documents, 1)
	require.Len(t, li.indexed, 1)
	require.Len(t, vi.upserts, 1)
	assert.Len(t, store.errors, 1)
	assert.Equal(t, "EmptyContent", store.errors[0].ErrorType)
}

func TestRunRejectsRootOutsideAllowedRoot(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()

	store := newFakeStore()
	store.putScan(&catalog.Scan{ID: 1, RootPath: outside, Status: catalog.ScanPending})
	o := New(store, allowed)

	err := o.Run(context.Background(), 1, false)
	require.Error(t, err)
}

func TestRunResumeSkipsExistingDocuments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "already indexed content")
	writeFile(t, root, "b.txt", "new content to ingest")

	store := newFakeStore()
	store.putScan(&catalog.Scan{ID: 1, RootPath: root, Status: catalog.ScanPending})
	store.documents[100] = &catalog.Document{ID: 100, ScanID: 1, FilePath: "a.txt"}
	store.nextDocID = 100

	o := New(store, root)
	err := o.Run(context.Background(), 1, true)
	require.NoError(t, err)

	final, err := store.GetScan(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, final.TotalFiles)
}
