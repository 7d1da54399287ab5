package scan

import (
	"context"
	"fmt"
	"sync"

	"archon/internal/catalog"
)

// fakeStore is a minimal in-memory catalog.Store for orchestrator tests.
// It implements only enough behavior for the scan/reprocess code paths to
// exercise; methods outside that path panic so a test that unexpectedly
// depends on them fails loudly instead of silently succeeding.
type fakeStore struct {
	mu        sync.Mutex
	scans     map[int64]*catalog.Scan
	documents map[int64]*catalog.Document
	errors    []*catalog.ScanError
	entities  []*catalog.Entity
	nextDocID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scans:     make(map[int64]*catalog.Scan),
		documents: make(map[int64]*catalog.Document),
	}
}

func (f *fakeStore) putScan(s *catalog.Scan) { f.scans[s.ID] = s }

func (f *fakeStore) CreateScan(ctx context.Context, rootPath string, embeddingsEnabled bool) (*catalog.Scan, error) {
	panic("not used")
}

func (f *fakeStore) GetScan(ctx context.Context, id int64) (*catalog.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scans[id]
	if !ok {
		return nil, fmt.Errorf("scan %d not found", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FindPendingOrRunningScanByPath(ctx context.Context, rootPath string) (*catalog.Scan, error) {
	panic("not used")
}

func (f *fakeStore) ListScans(ctx context.Context) ([]*catalog.Scan, error) { panic("not used") }

func (f *fakeStore) UpdateScan(ctx context.Context, s *catalog.Scan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.scans[s.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteScan(ctx context.Context, id int64) error { panic("not used") }

func (f *fakeStore) CreateDocument(ctx context.Context, d *catalog.Document) (*catalog.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextDocID++
	cp := *d
	cp.ID = f.nextDocID
	f.documents[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeStore) GetDocument(ctx context.Context, id int64) (*catalog.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %d not found", id)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) GetDocumentByPath(ctx context.Context, scanID int64, filePath string) (*catalog.Document, error) {
	panic("not used")
}

func (f *fakeStore) ListDocumentsByScan(ctx context.Context, scanID int64) ([]*catalog.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*catalog.Document
	for _, d := range f.documents {
		if d.ScanID == scanID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDocument(ctx context.Context, d *catalog.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *d
	f.documents[d.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteDocumentsByScan(ctx context.Context, scanID int64) error { panic("not used") }

func (f *fakeStore) RecordScanError(ctx context.Context, e *catalog.ScanError) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, e)
	return nil
}

func (f *fakeStore) ListScanErrors(ctx context.Context, scanID int64, limit int) ([]*catalog.ScanError, error) {
	panic("not used")
}

func (f *fakeStore) UpsertEntity(ctx context.Context, e *catalog.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities = append(f.entities, e)
	return nil
}

func (f *fakeStore) ListEntitiesByDocument(ctx context.Context, documentID int64) ([]*catalog.Entity, error) {
	panic("not used")
}
func (f *fakeStore) ListEntityTypes(ctx context.Context) ([]catalog.EntityType, error) {
	panic("not used")
}
func (f *fakeStore) EntityGraph(ctx context.Context, filter catalog.EntityGraphFilter) ([]catalog.EntityCooccurrence, error) {
	panic("not used")
}

func (f *fakeStore) AppendAudit(ctx context.Context, entry *catalog.AuditEntry) (*catalog.AuditEntry, error) {
	panic("not used")
}
func (f *fakeStore) LastAuditEntry(ctx context.Context) (*catalog.AuditEntry, error) {
	panic("not used")
}
func (f *fakeStore) ListAudit(ctx context.Context, limit, offset int) ([]*catalog.AuditEntry, error) {
	panic("not used")
}
func (f *fakeStore) ListAuditByDocument(ctx context.Context, documentID int64) ([]*catalog.AuditEntry, error) {
	panic("not used")
}

func (f *fakeStore) CreateUser(ctx context.Context, u *catalog.User) error { panic("not used") }
func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*catalog.User, error) {
	panic("not used")
}
func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*catalog.User, error) {
	panic("not used")
}
func (f *fakeStore) CountUsers(ctx context.Context) (int, error) { panic("not used") }

func (f *fakeStore) Close() {}
