package objectstore

import (
	"context"
	"fmt"
	"io"
)

// EvidenceArchive durably archives the original bytes of an ingested file
// under one ObjectStore bucket, keyed by scan and document so the chain of
// custody survives independently of the catalog's back-references (§2: an
// "optional evidence archival" component beyond what C1 rows already hold).
type EvidenceArchive struct {
	store ObjectStore
}

// NewEvidenceArchive wraps store for evidence archival. A nil store is
// valid and yields a no-op archive, matching objectstore being optional.
func NewEvidenceArchive(store ObjectStore) *EvidenceArchive {
	return &EvidenceArchive{store: store}
}

// Key builds the archive key for one document's original bytes.
func Key(scanID, documentID int64, logicalPath string) string {
	return fmt.Sprintf("scans/%d/documents/%d/%s", scanID, documentID, logicalPath)
}

// Archive stores r's bytes under scanID/documentID/logicalPath. Returns
// ("", nil) when no store is configured, so callers can treat archival as
// optional without a nil check of their own.
func (a *EvidenceArchive) Archive(ctx context.Context, scanID, documentID int64, logicalPath string, r io.Reader) (string, error) {
	if a.store == nil {
		return "", nil
	}
	key := Key(scanID, documentID, logicalPath)
	if _, err := a.store.Put(ctx, key, r, PutOptions{}); err != nil {
		return "", err
	}
	return key, nil
}

// Retrieve opens the archived bytes for one document. Callers must close
// the returned reader.
func (a *EvidenceArchive) Retrieve(ctx context.Context, scanID, documentID int64, logicalPath string) (io.ReadCloser, error) {
	if a.store == nil {
		return nil, ErrNotFound
	}
	r, _, err := a.store.Get(ctx, Key(scanID, documentID, logicalPath))
	return r, err
}
