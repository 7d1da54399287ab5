// Package audit computes and verifies the hash-chained audit log (§4.11).
// The chain arithmetic is grounded on
// other_examples/a27905aa_Mindburn-Labs-helm__core-pkg-guardian-audit.go.go's
// AuditLog (Append links PreviousHash, VerifyChain recomputes and compares),
// generalized from an in-memory slice to catalog.Store-backed persistence,
// and its VerifyResult shape borrows
// other_examples/2f0829ea_CirtusX-ctrl-ai-v1__internal-audit-audit.go.go's
// VerifyResult (Valid/EntriesChecked/BrokenAt/ExpectedHash/ActualHash)
// instead of a bare bool, since a forensic tool needs to say where a chain
// broke, not just that it did.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"archon/internal/catalog"
)

const genesisHash = "GENESIS"

// verifyAllLimit is passed to ListAudit when walking the full chain; large
// enough that no real deployment's audit log exceeds it between restarts.
const verifyAllLimit = 10_000_000

// Store is the narrow persistence contract audit needs from catalog.Store.
type Store interface {
	LastAuditEntry(ctx context.Context) (*catalog.AuditEntry, error)
	AppendAudit(ctx context.Context, entry *catalog.AuditEntry) (*catalog.AuditEntry, error)
	ListAudit(ctx context.Context, limit, offset int) ([]*catalog.AuditEntry, error)
}

// Chain appends to and verifies the audit hash chain backed by store.
type Chain struct {
	store Store
	clock func() time.Time
}

// New builds a Chain backed by store.
func New(store Store) *Chain {
	return &Chain{store: store, clock: time.Now}
}

// Entry is the caller-supplied content of a new audit row; ID, EntryHash,
// PreviousHash and CreatedAt are computed by Append.
type Entry struct {
	Action     catalog.AuditAction
	DocumentID *int64
	ScanID     *int64
	Details    string
	UserIP     string
}

// Append reads the chain's tail hash, computes this entry's entry_hash per
// §4.11 ("action | created_at_iso | details_or_empty | previous_hash"), and
// writes the row.
func (c *Chain) Append(ctx context.Context, e Entry) (*catalog.AuditEntry, error) {
	prev, err := c.store.LastAuditEntry(ctx)
	if err != nil {
		return nil, fmt.Errorf("read last audit entry: %w", err)
	}
	previousHash := genesisHash
	if prev != nil {
		previousHash = prev.EntryHash
	}

	// Truncated to microsecond precision to match Postgres's TIMESTAMPTZ
	// column: computeEntryHash must be fed the exact value that round-trips
	// through the store, or VerifyChain's recomputation (fed the
	// microsecond-truncated value read back from the database) would never
	// match a hash computed at nanosecond precision.
	createdAt := c.clock().UTC().Truncate(time.Microsecond)
	entryHash := computeEntryHash(string(e.Action), createdAt, e.Details, previousHash)

	row := &catalog.AuditEntry{
		Action:       e.Action,
		DocumentID:   e.DocumentID,
		ScanID:       e.ScanID,
		Details:      e.Details,
		UserIP:       e.UserIP,
		EntryHash:    entryHash,
		PreviousHash: previousHash,
		CreatedAt:    createdAt,
	}
	return c.store.AppendAudit(ctx, row)
}

// VerifyResult reports the outcome of VerifyChain.
type VerifyResult struct {
	Valid          bool
	EntriesChecked int
	BrokenAt       int64 // AuditEntry.ID of the first mismatch, 0 if Valid
	ExpectedHash   string
	ActualHash     string
}

// VerifyChain recomputes every entry's entry_hash in order and checks both
// the content hash and the previous_hash link, stopping at the first
// mismatch (§4.11: "first mismatch identifies tampering").
func (c *Chain) VerifyChain(ctx context.Context) (VerifyResult, error) {
	// ListAudit's LIMIT is a literal SQL LIMIT, so 0 would return nothing;
	// verification needs the whole chain.
	entries, err := c.store.ListAudit(ctx, verifyAllLimit, 0)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("list audit entries: %w", err)
	}
	// ListAudit returns newest-first; the chain must be walked oldest-first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	previousHash := genesisHash
	for i, e := range entries {
		if e.PreviousHash != previousHash {
			return VerifyResult{
				Valid: false, EntriesChecked: i + 1, BrokenAt: e.ID,
				ExpectedHash: previousHash, ActualHash: e.PreviousHash,
			}, nil
		}
		want := computeEntryHash(string(e.Action), e.CreatedAt, e.Details, e.PreviousHash)
		if want != e.EntryHash {
			return VerifyResult{
				Valid: false, EntriesChecked: i + 1, BrokenAt: e.ID,
				ExpectedHash: want, ActualHash: e.EntryHash,
			}, nil
		}
		previousHash = e.EntryHash
	}
	return VerifyResult{Valid: true, EntriesChecked: len(entries)}, nil
}

func computeEntryHash(action string, createdAt time.Time, details, previousHash string) string {
	iso := createdAt.UTC().Format(time.RFC3339Nano)
	payload := action + "|" + iso + "|" + details + "|" + previousHash
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
