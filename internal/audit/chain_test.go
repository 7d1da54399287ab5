package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archon/internal/catalog"
)

type fakeStore struct {
	entries []*catalog.AuditEntry
	nextID  int64
}

func (f *fakeStore) LastAuditEntry(ctx context.Context) (*catalog.AuditEntry, error) {
	if len(f.entries) == 0 {
		return nil, nil
	}
	return f.entries[len(f.entries)-1], nil
}

func (f *fakeStore) AppendAudit(ctx context.Context, e *catalog.AuditEntry) (*catalog.AuditEntry, error) {
	f.nextID++
	e.ID = f.nextID
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeStore) ListAudit(ctx context.Context, limit, offset int) ([]*catalog.AuditEntry, error) {
	out := make([]*catalog.AuditEntry, len(f.entries))
	for i, e := range f.entries {
		out[len(f.entries)-1-i] = e // newest-first, matching the Postgres ORDER BY id DESC
	}
	return out, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAppendFirstEntryLinksToGenesis(t *testing.T) {
	store := &fakeStore{}
	c := New(store)
	c.clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	e, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCreated, Details: `{"scan_id":1}`})
	require.NoError(t, err)
	assert.Equal(t, genesisHash, e.PreviousHash)
	assert.NotEmpty(t, e.EntryHash)
}

func TestAppendChainsToPreviousEntryHash(t *testing.T) {
	store := &fakeStore{}
	c := New(store)
	c.clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCreated})
	require.NoError(t, err)

	second, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCompleted})
	require.NoError(t, err)

	assert.Equal(t, first.EntryHash, second.PreviousHash)
}

func TestAppendIsDeterministicGivenSameInputs(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h1 := computeEntryHash("scan_created", ts, "details", genesisHash)
	h2 := computeEntryHash("scan_created", ts, "details", genesisHash)
	assert.Equal(t, h1, h2)

	h3 := computeEntryHash("scan_created", ts, "different", genesisHash)
	assert.NotEqual(t, h1, h3)
}

func TestVerifyChainAcceptsAnUntamperedChain(t *testing.T) {
	store := &fakeStore{}
	c := New(store)
	c.clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	for _, action := range []catalog.AuditAction{catalog.AuditScanCreated, catalog.AuditDocumentIndexed, catalog.AuditScanCompleted} {
		_, err := c.Append(context.Background(), Entry{Action: action})
		require.NoError(t, err)
	}

	result, err := c.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 3, result.EntriesChecked)
	assert.Zero(t, result.BrokenAt)
}

func TestVerifyChainDetectsTamperedDetails(t *testing.T) {
	store := &fakeStore{}
	c := New(store)
	c.clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCreated, Details: "original"})
	require.NoError(t, err)
	second, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCompleted})
	require.NoError(t, err)

	// Tamper with the first entry's stored details after the fact.
	store.entries[0].Details = "tampered"

	result, err := c.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, store.entries[0].ID, result.BrokenAt)
	assert.NotEqual(t, second.PreviousHash, "") // sanity: chain had a second link
}

func TestVerifyChainDetectsBrokenPreviousHashLink(t *testing.T) {
	store := &fakeStore{}
	c := New(store)
	c.clock = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := c.Append(context.Background(), Entry{Action: catalog.AuditScanCreated})
	require.NoError(t, err)
	_, err = c.Append(context.Background(), Entry{Action: catalog.AuditScanCompleted})
	require.NoError(t, err)

	store.entries[1].PreviousHash = "forged"

	result, err := c.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, store.entries[1].ID, result.BrokenAt)
}

func TestVerifyChainOnEmptyChainIsValid(t *testing.T) {
	c := New(&fakeStore{})
	result, err := c.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Zero(t, result.EntriesChecked)
}
