package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreDefaultsEmptyIDToDefault(t *testing.T) {
	s := NewSessionStore(0, 0)
	sess := s.Get("")
	assert.Equal(t, "default", sess.ID)
}

func TestSessionStoreReturnsSameSessionOnRepeatedGet(t *testing.T) {
	s := NewSessionStore(0, 0)
	a := s.Get("alice")
	s.Append("alice", Turn{Role: RoleUser, Content: "hi"})
	b := s.Get("alice")
	require.Len(t, b.History, 1)
	assert.Equal(t, a.ID, b.ID)
}

func TestSessionStoreExpiresByTTL(t *testing.T) {
	now := time.Now()
	s := NewSessionStore(time.Minute, 0)
	s.clock = func() time.Time { return now }
	s.Get("alice")

	s.clock = func() time.Time { return now.Add(2 * time.Minute) }
	sess := s.Get("alice")
	assert.Empty(t, sess.History, "expired session should have been recreated fresh")
}

func TestSessionStoreEvictsLeastRecentlyUsedOverCap(t *testing.T) {
	now := time.Now()
	s := NewSessionStore(0, 2)
	s.clock = func() time.Time { return now }
	s.Get("a")
	s.clock = func() time.Time { return now.Add(time.Second) }
	s.Get("b")
	s.clock = func() time.Time { return now.Add(2 * time.Second) }
	s.Get("c") // should evict "a", the least recently used

	s.mu.Lock()
	_, aExists := s.byID["a"]
	_, bExists := s.byID["b"]
	_, cExists := s.byID["c"]
	s.mu.Unlock()

	assert.False(t, aExists)
	assert.True(t, bExists)
	assert.True(t, cExists)
}
