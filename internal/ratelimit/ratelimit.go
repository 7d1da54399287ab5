// Package ratelimit implements the sliding-window request limiter (C14):
// on each call, timestamps older than the window are dropped, the
// surviving count decides allow/deny, and retry-after is derived from the
// oldest surviving timestamp.
//
// Grounded on internal/progress's redis/go-redis/v9 dependency, used here as a
// sorted-set-per-key store (ZADD/ZREMRANGEBYSCORE/ZCARD) rather than the
// plain string cache internal/skills/redis_cache.go shows, since a sliding
// window needs per-hit timestamps, not a single value. Falls back to an
// in-process window with the same "silent fallback, never raise" shape as
// internal/progress when Redis is unavailable or unconfigured.
package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"archon/internal/logging"
)

// window is the narrow sliding-window primitive the limiter needs, so tests
// can substitute an in-memory fake without a live Redis server.
type window interface {
	recordAndCount(ctx context.Context, key, member string, now, windowStart time.Time, ttl time.Duration) (count int64, oldest time.Time, err error)
}

type redisWindow struct{ client *redis.Client }

func (w redisWindow) recordAndCount(ctx context.Context, key, member string, now, windowStart time.Time, ttl time.Duration) (int64, time.Time, error) {
	pipe := w.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart.UnixNano()))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	oldest := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	var oldestTS time.Time
	if zs := oldest.Val(); len(zs) > 0 {
		oldestTS = time.Unix(0, int64(zs[0].Score))
	}
	return card.Val(), oldestTS, nil
}

// localWindow is the in-process fallback: per-key slices of hit timestamps.
type localWindow struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

func newLocalWindow() *localWindow { return &localWindow{hits: make(map[string][]time.Time)} }

func (w *localWindow) recordAndCount(ctx context.Context, key, member string, now, windowStart time.Time, ttl time.Duration) (int64, time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.hits[key][:0]
	for _, ts := range w.hits[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	sort.Slice(kept, func(i, j int) bool { return kept[i].Before(kept[j]) })
	w.hits[key] = kept

	return int64(len(kept)), kept[0], nil
}

// Result is the outcome of one Allow check.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter enforces a max request count per window, per client key.
type Limiter struct {
	backend window
	local   *localWindow
	window  time.Duration
	max     int64
	clock   func() time.Time
}

// New builds a Limiter. An empty redisURL yields a limiter backed purely by
// the in-process window.
func New(redisURL string, windowSeconds, maxRequests int) (*Limiter, error) {
	l := &Limiter{
		local:  newLocalWindow(),
		window: time.Duration(windowSeconds) * time.Second,
		max:    int64(maxRequests),
		clock:  time.Now,
	}
	if redisURL == "" {
		return l, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ratelimit: redis ping: %w", err)
	}
	l.backend = redisWindow{client: client}
	return l, nil
}

// Allow records one hit for clientKey and reports whether it falls within
// the window's max count.
func (l *Limiter) Allow(ctx context.Context, clientKey string) Result {
	now := l.clock()
	windowStart := now.Add(-l.window)
	key := "archon:ratelimit:" + clientKey
	member := fmt.Sprintf("%d", now.UnixNano())

	count, oldest, err := l.record(ctx, key, member, now, windowStart)
	if err != nil {
		// Both backends failed (the local one never returns an error); treat
		// as allowed rather than blocking traffic on an observability outage.
		return Result{Allowed: true}
	}

	if count > l.max {
		retryAfter := l.window - now.Sub(oldest)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Result{Allowed: false, RetryAfter: retryAfter}
	}
	return Result{Allowed: true}
}

func (l *Limiter) record(ctx context.Context, key, member string, now, windowStart time.Time) (int64, time.Time, error) {
	if l.backend != nil {
		count, oldest, err := l.backend.recordAndCount(ctx, key, member, now, windowStart, l.window)
		if err == nil {
			return count, oldest, nil
		}
		logging.Log.WithError(err).Warn("ratelimit_backend_failed_falling_back_local")
	}
	return l.local.recordAndCount(ctx, key, member, now, windowStart, l.window)
}

// ClientKey derives the limiter key from a forwarded-for header (its first,
// left-most entry) or, absent one, the peer address.
func ClientKey(forwardedFor, peerAddr string) string {
	head, _, _ := strings.Cut(forwardedFor, ",")
	if trimmed := strings.TrimSpace(head); trimmed != "" {
		return trimmed
	}
	return peerAddr
}
