// Package progress is the progress bus (C10): it fans per-scan progress
// snapshots out to whatever subscriber is polling for them.
//
// Scheduling is cooperative per the orchestrator's contract: a subscriber
// periodically polls for the latest snapshot rather than the bus pushing
// bytes down an open connection itself, so delivery is at-least-once and
// every message is a full snapshot, never a delta.
//
// Grounded on its redis/go-redis/v9 dependency (see
// internal/skills/redis_cache.go for the cache-key/TTL idiom this adapts)
// used here as the cross-process broker so multiple API replicas can serve
// the same scan's progress. When no Redis URL is configured the bus keeps
// snapshots in an in-process map instead, the same "silent fallback, never
// raise" shape as internal/embedding's local fallback.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"archon/internal/logging"
	"archon/internal/scan"
)

const snapshotTTL = 10 * time.Minute

// broker is the narrow slice of Redis commands the bus needs, so tests can
// substitute an in-memory fake without standing up a real server.
type broker interface {
	set(ctx context.Context, key, value string, ttl time.Duration) error
	get(ctx context.Context, key string) (string, bool, error)
	publish(ctx context.Context, channel, message string) error
}

type redisBroker struct{ client *redis.Client }

func (b redisBroker) set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b redisBroker) get(ctx context.Context, key string) (string, bool, error) {
	val, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (b redisBroker) publish(ctx context.Context, channel, message string) error {
	return b.client.Publish(ctx, channel, message).Err()
}

// Bus implements scan.Publisher and serves polling Subscribe calls. It is
// safe for concurrent use.
type Bus struct {
	broker broker

	mu    sync.RWMutex
	local map[int64]scan.ProgressEvent
}

// New builds a Bus. An empty redisURL is valid and yields an in-process-only
// bus, matching telemetry.Setup's "enabled:false returns a usable no-op"
// convention for optional backends.
func New(redisURL string) (*Bus, error) {
	b := &Bus{local: make(map[int64]scan.ProgressEvent)}
	if redisURL == "" {
		return b, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("progress: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("progress: redis ping: %w", err)
	}
	b.broker = redisBroker{client: client}
	return b, nil
}

func snapshotKey(scanID int64) string { return fmt.Sprintf("archon:progress:scan:%d", scanID) }
func channelName(scanID int64) string { return fmt.Sprintf("archon:progress:chan:%d", scanID) }

// Publish stores the latest snapshot and, when Redis is configured,
// publishes it to the scan's channel. It never returns an error to the
// orchestrator: a broker outage must not fail a scan, so failures are
// logged and swallowed.
func (b *Bus) Publish(ctx context.Context, event scan.ProgressEvent) {
	b.mu.Lock()
	b.local[event.ScanID] = event
	b.mu.Unlock()

	if b.broker == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logging.Log.WithError(err).Warn("progress_marshal_failed")
		return
	}
	if err := b.broker.set(ctx, snapshotKey(event.ScanID), string(data), snapshotTTL); err != nil {
		logging.Log.WithError(err).Warn("progress_snapshot_write_failed")
	}
	if err := b.broker.publish(ctx, channelName(event.ScanID), string(data)); err != nil {
		logging.Log.WithError(err).Debug("progress_publish_failed")
	}
}

// Snapshot returns the latest known event for a scan, preferring the
// broker's copy (shared across replicas) and falling back to the
// in-process map populated by this process's own Publish calls.
func (b *Bus) Snapshot(ctx context.Context, scanID int64) (scan.ProgressEvent, bool) {
	if b.broker != nil {
		raw, ok, err := b.broker.get(ctx, snapshotKey(scanID))
		if err == nil && ok {
			var event scan.ProgressEvent
			if json.Unmarshal([]byte(raw), &event) == nil {
				return event, true
			}
		}
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	event, ok := b.local[scanID]
	return event, ok
}
