package progress

import (
	"context"
	"time"

	"archon/internal/scan"
)

// DefaultPollInterval is the cooperative polling cadence (§4.9).
const DefaultPollInterval = 500 * time.Millisecond

// Send delivers one snapshot to a subscriber, e.g. a WebSocket write.
// Implementations should be fast; Poll does not buffer.
type Send func(scan.ProgressEvent) error

// Poll drives at-least-once delivery of snapshots for scanID until the
// scan reaches a terminal event, ctx is cancelled, or send returns an
// error. The final message delivered before returning nil is always the
// terminal event, matching the "last message before a connection closes
// must be terminal" contract.
func (b *Bus) Poll(ctx context.Context, scanID int64, interval time.Duration, send Send) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deliver := func() (terminal bool, err error) {
		event, ok := b.Snapshot(ctx, scanID)
		if !ok {
			return false, nil
		}
		if err := send(event); err != nil {
			return false, err
		}
		return event.Terminal, nil
	}

	// Deliver an immediate snapshot on subscribe rather than waiting a
	// full interval, so a client attaching mid-scan sees state right away.
	if terminal, err := deliver(); err != nil {
		return err
	} else if terminal {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			terminal, err := deliver()
			if err != nil {
				return err
			}
			if terminal {
				return nil
			}
		}
	}
}
