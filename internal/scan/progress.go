package scan

import "context"

// Phase is the current stage within a running scan, per §4.8 step 2/5a.
type Phase string

const (
	PhaseDetection  Phase = "detection"
	PhaseProcessing Phase = "processing"
)

// ProgressEvent is a full snapshot of scan progress, not a delta, the
// progress bus (C10) delivers these at-least-once, so every field must be
// self-sufficient for a client reconnecting mid-scan.
type ProgressEvent struct {
	ScanID      int64
	Phase       Phase
	CurrentFile string
	Processed   int
	Total       int
	Failed      int
	Terminal    bool
	Status      string // mirrors catalog.ScanStatus once terminal
	Errors      []string
}

// Publisher delivers a ProgressEvent snapshot. Implementations must not
// block the orchestrator for long; C10's redis-backed implementation writes
// a snapshot key and publishes to a channel for active subscribers.
type Publisher interface {
	Publish(ctx context.Context, event ProgressEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ProgressEvent) {}
