package scan

import (
	"context"
	"sync"
	"time"
)

// job is one enqueued scan run.
type job struct {
	scanID int64
	resume bool
}

// Pool is the worker domain (§5): a fixed set of goroutines draining a jobs
// channel, one scan in flight per worker, parallelism scaling horizontally
// by raising workerCount. Grounded on its
// internal/orchestrator/kafka.go StartKafkaConsumer: a buffered jobs
// channel, a WaitGroup of worker goroutines ranging over it, and the
// request domain only ever enqueuing or requesting cancellation, never
// mutating scan state directly.
type Pool struct {
	orch        *Orchestrator
	taskTimeout time.Duration
	jobs        chan job
	wg          sync.WaitGroup

	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
}

// NewPool starts workerCount goroutines against orch. queueDepth bounds how
// many pending scans Enqueue will buffer before blocking the caller.
// taskTimeout is the hard per-task ceiling (§5: 1 hour).
func NewPool(orch *Orchestrator, workerCount, queueDepth int, taskTimeout time.Duration) *Pool {
	p := &Pool{
		orch:        orch,
		taskTimeout: taskTimeout,
		jobs:        make(chan job, queueDepth),
		cancels:     make(map[int64]context.CancelFunc),
	}
	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.runWorker()
	}
	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.runOne(j)
	}
}

func (p *Pool) runOne(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.taskTimeout)
	defer cancel()

	p.mu.Lock()
	p.cancels[j.scanID] = cancel
	p.mu.Unlock()

	_ = p.orch.Run(ctx, j.scanID, j.resume)

	p.mu.Lock()
	delete(p.cancels, j.scanID)
	p.mu.Unlock()
}

// Enqueue schedules scanID to run (or resume) on the next free worker.
func (p *Pool) Enqueue(scanID int64, resume bool) {
	p.jobs <- job{scanID: scanID, resume: resume}
}

// Cancel revokes a running scan's context if one is in flight.
// The orchestrator observes the cancellation between files (§5) and
// transitions the scan to cancelled; it reports false if scanID isn't
// currently owned by a worker (already terminal, or still only queued).
func (p *Pool) Cancel(scanID int64) bool {
	p.mu.Lock()
	cancel, ok := p.cancels[scanID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Close stops accepting new jobs and waits for in-flight workers to drain.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
