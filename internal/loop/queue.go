// Package loop serializes host work onto a single logical thread.
//
// Audio callbacks, input handlers and timers post jobs; Run executes them one
// at a time, so the spawner core never sees two ticks at once.
package loop

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// DefaultQueueSize is the job capacity used when none is given.
const DefaultQueueSize = 256

// Queue is a bounded FIFO of jobs.
type Queue struct {
	jobs    chan func()
	stopCh  chan struct{}
	stopped atomic.Bool

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// NewQueue creates a queue holding up to size pending jobs.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{
		jobs:   make(chan func(), size),
		stopCh: make(chan struct{}),
	}
}

// Post enqueues fn without blocking. Returns false (and counts a drop) when
// the queue is full or stopped.
func (q *Queue) Post(fn func()) bool {
	if q.stopped.Load() {
		q.dropped.Add(1)
		return false
	}
	select {
	case q.jobs <- fn:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Run executes jobs until ctx is canceled or Stop is called (blocks).
func (q *Queue) Run(ctx context.Context) error {
	slog.Info("dispatch loop started", "capacity", cap(q.jobs))

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatch loop stopping", "processed", q.processed.Load(), "dropped", q.dropped.Load())
			return ctx.Err()

		case <-q.stopCh:
			slog.Info("dispatch loop stopped", "processed", q.processed.Load(), "dropped", q.dropped.Load())
			return nil

		case fn := <-q.jobs:
			fn()
			q.processed.Add(1)
		}
	}
}

// Drain executes every pending job on the calling goroutine and returns how
// many ran. Intended for tests and shutdown.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.jobs:
			fn()
			q.processed.Add(1)
			n++
		default:
			return n
		}
	}
}

// Stop stops Run. Safe to call more than once.
func (q *Queue) Stop() {
	if q.stopped.CompareAndSwap(false, true) {
		close(q.stopCh)
	}
}

// Pending returns the number of queued jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Processed returns the number of executed jobs.
func (q *Queue) Processed() uint64 {
	return q.processed.Load()
}

// Dropped returns the number of rejected jobs.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
