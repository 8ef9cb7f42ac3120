// Package queue provides the bounded inbound event queue between the
// ingestion tasks and the arbiter.
package queue

import (
	"sync"

	"github.com/quakeline/quakeline/internal/event"
	"github.com/quakeline/quakeline/internal/logging"
)

// DefaultCapacity is the default queue capacity.
const DefaultCapacity = 100

// Queue is a fixed-size circular FIFO of events. Submit never blocks:
// on a full queue the oldest queued event is dropped to admit the
// newest. Bounded staleness, not backpressure — ingestion tasks must
// never stall on the display pipeline. Goroutine-safe.
type Queue struct {
	mu    sync.Mutex
	buf   []*event.Event
	size  int
	head  int // oldest entry
	count int // number of valid entries (0..size)
}

// New creates a queue with the given capacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		buf:  make([]*event.Event, capacity),
		size: capacity,
	}
}

// Submit enqueues an event, dropping the oldest queued event if full.
func (q *Queue) Submit(ev *event.Event) {
	if ev == nil {
		return
	}
	var dropped *event.Event
	q.mu.Lock()
	if q.count == q.size {
		dropped = q.buf[q.head]
		q.head = (q.head + 1) % q.size
		q.count--
	}
	q.buf[(q.head+q.count)%q.size] = ev
	q.count++
	q.mu.Unlock()

	if dropped != nil {
		logging.Warn("event queue full, dropped oldest", "source", dropped.Source, "type", dropped.Type.String())
	}
}

// Drain removes and returns up to max events in arrival order.
// Returns nil when the queue is empty.
func (q *Queue) Drain(max int) []*event.Event {
	if max <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	n := max
	if n > q.count {
		n = q.count
	}
	out := make([]*event.Event, n)
	for i := 0; i < n; i++ {
		idx := (q.head + i) % q.size
		out[i] = q.buf[idx]
		q.buf[idx] = nil
	}
	q.head = (q.head + n) % q.size
	q.count -= n
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.size
}
