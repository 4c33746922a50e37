package session

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"globalinput/core"
)

var (
	ErrQueueFull  = errors.New("sink queue full")
	ErrSinkClosed = errors.New("sink closed")
)

// Queue moves a slow sink off the event path. Send never blocks: events are
// handed to next from a separate goroutine and dropped when the queue is full.
type Queue struct {
	next   Sink
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan core.Event
	done   chan struct{}

	dropped atomic.Uint64
}

func NewQueue(next Sink, size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = 1024
	}
	q := &Queue{
		next:   next,
		logger: logger,
		ch:     make(chan core.Event, size),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for ev := range q.ch {
		if err := q.next.Send(ev); err != nil {
			q.logger.Debug("queued sink rejected event", "kind", ev.Kind(), "err", err)
		}
	}
}

func (q *Queue) Send(ev core.Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrSinkClosed
	}
	select {
	case q.ch <- ev:
		return nil
	default:
		q.dropped.Add(1)
		return ErrQueueFull
	}
}

// Close hands the queued events to next, then closes it.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
	if n := q.dropped.Load(); n > 0 {
		q.logger.Warn("events dropped, sink too slow", "dropped", n)
	}
	return q.next.Close()
}

// Dropped counts events refused because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
