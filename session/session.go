// Package session binds the global listener to at most one event sink at a time.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"globalinput/blocklist"
	"globalinput/core"
	"globalinput/listener"
)

// Sink receives the canonical event stream of one session.
type Sink interface {
	Send(ev core.Event) error
	// Close is called once, when the session releases the sink.
	Close() error
}

// SinkFunc adapts a function to Sink. Close is a no-op.
type SinkFunc func(ev core.Event) error

func (f SinkFunc) Send(ev core.Event) error { return f(ev) }
func (f SinkFunc) Close() error             { return nil }

type Options struct {
	// ClearBlocksOnStop empties the block list whenever a session ends.
	ClearBlocksOnStop bool
	Logger            *slog.Logger
}

// Controller owns the session lifecycle. Subscribe and Unsubscribe may be
// called from any goroutine; events are delivered from the listener's.
type Controller struct {
	listener *listener.Listener
	blocks   *blocklist.Store
	opts     Options
	logger   *slog.Logger

	// serializes Subscribe and Unsubscribe
	mu     sync.Mutex
	active atomic.Bool

	// guards sink; the only lock taken on the event path
	sinkMu sync.Mutex
	sink   Sink

	delivered atomic.Uint64
}

func New(l *listener.Listener, blocks *blocklist.Store, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		listener: l,
		blocks:   blocks,
		opts:     opts,
		logger:   opts.Logger.With("component", "session"),
	}
}

func (c *Controller) Active() bool { return c.active.Load() }

func (c *Controller) Blocks() *blocklist.Store { return c.blocks }

// Delivered counts events handed to sinks since the controller was created.
func (c *Controller) Delivered() uint64 { return c.delivered.Load() }

// Subscribe starts a session delivering to sink. An active session is torn
// down first; its sink is closed unless it is sink itself. If the listener cannot attach, the controller stays stopped,
// sink is not retained and the attach error is returned.
func (c *Controller) Subscribe(ctx context.Context, sink Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active.Load() {
		c.logger.Info("replacing active session")
		if err := c.stopLocked(sink); err != nil {
			c.logger.Warn("previous session did not stop cleanly", "err", err)
		}
	}

	c.setSink(sink)
	if err := c.listener.Start(ctx, c.deliver); err != nil {
		c.setSink(nil)
		c.logger.Error("session failed to start", "err", err)
		return err
	}
	c.active.Store(true)
	c.logger.Info("session started", "blocked", c.blocks.Len())
	return nil
}

// Unsubscribe ends the active session. No event reaches the old sink after
// it returns. Calling it while stopped is a no-op.
func (c *Controller) Unsubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active.Load() {
		return nil
	}
	return c.stopLocked(nil)
}

// Release ends the session only if it is still delivering to sink. Sinks
// must be comparable.
func (c *Controller) Release(sink Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active.Load() {
		return nil
	}
	c.sinkMu.Lock()
	current := c.sink == sink
	c.sinkMu.Unlock()
	if !current {
		return nil
	}
	return c.stopLocked(nil)
}

// stopLocked detaches the listener and closes the old sink unless it is keep.
func (c *Controller) stopLocked(keep Sink) error {
	old := c.setSink(nil)
	err := c.listener.Stop()
	c.active.Store(false)
	if old != nil && old != keep {
		err = multierr.Append(err, old.Close())
	}
	if c.opts.ClearBlocksOnStop {
		c.blocks.Clear()
	}
	c.logger.Info("session stopped", "delivered", c.delivered.Load())
	return err
}

func (c *Controller) setSink(s Sink) (old Sink) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	old, c.sink = c.sink, s
	return old
}

func (c *Controller) deliver(ev core.Event) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	if c.sink == nil {
		return
	}
	if err := c.sink.Send(ev); err != nil {
		c.logger.Debug("sink rejected event", "kind", ev.Kind(), "err", err)
		return
	}
	c.delivered.Add(1)
}
