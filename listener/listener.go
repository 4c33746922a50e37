// Package listener turns native input notifications into canonical events
// and applies the block list to key events.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"globalinput/blocklist"
	"globalinput/core"
)

// Dispatch receives one canonical event from a source. A true result asks the
// source to keep the native event from reaching other applications.
type Dispatch func(ev core.Event) (suppress bool)

// Source is one platform's way of observing global input.
type Source interface {
	Name() string
	// Attach installs the native hooks and starts calling dispatch, in the
	// order the OS reports events. It returns before any event is delivered
	// and fails without leaving anything installed.
	Attach(ctx context.Context, dispatch Dispatch) error
	// Detach removes the hooks. When it returns, dispatch is no longer called.
	// Calling it twice is harmless.
	Detach() error
	// CanSuppress reports whether a true Dispatch result has any effect.
	CanSuppress() bool
}

type Listener struct {
	source Source
	blocks *blocklist.Store
	logger *slog.Logger

	mu      sync.Mutex
	running atomic.Bool
	emit    func(core.Event)
}

func New(source Source, blocks *blocklist.Store, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		source: source,
		blocks: blocks,
		logger: logger.With("source", source.Name()),
	}
}

func (l *Listener) Source() Source { return l.source }

func (l *Listener) Running() bool { return l.running.Load() }

// Start attaches the source. Every event is handed to emit, including key
// events that are suppressed because their code is blocked.
func (l *Listener) Start(ctx context.Context, emit func(core.Event)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return fmt.Errorf("listener %s: already running", l.source.Name())
	}
	l.emit = emit
	if err := l.source.Attach(ctx, l.handle); err != nil {
		l.emit = nil
		return fmt.Errorf("%w: %s: %w", core.ErrAttach, l.source.Name(), err)
	}
	l.running.Store(true)
	if !l.source.CanSuppress() && l.blocks.Len() > 0 {
		l.logger.Warn("source cannot suppress native events, blocked keys will still reach other applications")
	}
	l.logger.Info("listener started")
	return nil
}

// Stop detaches the source and waits for it to quiesce.
func (l *Listener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running.CompareAndSwap(true, false) {
		return nil
	}
	err := l.source.Detach()
	l.emit = nil
	l.logger.Info("listener stopped")
	return err
}

func (l *Listener) handle(ev core.Event) bool {
	suppress := false
	if k, ok := ev.(core.KeyEvent); ok {
		suppress = l.blocks.IsBlocked(k.KeyCode)
	}
	if emit := l.emit; emit != nil {
		emit(ev)
	}
	return suppress
}
