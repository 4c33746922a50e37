package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"globalinput/core"
)

// Fallback attaches primary and, when that is refused for lack of
// permission or platform support, secondary instead.
type Fallback struct {
	primary   Source
	secondary Source
	logger    *slog.Logger

	mu      sync.Mutex
	current Source
}

var _ Source = (*Fallback)(nil)

func NewFallback(primary, secondary Source, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) Name() string {
	return f.primary.Name() + "|" + f.secondary.Name()
}

// Active returns the attached source, or nil.
func (f *Fallback) Active() Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fallback) CanSuppress() bool {
	if cur := f.Active(); cur != nil {
		return cur.CanSuppress()
	}
	return f.primary.CanSuppress()
}

func (f *Fallback) Attach(ctx context.Context, dispatch Dispatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != nil {
		return fmt.Errorf("%s already attached", f.current.Name())
	}
	err := f.primary.Attach(ctx, dispatch)
	if err == nil {
		f.current = f.primary
		return nil
	}
	if !errors.Is(err, core.ErrPermissionDenied) && !errors.Is(err, core.ErrNotAvailable) {
		return err
	}
	f.logger.Warn("falling back to another input source",
		"from", f.primary.Name(), "to", f.secondary.Name(), "err", err)
	if serr := f.secondary.Attach(ctx, dispatch); serr != nil {
		return fmt.Errorf("%w; %s: %w", err, f.secondary.Name(), serr)
	}
	f.current = f.secondary
	return nil
}

func (f *Fallback) Detach() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	err := f.current.Detach()
	f.current = nil
	return err
}
