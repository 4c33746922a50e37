package client

import (
	"context"
	"log/slog"
	"time"

	"globalinput/core"
	"globalinput/synth"
)

type MirrorOptions struct {
	// From is the display the events were captured on and To the local one.
	// Pointer positions are scaled between them when From has a size.
	From, To core.DisplayInfo
	// Relative replays pointer motion as deltas from the previous position
	// instead of absolute warps.
	Relative bool
	// Amplify multiplies relative deltas. Zero means 1.
	Amplify float64
	// Coalesce accumulates relative deltas and injects them at most once per
	// interval. Any other event flushes the pending motion first.
	Coalesce time.Duration
	Logger   *slog.Logger
}

// Mirror replays events on s until events is closed or ctx is done. A
// failed injection is logged and does not stop the mirror.
func Mirror(ctx context.Context, events <-chan core.Event, s *synth.Synthesizer, opts MirrorOptions) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &mirror{opts: opts, synth: s}

	var flush <-chan time.Time
	if opts.Relative && opts.Coalesce > 0 {
		t := time.NewTicker(opts.Coalesce)
		defer t.Stop()
		flush = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-flush:
			m.report(core.KindMouse, m.flush())
		case ev, ok := <-events:
			if !ok {
				m.report(core.KindMouse, m.flush())
				return nil
			}
			m.report(ev.Kind(), m.replay(ev))
		}
	}
}

type mirror struct {
	opts  MirrorOptions
	synth *synth.Synthesizer

	havePrev bool
	prev     core.Vec2

	pendX, pendY int32
}

func (m *mirror) report(kind core.Kind, err error) {
	if err != nil {
		m.opts.Logger.Warn("replay failed", "kind", kind, "err", err)
	}
}

func (m *mirror) replay(ev core.Event) error {
	if e, ok := ev.(core.MouseMoveEvent); ok {
		x, y := core.ScalePoint(e.X, e.Y, m.opts.From, m.opts.To)
		if !m.opts.Relative {
			return m.synth.MoveAbsolute(x, y)
		}
		dx, dy := m.delta(x, y)
		if m.opts.Coalesce > 0 {
			m.pendX += dx
			m.pendY += dy
			return nil
		}
		if dx == 0 && dy == 0 {
			return nil
		}
		return m.synth.MoveRelative(dx, dy)
	}

	if err := m.flush(); err != nil {
		return err
	}
	if e, ok := ev.(core.MouseButtonEvent); ok {
		if !m.opts.Relative {
			x, y := core.ScalePoint(e.X, e.Y, m.opts.From, m.opts.To)
			if err := m.synth.MoveAbsolute(x, y); err != nil {
				return err
			}
		}
		return m.synth.ButtonEvent(e.Type, e.Button)
	}
	return m.synth.Replay(ev)
}

func (m *mirror) flush() error {
	if m.pendX == 0 && m.pendY == 0 {
		return nil
	}
	dx, dy := m.pendX, m.pendY
	m.pendX, m.pendY = 0, 0
	return m.synth.MoveRelative(dx, dy)
}

// delta returns the amplified motion since the previous position. The first
// move only records where the pointer is.
func (m *mirror) delta(x, y int32) (int32, int32) {
	cur := core.Vec2{X: int(x), Y: int(y)}
	prev, had := m.prev, m.havePrev
	m.prev, m.havePrev = cur, true
	if !had {
		return 0, 0
	}
	amp := m.opts.Amplify
	if amp == 0 {
		amp = 1
	}
	dx := float64(cur.X-prev.X) * amp
	dy := float64(cur.Y-prev.Y) * amp
	return int32(dx), int32(dy)
}
