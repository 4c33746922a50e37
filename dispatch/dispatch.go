// Package dispatch routes named method calls to the synthesizer and the
// block list.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"globalinput/blocklist"
	"globalinput/core"
	"globalinput/synth"
)

const (
	MethodSimulateMouse        = "simulateMouse"
	MethodSimulateKey          = "simulateKey"
	MethodSetInterceptedKeys   = "setInterceptedKeys"
	MethodSetInterceptAllKeys  = "setInterceptAllKeys"
	MethodSetInterceptAllMouse = "setInterceptAllMouse"
	MethodSetBlockedKeys       = "setBlockedKeys"
	MethodClearBlockedKeys     = "clearBlockedKeys"
)

// HandlerFunc runs one method. args is the decoded argument value, usually a
// map or slice produced by JSON.
type HandlerFunc func(ctx context.Context, args any) error

type Dispatcher struct {
	synth    *synth.Synthesizer
	blocks   *blocklist.Store
	logger   *slog.Logger
	handlers map[string]HandlerFunc
}

func New(s *synth.Synthesizer, blocks *blocklist.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		synth:  s,
		blocks: blocks,
		logger: logger.With("component", "dispatch"),
	}
	d.handlers = map[string]HandlerFunc{
		MethodSimulateMouse:        d.simulateMouse,
		MethodSimulateKey:          d.simulateKey,
		MethodSetInterceptedKeys:   accepted,
		MethodSetInterceptAllKeys:  accepted,
		MethodSetInterceptAllMouse: accepted,
		MethodSetBlockedKeys:       d.setBlockedKeys,
		MethodClearBlockedKeys:     d.clearBlockedKeys,
	}
	return d
}

// Methods lists the supported method names.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs method synchronously. Unknown methods fail with
// core.ErrNotImplemented.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, args any) error {
	h, ok := d.handlers[method]
	if !ok {
		return fmt.Errorf("method %q: %w", method, core.ErrNotImplemented)
	}
	if err := h(ctx, args); err != nil {
		d.logger.Debug("method failed", "method", method, "err", err)
		return err
	}
	return nil
}

func (d *Dispatcher) simulateMouse(_ context.Context, args any) error {
	var req synth.MouseRequest
	if err := synth.DecodeArgs(args, &req); err != nil {
		return err
	}
	return d.synth.Mouse(req)
}

func (d *Dispatcher) simulateKey(_ context.Context, args any) error {
	var req synth.KeyRequest
	if err := synth.DecodeArgs(args, &req); err != nil {
		return err
	}
	return d.synth.Key(req)
}

// interception is configured through the block list; these calls are kept
// for callers that still send them
func accepted(context.Context, any) error { return nil }

func (d *Dispatcher) setBlockedKeys(_ context.Context, args any) error {
	codes := KeyCodes(args)
	d.blocks.SetBlocked(codes)
	d.logger.Info("blocked keys replaced", "count", len(codes))
	return nil
}

func (d *Dispatcher) clearBlockedKeys(context.Context, any) error {
	d.blocks.Clear()
	d.logger.Info("blocked keys cleared")
	return nil
}

// KeyCodes extracts the integer elements of a list argument. Elements that
// are not integers or do not fit in an int32 are skipped; anything that is not a list yields no codes.
func KeyCodes(args any) []int32 {
	switch v := args.(type) {
	case []int32:
		return v
	case []int:
		out := make([]int32, 0, len(v))
		for _, e := range v {
			if c, ok := toInt32(e); ok {
				out = append(out, c)
			}
		}
		return out
	case []any:
		out := make([]int32, 0, len(v))
		for _, e := range v {
			if c, ok := toInt32(e); ok {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// toInt32 accepts integral values that fit in an int32.
func toInt32(v any) (int32, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		return x, true
	case int64:
		n = x
	case float64:
		if x < math.MinInt32 || x > math.MaxInt32 || x != math.Trunc(x) {
			return 0, false
		}
		return int32(x), true
	default:
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}
