//go:build linux

package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"globalinput/core"
	"globalinput/x11"
)

const (
	eviocgrab = 0x40044590

	// udev needs a moment to fix permissions on new nodes
	hotplugSettle = 200 * time.Millisecond
)

func NewNative(opts NativeOptions) (Source, error) {
	opts.setDefaults()
	return &evdevSource{
		opts:    opts,
		logger:  opts.Logger.With("component", "evdev"),
		devices: make(map[string]*evdevDevice),
	}, nil
}

// eventWriter takes the events a grabbed keyboard forwards.
type eventWriter interface {
	write(ie inputEvent) error
	Close() error
}

type evdevDevice struct {
	path    string
	f       *os.File
	grabbed bool
	mapper  evdevMapper
}

// evdevSource reads every /dev/input/event* node. Pointer positions come from
// X because evdev only reports relative motion.
type evdevSource struct {
	opts   NativeOptions
	logger *slog.Logger

	display *x11.Display
	uinput  eventWriter
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	devices map[string]*evdevDevice

	// serializes events across devices
	dispatchMu sync.Mutex
	dispatch   Dispatch

	wg      sync.WaitGroup
	running atomic.Bool
	closing atomic.Bool
}

func (s *evdevSource) Name() string { return "evdev" }

func (s *evdevSource) CanSuppress() bool { return s.opts.Grab }

func (s *evdevSource) Attach(ctx context.Context, dispatch Dispatch) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("evdev source already attached")
	}
	s.closing.Store(false)
	s.dispatch = dispatch

	if err := s.attach(); err != nil {
		s.teardown()
		s.running.Store(false)
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watchLoop(ctx)
	}()
	return nil
}

func (s *evdevSource) attach() error {
	display, err := x11.Open(s.opts.Display)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrNotAvailable, err)
	}
	s.display = display

	if s.opts.Grab {
		u, err := createUinput(s.opts.UinputPath)
		if err != nil {
			return fmt.Errorf("%w: create virtual keyboard: %w", core.ErrPermissionDenied, err)
		}
		s.uinput = u
	}

	nodes, err := filepath.Glob(filepath.Join(s.opts.InputDir, "event*"))
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: no input devices in %s", core.ErrNotAvailable, s.opts.InputDir)
	}

	var errs error
	for _, node := range nodes {
		errs = multierr.Append(errs, s.openDevice(node))
	}
	s.mu.Lock()
	opened := len(s.devices)
	s.mu.Unlock()
	if opened == 0 {
		return fmt.Errorf("%w: no readable input device (need root or the input group): %w", core.ErrPermissionDenied, errs)
	}
	if errs != nil {
		s.logger.Debug("some input devices were skipped", "err", errs)
	}

	// hotplug is best effort
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("hotplug disabled", "err", err)
		return nil
	}
	if err := watcher.Add(s.opts.InputDir); err != nil {
		watcher.Close()
		s.logger.Warn("hotplug disabled", "dir", s.opts.InputDir, "err", err)
		return nil
	}
	s.watcher = watcher
	return nil
}

func (s *evdevSource) openDevice(node string) error {
	info, err := readDeviceInfo(s.opts.SysDir, node)
	if err != nil {
		s.logger.Debug("no sysfs info", "node", node, "err", err)
	}
	if info.Name == uinputName {
		return nil
	}

	f, err := os.OpenFile(node, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", node, err)
	}
	dev := &evdevDevice{
		path:   node,
		f:      f,
		mapper: evdevMapper{pointer: s.display},
	}

	if s.uinput != nil && info.IsKeyboard() {
		if err := grab(f, true); err != nil {
			s.logger.Warn("cannot grab keyboard, blocked keys will leak", "node", node, "name", info.Name, "err", err)
		} else {
			dev.grabbed = true
		}
	}

	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		f.Close()
		return nil
	}
	if _, ok := s.devices[node]; ok {
		s.mu.Unlock()
		f.Close()
		return nil
	}
	s.devices[node] = dev
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("reading input device", "node", node, "name", info.Name, "grabbed", dev.grabbed)
	go func() {
		defer s.wg.Done()
		s.readLoop(dev)
	}()
	return nil
}

func grab(f *os.File, on bool) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	val := 0
	if on {
		val = 1
	}
	var ioctlErr error
	err = rc.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetInt(int(fd), eviocgrab, val)
	})
	if err != nil {
		return err
	}
	return ioctlErr
}

func (s *evdevSource) readLoop(dev *evdevDevice) {
	defer s.removeDevice(dev)
	buf := make([]byte, inputEventSize)
	for {
		if _, err := io.ReadFull(dev.f, buf); err != nil {
			if !s.closing.Load() && !errors.Is(err, os.ErrClosed) {
				s.logger.Info("input device gone", "node", dev.path, "err", err)
			}
			return
		}
		s.handle(dev, parseInputEvent(buf))
	}
}

func (s *evdevSource) handle(dev *evdevDevice, ie inputEvent) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	// blocked keys are held back, everything else from a grabbed device is
	// replayed, SYN frames included
	suppress := false
	if ev, ok := dev.mapper.Map(ie); ok {
		suppress = s.dispatch(ev)
	}
	if !dev.grabbed {
		return
	}
	if suppress && ie.Type == evKey {
		return
	}
	if err := s.uinput.write(ie); err != nil {
		s.logger.Warn("forward to virtual keyboard failed", "err", err)
	}
}

func (s *evdevSource) removeDevice(dev *evdevDevice) {
	s.mu.Lock()
	if s.devices[dev.path] == dev {
		delete(s.devices, dev.path)
	}
	s.mu.Unlock()
	dev.f.Close()
}

func (s *evdevSource) watchLoop(ctx context.Context) {
	if s.watcher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == 0 || !isEventNode(event.Name) {
				continue
			}
			time.Sleep(hotplugSettle)
			if s.closing.Load() {
				return
			}
			if err := s.openDevice(event.Name); err != nil {
				s.logger.Debug("hotplugged device skipped", "node", event.Name, "err", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("hotplug watcher error", "err", err)
		}
	}
}

func (s *evdevSource) Detach() error {
	if !s.running.Load() {
		return nil
	}
	err := s.teardown()
	s.running.Store(false)
	return err
}

func (s *evdevSource) teardown() error {
	s.closing.Store(true)
	var errs error
	if s.watcher != nil {
		errs = multierr.Append(errs, s.watcher.Close())
	}

	s.mu.Lock()
	for _, dev := range s.devices {
		// unblocks the pending Read
		dev.f.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()

	s.watcher = nil
	if s.uinput != nil {
		errs = multierr.Append(errs, s.uinput.Close())
		s.uinput = nil
	}
	if s.display != nil {
		s.display.Close()
		s.display = nil
	}
	s.dispatch = nil
	return errs
}
