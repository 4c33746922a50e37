//go:build windows

package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14
	hcAction     = 0
	wmQuit       = 0x0012
	wmUser       = 0x0400
	pmNoRemove   = 0x0000
)

type winMsg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Hook procedures have no user data, so the callbacks are created once and
// route to whichever source is attached.
var (
	activeHook    atomic.Pointer[hookSource]
	callbacksOnce sync.Once
	keyboardCB    uintptr
	mouseCB       uintptr
)

func NewNative(opts NativeOptions) (Source, error) {
	opts.setDefaults()
	return &hookSource{logger: opts.Logger.With("component", "winhook")}, nil
}

// hookSource installs WH_KEYBOARD_LL and WH_MOUSE_LL on a dedicated OS thread
// running a message loop.
type hookSource struct {
	logger   *slog.Logger
	dispatch Dispatch
	threadID uint32
	done     chan struct{}
	running  atomic.Bool
}

func (s *hookSource) Name() string      { return "winhook" }
func (s *hookSource) CanSuppress() bool { return true }

func (s *hookSource) Attach(_ context.Context, dispatch Dispatch) error {
	if !activeHook.CompareAndSwap(nil, s) {
		return errors.New("a low-level hook is already installed by this process")
	}
	callbacksOnce.Do(func() {
		keyboardCB = windows.NewCallback(keyboardProc)
		mouseCB = windows.NewCallback(mouseProc)
	})

	s.dispatch = dispatch
	s.done = make(chan struct{})
	ready := make(chan error, 1)
	go s.run(ready)
	if err := <-ready; err != nil {
		<-s.done
		s.dispatch = nil
		activeHook.Store(nil)
		return err
	}
	s.running.Store(true)
	return nil
}

func (s *hookSource) run(ready chan<- error) {
	defer close(s.done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.threadID = windows.GetCurrentThreadId()
	var m winMsg
	// creates the thread message queue so Detach can post WM_QUIT
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, wmUser, wmUser, pmNoRemove)

	var mod windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &mod); err != nil {
		ready <- fmt.Errorf("GetModuleHandleEx: %w", err)
		return
	}
	kb, _, err := procSetWindowsHookExW.Call(whKeyboardLL, keyboardCB, uintptr(mod), 0)
	if kb == 0 {
		ready <- fmt.Errorf("SetWindowsHookExW(WH_KEYBOARD_LL): %w", err)
		return
	}
	defer procUnhookWindowsHookEx.Call(kb)
	ms, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseCB, uintptr(mod), 0)
	if ms == 0 {
		ready <- fmt.Errorf("SetWindowsHookExW(WH_MOUSE_LL): %w", err)
		return
	}
	defer procUnhookWindowsHookEx.Call(ms)
	ready <- nil

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 is WM_QUIT, -1 an error
		if int32(r) <= 0 {
			return
		}
	}
}

var postQuit = func(threadID uint32) error {
	r, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if r == 0 {
		return fmt.Errorf("PostThreadMessageW(WM_QUIT): %w", err)
	}
	return nil
}

// Detach stops the hook thread. If WM_QUIT cannot be posted the hooks stay
// installed, the source stays attached and Detach may be called again.
func (s *hookSource) Detach() error {
	if !s.running.Load() {
		return nil
	}
	post := func() error { return postQuit(s.threadID) }
	if err := backoff.Retry(post, backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), 3)); err != nil {
		s.logger.Error("hook thread did not take WM_QUIT, hooks are still installed", "err", err)
		return err
	}
	<-s.done
	s.dispatch = nil
	s.running.Store(false)
	activeHook.CompareAndSwap(s, nil)
	return nil
}

func keyboardProc(nCode int, wParam, lParam uintptr) uintptr {
	if nCode == hcAction {
		if s := activeHook.Load(); s != nil && s.dispatch != nil {
			k := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			if ev, ok := mapKeyboardHook(wParam, k); ok && s.dispatch(ev) {
				return 1
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func mouseProc(nCode int, wParam, lParam uintptr) uintptr {
	if nCode == hcAction {
		if s := activeHook.Load(); s != nil && s.dispatch != nil {
			m := (*msLLHookStruct)(unsafe.Pointer(lParam))
			if ev, ok := mapMouseHook(wParam, m); ok {
				s.dispatch(ev)
			}
		}
	}
	r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}
