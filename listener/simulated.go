package listener

import (
	"context"
	"errors"
	"sync"

	"globalinput/core"
)

// Simulated is a Source for tests. It never touches the OS; events are fed
// with Inject.
type Simulated struct {
	// AttachErr, when set, makes the next Attach fail with it.
	AttachErr error

	mu       sync.Mutex
	dispatch Dispatch
	attaches int
	detaches int
}

func NewSimulated() *Simulated {
	return &Simulated{}
}

func (s *Simulated) Name() string      { return "simulated" }
func (s *Simulated) CanSuppress() bool { return true }

func (s *Simulated) Attach(_ context.Context, dispatch Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AttachErr != nil {
		err := s.AttachErr
		s.AttachErr = nil
		return err
	}
	if s.dispatch != nil {
		return errors.New("simulated source already attached")
	}
	s.dispatch = dispatch
	s.attaches++
	return nil
}

func (s *Simulated) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatch != nil {
		s.detaches++
	}
	s.dispatch = nil
	return nil
}

// Inject delivers ev as if the OS had reported it. delivered is false when
// the source is not attached.
func (s *Simulated) Inject(ev core.Event) (suppressed, delivered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatch == nil {
		return false, false
	}
	return s.dispatch(ev), true
}

func (s *Simulated) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch != nil
}

// Counts returns how many attaches and detaches took effect.
func (s *Simulated) Counts() (attaches, detaches int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attaches, s.detaches
}
