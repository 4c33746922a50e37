package host

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"globalinput/core"
)

var errQueueFull = errors.New("event queue full")

type queued struct {
	ev  core.Event
	eos bool
}

// connSink decouples the listener from the network: events are queued and
// written by a separate goroutine, and dropped when the client falls behind.
type connSink struct {
	codec  *core.Codec
	logger *slog.Logger
	queue  chan queued
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	dropped atomic.Uint64
}

func newConnSink(codec *core.Codec, size int, logger *slog.Logger) *connSink {
	s := &connSink{
		codec:  codec,
		logger: logger,
		queue:  make(chan queued, size),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writeLoop()
	return s
}

func (s *connSink) Send(ev core.Event) error {
	select {
	case <-s.done:
		return errors.New("connection closed")
	default:
	}
	select {
	case s.queue <- queued{ev: ev}:
		return nil
	default:
		s.dropped.Add(1)
		return errQueueFull
	}
}

// Close tells the client the stream has ended, after any queued events.
func (s *connSink) Close() error {
	select {
	case s.queue <- queued{eos: true}:
	case <-s.done:
	}
	return nil
}

func (s *connSink) writeLoop() {
	defer s.wg.Done()
	defer s.stop()
	for {
		select {
		case <-s.done:
			return
		case q := <-s.queue:
			msg := &core.Message{MsgType: core.MsgTypeEndOfStream, Channel: core.EventChannel}
			if !q.eos {
				var err error
				if msg, err = core.NewEventMessage(q.ev); err != nil {
					s.logger.Warn("event dropped", "err", err)
					continue
				}
			}
			if err := s.codec.Write(msg); err != nil {
				s.logger.Debug("event write failed", "err", err)
				return
			}
		}
	}
}

func (s *connSink) stop() { s.once.Do(func() { close(s.done) }) }

// shutdown stops the writer and waits for it to exit.
func (s *connSink) shutdown() {
	s.stop()
	s.wg.Wait()
}
