// Package host serves the method channel and the event channel to remote
// clients over a stream connection.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"globalinput/core"
	"globalinput/dispatch"
	"globalinput/logging"
	"globalinput/session"
)

type Server struct {
	dispatcher *dispatch.Dispatcher
	session    *session.Controller
	logger     *slog.Logger
	queueSize  int

	nextConn atomic.Uint64
}

type Options struct {
	// QueueSize bounds the events buffered per connection before new
	// ones are dropped.
	QueueSize int
	Logger    *slog.Logger
}

func New(d *dispatch.Dispatcher, s *session.Controller, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	return &Server{
		dispatcher: d,
		session:    s,
		logger:     opts.Logger.With("component", "host"),
		queueSize:  opts.QueueSize,
	}
}

// Serve accepts connections on ln until ctx is done or ln fails. The active
// session is stopped before it returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		s.logger.Info("serving", "addr", ln.Addr().String())
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			g.Go(func() error {
				s.handleConn(ctx, conn)
				return nil
			})
		}
	})
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if stopErr := s.session.Unsubscribe(); stopErr != nil {
		s.logger.Warn("session stop failed", "err", stopErr)
	}
	return err
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	ctx = logging.AppendCtx(ctx, slog.Uint64("conn", s.nextConn.Add(1)))
	ctx = logging.AppendCtx(ctx, slog.String("remote", conn.RemoteAddr().String()))
	s.logger.InfoContext(ctx, "client connected")

	codec := core.NewCodec(conn)
	stop := context.AfterFunc(ctx, func() { codec.Close() })
	defer stop()

	sink := newConnSink(codec, s.queueSize, s.logger)
	defer func() {
		sink.shutdown()
		if err := s.session.Release(sink); err != nil {
			s.logger.WarnContext(ctx, "session release failed", "err", err)
		}
		codec.Close()
		s.logger.InfoContext(ctx, "client disconnected", "dropped", sink.dropped.Load())
	}()

	for {
		msg, err := codec.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.WarnContext(ctx, "read failed", "err", err)
			}
			return
		}
		reply := s.handle(ctx, msg, sink)
		if err := codec.Write(reply); err != nil {
			s.logger.WarnContext(ctx, "reply failed", "err", err)
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, msg *core.Message, sink *connSink) *core.Message {
	reply := &core.Message{
		MsgType: core.MsgTypeReply,
		Seq:     msg.Seq,
		Channel: msg.Channel,
		Method:  msg.Method,
	}
	var err error
	switch msg.MsgType {
	case core.MsgTypeCall:
		err = s.call(ctx, msg)
	case core.MsgTypeListen:
		err = s.session.Subscribe(ctx, sink)
	case core.MsgTypeCancel:
		err = s.session.Release(sink)
	default:
		err = fmt.Errorf("%w: unexpected %s message", core.ErrInvalidRequest, msg.MsgType)
	}
	if err != nil {
		s.logger.DebugContext(ctx, "request failed", "type", msg.MsgType.String(), "method", msg.Method, "err", err)
	}
	reply.Error = core.NewErrorReply(err)
	return reply
}

func (s *Server) call(ctx context.Context, msg *core.Message) error {
	if msg.Channel != core.MethodChannel {
		return fmt.Errorf("channel %q: %w", msg.Channel, core.ErrNotImplemented)
	}
	var args any
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &args); err != nil {
			return fmt.Errorf("%w: arguments: %w", core.ErrInvalidRequest, err)
		}
	}
	return s.dispatcher.Dispatch(ctx, msg.Method, args)
}
