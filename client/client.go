// Package client talks to a host server: it invokes methods on the method
// channel and streams canonical events from the event channel.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"globalinput/core"
)

// ErrClosed is returned by calls made after the connection went away.
var ErrClosed = errors.New("client closed")

type DialOptions struct {
	// MaxElapsed bounds the total time spent retrying. Zero means one attempt.
	MaxElapsed time.Duration
	// EventBuffer is the capacity of the channel returned by Listen.
	EventBuffer int
	Logger      *slog.Logger
}

type Client struct {
	codec  *core.Codec
	logger *slog.Logger
	buffer int

	seq atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *core.Message
	events  chan core.Event
	err     error

	done chan struct{}
}

// Dial connects to a host, retrying with exponential backoff until
// opts.MaxElapsed has passed or ctx is done.
func Dial(ctx context.Context, network, address string, opts DialOptions) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var d net.Dialer
	var conn net.Conn
	op := func() error {
		c, err := d.DialContext(ctx, network, address)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if opts.MaxElapsed > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 100 * time.Millisecond
		eb.MaxInterval = 2 * time.Second
		eb.MaxElapsedTime = opts.MaxElapsed
		b = eb
	}
	notify := func(err error, wait time.Duration) {
		opts.Logger.Info("host not reachable, retrying", "addr", address, "err", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", network, address, err)
	}
	return New(conn, opts), nil
}

// New wraps an established connection.
func New(conn net.Conn, opts DialOptions) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 1024
	}
	c := &Client{
		codec:   core.NewCodec(conn),
		logger:  opts.Logger.With("component", "client", "remote", conn.RemoteAddr().String()),
		buffer:  opts.EventBuffer,
		pending: make(map[uint32]chan *core.Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Invoke calls method on the host and waits for its reply. Errors reported
// by the host keep their category, so errors.Is(err, core.ErrNotImplemented)
// works across the connection.
func (c *Client) Invoke(ctx context.Context, method string, args any) error {
	var data []byte
	if args != nil {
		var err error
		if data, err = json.Marshal(args); err != nil {
			return fmt.Errorf("%w: encode arguments: %w", core.ErrInvalidRequest, err)
		}
	}
	reply, err := c.request(ctx, &core.Message{
		MsgType: core.MsgTypeCall,
		Channel: core.MethodChannel,
		Method:  method,
		Data:    data,
	})
	if err != nil {
		return err
	}
	return reply.Error.Err()
}

// Listen starts an event session on the host. The returned channel is closed
// when the host ends the stream, on Cancel, or when the connection drops.
// Calling Listen again replaces the previous stream.
func (c *Client) Listen(ctx context.Context) (<-chan core.Event, error) {
	ch := make(chan core.Event, c.buffer)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, c.err
	}
	c.swapEvents(ch)
	c.mu.Unlock()

	reply, err := c.request(ctx, &core.Message{MsgType: core.MsgTypeListen, Channel: core.EventChannel})
	if err == nil {
		err = reply.Error.Err()
	}
	if err != nil {
		c.mu.Lock()
		if c.events == ch {
			c.swapEvents(nil)
		}
		c.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

// Cancel ends the event session started by Listen.
func (c *Client) Cancel(ctx context.Context) error {
	reply, err := c.request(ctx, &core.Message{MsgType: core.MsgTypeCancel, Channel: core.EventChannel})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.swapEvents(nil)
	c.mu.Unlock()
	return reply.Error.Err()
}

func (c *Client) Close() error {
	err := c.codec.Close()
	<-c.done
	return err
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) request(ctx context.Context, msg *core.Message) (*core.Message, error) {
	msg.Seq = c.seq.Add(1)
	ch := make(chan *core.Message, 1)

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, c.err
	}
	c.pending[msg.Seq] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, msg.Seq)
		c.mu.Unlock()
	}
	if err := c.codec.Write(msg); err != nil {
		forget()
		return nil, err
	}
	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, c.closedErr()
		}
		return reply, nil
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	}
}

func (c *Client) readLoop() {
	defer close(c.done)
	var err error
	for {
		var msg *core.Message
		if msg, err = c.codec.Read(); err != nil {
			break
		}
		switch msg.MsgType {
		case core.MsgTypeReply:
			c.mu.Lock()
			ch, ok := c.pending[msg.Seq]
			delete(c.pending, msg.Seq)
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case core.MsgTypeEvent:
			ev, derr := core.DecodeEvent(msg.Data)
			if derr != nil {
				c.logger.Warn("bad event", "err", derr)
				continue
			}
			c.deliver(ev)
		case core.MsgTypeEndOfStream:
			c.logger.Info("event stream ended by host")
			c.mu.Lock()
			c.swapEvents(nil)
			c.mu.Unlock()
		default:
			c.logger.Debug("unexpected message", "type", msg.MsgType.String())
		}
	}

	c.mu.Lock()
	c.err = fmt.Errorf("%w: %w", ErrClosed, err)
	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
	c.swapEvents(nil)
	c.mu.Unlock()
}

func (c *Client) deliver(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event dropped, consumer too slow", "kind", ev.Kind())
	}
}

// swapEvents must be called with mu held.
func (c *Client) swapEvents(ch chan core.Event) {
	if c.events != nil {
		close(c.events)
	}
	c.events = ch
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}
