package core

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

const (
	MethodChannel = "input_simulator"
	EventChannel  = "global_input_events"
)

type MsgType int

const (
	MsgTypeCall MsgType = iota
	MsgTypeReply
	MsgTypeListen
	MsgTypeCancel
	MsgTypeEvent
	MsgTypeEndOfStream
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeCall:
		return "call"
	case MsgTypeReply:
		return "reply"
	case MsgTypeListen:
		return "listen"
	case MsgTypeCancel:
		return "cancel"
	case MsgTypeEvent:
		return "event"
	case MsgTypeEndOfStream:
		return "end_of_stream"
	}
	return fmt.Sprintf("MsgType(%d)", int(t))
}

// Message is the unit exchanged between host and client. Data holds JSON:
// method arguments for calls, a canonical event for events.
type Message struct {
	MsgType MsgType
	Seq     uint32
	Channel string
	Method  string
	Data    []byte
	Error   *ErrorReply
}

type ErrorReply struct {
	Code    string
	Message string
}

func (e *ErrorReply) Err() error {
	if e == nil {
		return nil
	}
	return ErrorFromCode(e.Code, e.Message)
}

// NewErrorReply returns nil for a nil err.
func NewErrorReply(err error) *ErrorReply {
	if err == nil {
		return nil
	}
	return &ErrorReply{Code: ErrorCode(err), Message: err.Error()}
}

func NewEventMessage(ev Event) (*Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return &Message{MsgType: MsgTypeEvent, Channel: EventChannel, Data: data}, nil
}

// Codec frames Messages with gob over a stream. Writes are serialized;
// reads must come from a single goroutine.
type Codec struct {
	rw  io.ReadWriteCloser
	enc *gob.Encoder
	dec *gob.Decoder
	mu  sync.Mutex
}

func NewCodec(rw io.ReadWriteCloser) *Codec {
	return &Codec{
		rw:  rw,
		enc: gob.NewEncoder(rw),
		dec: gob.NewDecoder(rw),
	}
}

func (c *Codec) Write(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(msg); err != nil {
		return fmt.Errorf("write %s message: %w", msg.MsgType, err)
	}
	return nil
}

func (c *Codec) Read() (*Message, error) {
	var msg Message
	if err := c.dec.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Codec) Close() error {
	return c.rw.Close()
}
