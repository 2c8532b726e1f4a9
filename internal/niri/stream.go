package niri

import (
	"errors"
	"io"
)

// eventStreamRequest is the subscribe request; the reply ack is {"Ok":{"Handled":null}}.
const eventStreamRequest = "EventStream"

// Stream is a subscribed event-stream connection. Events are read strictly
// in wire order, one frame at a time; the next frame is not touched until
// the current one has been decoded and handed to the caller.
//
// A Stream is owned by the goroutine driving Next. There are no read
// timeouts: the connection is a kept-alive local socket that may block
// indefinitely between events.
type Stream struct {
	conn *Conn
	err  error
	done bool
}

// OpenStream dials the socket, sends the subscribe request, and validates
// the acknowledgement. The returned stream must be closed by the caller.
func OpenStream(path string) (*Stream, error) {
	conn, err := Dial(path)
	if err != nil {
		return nil, err
	}
	reply, err := conn.roundTrip(eventStreamRequest)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !reply.OK {
		conn.Close()
		return nil, &ProtocolError{Msg: "event stream subscribe rejected: " + string(reply.Payload)}
	}
	return &Stream{conn: conn}, nil
}

// Next returns the next event in wire order. It blocks until a frame
// arrives, and returns ok=false once the stream has terminated; Err then
// distinguishes a clean EOF from a failure. After termination Next keeps
// returning ok=false.
func (s *Stream) Next() (Event, bool) {
	if s.done {
		return Event{}, false
	}
	frame, err := s.conn.readFrame()
	if err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return Event{}, false
	}
	ev, err := decodeEvent(frame)
	if err != nil {
		// A frame that does not decode terminates the stream; yielding a
		// half-parsed event would break the one-frame-one-event invariant.
		s.done = true
		s.err = err
		return Event{}, false
	}
	return ev, true
}

// Err reports why the stream terminated: nil for a clean peer close,
// a *ConnError or *ProtocolError otherwise. Valid only after Next has
// returned ok=false.
func (s *Stream) Err() error {
	return s.err
}

// Close closes the underlying connection. A concurrent Next unblocks with a
// *ConnError, which callers typically treat as shutdown.
func (s *Stream) Close() error {
	return s.conn.Close()
}
