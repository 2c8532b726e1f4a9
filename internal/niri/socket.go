package niri

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

// EnvSocket is the environment variable niri exports with its socket path.
const EnvSocket = "NIRI_SOCKET"

// readBufferSize matches the line buffer for frames; WindowsChanged frames on
// busy sessions run tens of KB.
const readBufferSize = 64 * 1024

// SocketPath returns the compositor socket path from the environment.
func SocketPath() (string, error) {
	path := os.Getenv(EnvSocket)
	if path == "" {
		return "", fmt.Errorf("%s is not set; is niri running?", EnvSocket)
	}
	return path, nil
}

// Conn is an open connection to the compositor socket. A Conn is owned by a
// single goroutine; it is not safe for concurrent use.
type Conn struct {
	c net.Conn
	r *bufio.Reader
}

// Dial opens a connection to the compositor socket at path.
func Dial(path string) (*Conn, error) {
	if path == "" {
		return nil, &ConnError{Op: "dial", Err: errors.New("empty socket path")}
	}
	c, err := net.Dial("unix", path)
	if err != nil {
		return nil, &ConnError{Op: "dial", Err: err}
	}
	return &Conn{c: c, r: bufio.NewReaderSize(c, readBufferSize)}, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.c.Close()
}

// writeFrame sends one newline-terminated JSON value.
func (c *Conn) writeFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &ProtocolError{Msg: "encode request", Err: err}
	}
	data = append(data, '\n')
	if _, err := c.c.Write(data); err != nil {
		return &ConnError{Op: "write", Err: err}
	}
	return nil
}

// readFrame reads the next newline-terminated frame. io.EOF is returned
// unwrapped on a clean close between frames; a truncated final line is a
// *ProtocolError because partial frames must never be silently dropped.
func (c *Conn) readFrame() ([]byte, error) {
	line, err := c.r.ReadBytes('\n')
	if err == nil {
		return line[:len(line)-1], nil
	}
	if errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return nil, io.EOF
		}
		return nil, &ProtocolError{Msg: "connection closed mid-frame"}
	}
	return nil, &ConnError{Op: "read", Err: err}
}

// Reply is the compositor's response envelope: {"Ok": ...} or {"Err": ...}.
type Reply struct {
	OK      bool
	Payload json.RawMessage
}

// Err converts a rejected reply into an error, nil for an Ok reply.
func (r Reply) Err() error {
	if r.OK {
		return nil
	}
	return &RequestError{Payload: string(r.Payload)}
}

func decodeReply(frame []byte) (Reply, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(frame, &obj); err != nil {
		return Reply{}, &ProtocolError{Msg: "reply is not a JSON object", Err: err}
	}
	if payload, ok := obj["Ok"]; ok {
		return Reply{OK: true, Payload: payload}, nil
	}
	if payload, ok := obj["Err"]; ok {
		return Reply{OK: false, Payload: payload}, nil
	}
	return Reply{}, &ProtocolError{Msg: "reply has neither Ok nor Err"}
}

// roundTrip writes one request and reads one reply on this connection.
func (c *Conn) roundTrip(req any) (Reply, error) {
	if err := c.writeFrame(req); err != nil {
		return Reply{}, err
	}
	frame, err := c.readFrame()
	if errors.Is(err, io.EOF) {
		return Reply{}, &ProtocolError{Msg: "connection closed before reply"}
	}
	if err != nil {
		return Reply{}, err
	}
	return decodeReply(frame)
}

// Request performs a one-shot request: open, one round trip, close. The
// request is passed through opaquely; a plain string like "Windows" encodes
// to the bare JSON string the protocol expects. No retries are attempted.
//
// An Ok reply means the compositor accepted the request, nothing more. Known
// caveat: some actions ack Ok without taking effect (niri 25.11, e.g.
// SetWindowWidth); callers needing those must go through CLI.
func Request(path string, req any) (Reply, error) {
	conn, err := Dial(path)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()
	return conn.roundTrip(req)
}

// Action performs a one-shot {"Action": ...} request. With params nil the
// action encodes as a bare name, otherwise as {name: params}.
func Action(path, name string, params any) (Reply, error) {
	var action any = name
	if params != nil {
		action = map[string]any{name: params}
	}
	return Request(path, map[string]any{"Action": action})
}
