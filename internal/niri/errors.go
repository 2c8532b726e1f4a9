package niri

import "fmt"

// ConnError indicates the compositor socket could not be opened, or the
// connection was reset underneath us.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("niri connection: %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// ProtocolError indicates bytes read from the socket did not form a valid
// frame: malformed JSON, a truncated final line, or a reply envelope that is
// neither Ok nor Err.
type ProtocolError struct {
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("niri protocol: %s: %v", e.Msg, e.Err)
	}
	return "niri protocol: " + e.Msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RequestError carries the compositor's Err payload for a rejected request.
type RequestError struct {
	Payload string
}

func (e *RequestError) Error() string {
	return "niri request rejected: " + e.Payload
}
