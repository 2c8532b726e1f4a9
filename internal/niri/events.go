package niri

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded frame from the compositor event stream. Tag is the
// single top-level key of the frame, Payload its value. Events are immutable
// once decoded.
type Event struct {
	Tag     string
	Payload json.RawMessage
}

// Event tags emitted by the niri event stream. The stream also surfaces tags
// not in this list (newer compositor versions), see Event.Known.
const (
	WorkspacesChanged            = "WorkspacesChanged"
	WorkspaceActivated           = "WorkspaceActivated"
	WorkspaceUrgencyChanged      = "WorkspaceUrgencyChanged"
	WorkspaceActiveWindowChanged = "WorkspaceActiveWindowChanged"
	WindowsChanged               = "WindowsChanged"
	WindowOpenedOrChanged        = "WindowOpenedOrChanged"
	WindowClosed                 = "WindowClosed"
	WindowFocusChanged           = "WindowFocusChanged"
	WindowLayoutsChanged         = "WindowLayoutsChanged"
	WindowUrgencyChanged         = "WindowUrgencyChanged"
	KeyboardLayoutsChanged       = "KeyboardLayoutsChanged"
	KeyboardLayoutSwitched       = "KeyboardLayoutSwitched"
	OverviewOpenedOrClosed       = "OverviewOpenedOrClosed"
	ConfigLoaded                 = "ConfigLoaded"
)

var knownTags = map[string]struct{}{
	WorkspacesChanged:            {},
	WorkspaceActivated:           {},
	WorkspaceUrgencyChanged:      {},
	WorkspaceActiveWindowChanged: {},
	WindowsChanged:               {},
	WindowOpenedOrChanged:        {},
	WindowClosed:                 {},
	WindowFocusChanged:           {},
	WindowLayoutsChanged:         {},
	WindowUrgencyChanged:         {},
	KeyboardLayoutsChanged:       {},
	KeyboardLayoutSwitched:       {},
	OverviewOpenedOrClosed:       {},
	ConfigLoaded:                 {},
}

// Known reports whether the tag is one this package was written against.
// Unknown tags are still delivered so consumers can log or ignore them.
func (e Event) Known() bool {
	_, ok := knownTags[e.Tag]
	return ok
}

// decodeEvent parses one frame into an Event. A frame must be a JSON object
// with exactly one top-level key naming the variant.
func decodeEvent(frame []byte) (Event, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(frame, &obj); err != nil {
		return Event{}, &ProtocolError{Msg: "event frame is not a JSON object", Err: err}
	}
	if len(obj) != 1 {
		return Event{}, &ProtocolError{Msg: fmt.Sprintf("event frame has %d top-level keys, want 1", len(obj))}
	}
	for tag, payload := range obj {
		return Event{Tag: tag, Payload: payload}, nil
	}
	panic("unreachable")
}
