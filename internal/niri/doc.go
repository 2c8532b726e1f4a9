// Package niri speaks the niri compositor's IPC protocol: newline-delimited
// JSON over a unix domain socket resolved from $NIRI_SOCKET.
//
// Two access patterns are provided:
//   - One-shot requests (Request, Action): open a connection, write one JSON
//     value, read one reply envelope, close. Each call owns its connection,
//     so concurrent callers never share state.
//   - The event stream (OpenStream): a long-lived subscribed connection that
//     yields decoded events in exact wire order until EOF or failure.
//
// Failures are typed: *ConnError when the socket cannot be reached or drops,
// *ProtocolError when bytes on the wire do not form a valid frame.
//
// A reply of {"Ok": ...} means the compositor accepted the request. It does
// NOT guarantee the action took effect: niri 25.11 acks some actions
// (SetWindowWidth among them) over the socket without applying them, while
// the same action works through `niri msg`. See CLI in this package for the
// workaround path. Do not paper over this here.
package niri
