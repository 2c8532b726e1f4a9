// Package dispatch routes compositor events to registered handlers.
//
// A Dispatcher owns a serial loop: it pulls one event at a time from a
// Source (normally a subscribed niri event stream), looks up the handlers
// registered for the event's tag plus the catch-all handlers, and invokes
// them synchronously in registration order. Handler failures (error returns
// and panics) are reported through a callback and isolated — one broken
// handler never stops the loop, skips sibling handlers, or loses events.
//
// Registration happens before Run; the handler table is immutable while the
// loop runs, which keeps iteration order trivial to reason about.
//
// Shutdown is cooperative. Stop (or context cancellation) is observed
// between events, never mid-handler, so latency is bounded by the current
// handler plus the time to receive or fail the next frame. Callers that
// need to break a blocked read close the stream as well.
//
// The loop does not reconnect. It reports how it stopped (clean end,
// upstream error, cancelled) and leaves retry policy to the embedding
// process.
package dispatch
