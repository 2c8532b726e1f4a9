package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"niriglue/internal/log"
	"niriglue/internal/niri"
)

// Handler processes one event. Returning an error marks the invocation as
// failed; the dispatcher reports it and moves on.
type Handler func(ctx context.Context, ev niri.Event) error

// Source is a terminating sequence of events. *niri.Stream satisfies it.
// Err is meaningful only after Next has returned ok=false: nil means the
// sequence ended cleanly.
type Source interface {
	Next() (niri.Event, bool)
	Err() error
}

// ErrorReporter receives exactly one call per failing handler invocation.
type ErrorReporter func(ev niri.Event, err error)

// Status says how a dispatch loop ended.
type Status int

const (
	// StoppedClean means the source ended with a clean EOF.
	StoppedClean Status = iota
	// StoppedError means the source terminated with a connection or
	// protocol failure; Result.Err holds it.
	StoppedError
	// StoppedCancel means Stop was called or the context was cancelled.
	StoppedCancel
)

func (s Status) String() string {
	switch s {
	case StoppedClean:
		return "stopped_clean"
	case StoppedError:
		return "stopped_error"
	case StoppedCancel:
		return "stopped_cancel"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is the terminal state of a Run call.
type Result struct {
	Status Status
	Events int64
	Err    error
}

// Dispatcher routes events by tag to registered handlers. Register with On
// and OnAll before calling Run; the handler table is frozen while running.
type Dispatcher struct {
	handlers map[string][]Handler
	catchAll []Handler
	report   ErrorReporter
	logger   *slog.Logger

	running  atomic.Bool
	events   atomic.Int64
	stopCh   chan struct{}
	stopOnce atomic.Bool
}

// New creates a Dispatcher. Handler failures are reported through report;
// pass nil to log them at WARN.
func New(report ErrorReporter) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   log.WithComponent("dispatch"),
		stopCh:   make(chan struct{}),
	}
	if report == nil {
		report = func(ev niri.Event, err error) {
			d.logger.Warn("handler failed", "event", ev.Tag, "error", err)
		}
	}
	d.report = report
	return d
}

// On registers a handler for one event tag. Handlers run in registration
// order. Registration while the loop is running is rejected.
func (d *Dispatcher) On(tag string, h Handler) {
	if d.running.Load() {
		d.logger.Error("handler registration ignored while running", "event", tag)
		return
	}
	d.handlers[tag] = append(d.handlers[tag], h)
}

// OnAll registers a catch-all handler invoked for every event, before the
// tag-specific handlers.
func (d *Dispatcher) OnAll(h Handler) {
	if d.running.Load() {
		d.logger.Error("catch-all registration ignored while running")
		return
	}
	d.catchAll = append(d.catchAll, h)
}

// Run drains src until it terminates, the context is cancelled, or Stop is
// called. It is a blocking call; events are handled one at a time on the
// calling goroutine.
func (d *Dispatcher) Run(ctx context.Context, src Source) Result {
	if !d.running.CompareAndSwap(false, true) {
		return Result{Status: StoppedError, Err: fmt.Errorf("dispatcher is already running")}
	}
	defer d.running.Store(false)

	d.logger.Info("dispatch loop started",
		"tags", len(d.handlers), "catch_all", len(d.catchAll))

	for {
		// Cancellation is checked before pulling the next event, so a stop
		// during event K never lets a handler see event K+1.
		select {
		case <-ctx.Done():
			return d.finish(Result{Status: StoppedCancel, Err: ctx.Err()})
		case <-d.stopCh:
			return d.finish(Result{Status: StoppedCancel})
		default:
		}

		ev, ok := src.Next()
		if !ok {
			if err := src.Err(); err != nil {
				return d.finish(Result{Status: StoppedError, Err: err})
			}
			return d.finish(Result{Status: StoppedClean})
		}

		d.events.Add(1)
		for _, h := range d.catchAll {
			d.invoke(ctx, h, ev)
		}
		for _, h := range d.handlers[ev.Tag] {
			d.invoke(ctx, h, ev)
		}
	}
}

// Stop requests cancellation. The loop returns after the in-flight handler
// call, before the next event is pulled. Safe to call from any goroutine,
// any number of times. It does not interrupt a blocked read; close the
// stream for that.
func (d *Dispatcher) Stop() {
	if d.stopOnce.CompareAndSwap(false, true) {
		close(d.stopCh)
	}
}

// Running reports whether the dispatch loop is active.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// EventCount returns the number of events pulled so far.
func (d *Dispatcher) EventCount() int64 {
	return d.events.Load()
}

// invoke runs one handler, converting error returns and panics into exactly
// one error report each.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, ev niri.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.report(ev, fmt.Errorf("handler panic: %v", r))
		}
	}()
	if err := h(ctx, ev); err != nil {
		d.report(ev, err)
	}
}

func (d *Dispatcher) finish(res Result) Result {
	res.Events = d.events.Load()
	if res.Err != nil {
		d.logger.Info("dispatch loop stopped",
			"status", res.Status.String(), "events", res.Events, "error", res.Err)
	} else {
		d.logger.Info("dispatch loop stopped",
			"status", res.Status.String(), "events", res.Events)
	}
	return res
}
