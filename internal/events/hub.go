// Package events fans dispatched compositor events out to live observers
// (the SSE endpoint and the watch TUI) without ever blocking the dispatch
// loop.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"niriglue/internal/niri"
)

// Entry is one observed compositor event, stamped with a hub sequence
// number and receive time.
type Entry struct {
	Seq     int64           `json:"seq"`
	Tag     string          `json:"tag"`
	Known   bool            `json:"known"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
type Hub struct {
	nextSeq atomic.Int64

	mu    sync.Mutex
	ring  []Entry
	start int
	size  int

	subs      map[int]chan Entry
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Entry, capacity),
		subs: make(map[int]chan Entry),
	}
}

// Publish records an event and delivers it to subscribers. Slow subscribers
// lose events rather than stalling the publisher, which sits on the
// dispatch loop's critical path.
func (h *Hub) Publish(ev niri.Event) {
	entry := Entry{
		Seq:     h.nextSeq.Add(1),
		Tag:     ev.Tag,
		Known:   ev.Known(),
		At:      time.Now().UTC(),
		Payload: ev.Payload,
	}

	h.mu.Lock()
	h.pushLocked(entry)
	for _, ch := range h.subs {
		select {
		case ch <- entry:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a channel of future entries and a cancel func. The
// channel is buffered; a full buffer drops entries for that subscriber.
func (h *Hub) Subscribe() (<-chan Entry, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Entry, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered entries with Seq > lastSeq, oldest-first.
// lastSeq 0 returns the full ring buffer snapshot.
func (h *Hub) SnapshotSince(lastSeq int64) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, 0, h.size)
	for i := 0; i < h.size; i++ {
		e := h.ring[(h.start+i)%len(h.ring)]
		if lastSeq == 0 || e.Seq > lastSeq {
			out = append(out, e)
		}
	}
	return out
}

func (h *Hub) pushLocked(e Entry) {
	capacity := len(h.ring)
	if h.size < capacity {
		idx := (h.start + h.size) % capacity
		h.ring[idx] = e
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = e
	h.start = (h.start + 1) % capacity
}
