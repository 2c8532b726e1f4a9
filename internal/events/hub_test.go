package events

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niriglue/internal/niri"
)

func publishN(h *Hub, n int) {
	for i := 0; i < n; i++ {
		h.Publish(niri.Event{
			Tag:     niri.WindowClosed,
			Payload: json.RawMessage(fmt.Sprintf(`{"id":%d}`, i)),
		})
	}
}

func TestSnapshotOldestFirst(t *testing.T) {
	h := NewHub(8)
	publishN(h, 3)

	snap := h.SnapshotSince(0)
	require.Len(t, snap, 3)
	assert.Equal(t, int64(1), snap[0].Seq)
	assert.Equal(t, int64(3), snap[2].Seq)
}

func TestRingOverwritesOldest(t *testing.T) {
	h := NewHub(4)
	publishN(h, 10)

	snap := h.SnapshotSince(0)
	require.Len(t, snap, 4)
	assert.Equal(t, int64(7), snap[0].Seq)
	assert.Equal(t, int64(10), snap[3].Seq)
}

func TestSnapshotSinceFilters(t *testing.T) {
	h := NewHub(16)
	publishN(h, 5)

	snap := h.SnapshotSince(3)
	require.Len(t, snap, 2)
	assert.Equal(t, int64(4), snap[0].Seq)
}

func TestSubscribeReceivesLiveEntries(t *testing.T) {
	h := NewHub(8)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(niri.Event{Tag: niri.ConfigLoaded, Payload: json.RawMessage(`{}`)})

	entry := <-ch
	assert.Equal(t, niri.ConfigLoaded, entry.Tag)
	assert.True(t, entry.Known)
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub(8)
	_, cancel := h.Subscribe() // never drained
	defer cancel()

	// More than the subscriber buffer; must not deadlock.
	publishN(h, 300)
}

func TestCancelIsIdempotent(t *testing.T) {
	h := NewHub(8)
	_, cancel := h.Subscribe()
	cancel()
	cancel()
}
