package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitPerKey(t *testing.T) {
	n := New(time.Minute)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	assert.True(t, n.allow("cpu"))
	assert.False(t, n.allow("cpu"), "same key inside interval is dropped")
	assert.True(t, n.allow("battery"), "other keys are unaffected")

	clock = clock.Add(61 * time.Second)
	assert.True(t, n.allow("cpu"), "allowed again after the interval")
}

func TestRateLimitDisabled(t *testing.T) {
	n := New(0)
	assert.True(t, n.allow("x"))
	assert.True(t, n.allow("x"))
}
