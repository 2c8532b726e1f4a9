// Package notify sends desktop notifications through notify-send.
//
// Rate limiting is keyed: repeated notifications for the same key inside the
// configured interval are dropped. The last-sent map lives on the Notifier,
// owned by whoever constructed it, never in package globals.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"niriglue/internal/log"
	"niriglue/internal/spawn"
)

// Notifier dispatches desktop notifications with per-key rate limiting.
// Safe for concurrent use.
type Notifier struct {
	minInterval time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// New creates a Notifier. minInterval <= 0 disables rate limiting.
func New(minInterval time.Duration) *Notifier {
	return &Notifier{
		minInterval: minInterval,
		now:         time.Now,
		lastSent:    make(map[string]time.Time),
		logger:      log.WithComponent("notify"),
	}
}

// Send shows a notification unless one with the same key was sent inside the
// rate-limit interval. It never blocks on or propagates notify-send
// failures; a broken notification daemon must not break event handling.
func (n *Notifier) Send(ctx context.Context, key, summary, body string) {
	if !n.allow(key) {
		n.logger.Debug("notification rate-limited", "key", key)
		return
	}
	spawn.Fire(ctx, "notify-send", "--app-name", "niriglue", summary, body)
}

func (n *Notifier) allow(key string) bool {
	if n.minInterval <= 0 {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.minInterval {
		return false
	}
	n.lastSent[key] = now
	return true
}
