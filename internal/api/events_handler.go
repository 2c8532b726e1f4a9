package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"niriglue/internal/events"
)

// handleEvents handles GET /v1/events as a server-sent event stream.
// Late clients may replay the hub's ring buffer via Last-Event-ID.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	lastSeq := parseLastEventID(r.Header.Get("Last-Event-ID"))
	for _, entry := range s.hub.SnapshotSince(lastSeq) {
		if err := writeSSE(w, entry); err != nil {
			return
		}
	}
	flusher.Flush()

	ch, cancel := s.hub.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, entry); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			// SSE comment line as keep-alive.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func parseLastEventID(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeSSE(w http.ResponseWriter, entry events.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %d\n", entry.Seq); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", entry.Tag); err != nil {
		return err
	}
	// Payload is single-line JSON, so one data line suffices.
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}
