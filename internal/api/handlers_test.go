package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niriglue/internal/events"
	"niriglue/internal/niri"
)

// mockDispatch implements Dispatch for testing.
type mockDispatch struct {
	running bool
	count   int64
}

func (m *mockDispatch) Running() bool     { return m.running }
func (m *mockDispatch) EventCount() int64 { return m.count }

func newTestServer(t *testing.T, request Requester) (*Server, *events.Hub) {
	t.Helper()
	hub := events.NewHub(16)
	s := New(Config{
		Listen:            "127.0.0.1:0",
		Version:           "test",
		ConfigFingerprint: "deadbeef",
	}, hub, &mockDispatch{running: true, count: 42}, request, slog.New(slog.DiscardHandler))
	return s, hub
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "deadbeef", resp.ConfigFingerprint)
	assert.True(t, resp.Dispatching)
	assert.Equal(t, int64(42), resp.EventsSeen)
}

func TestActionForwardsToCompositor(t *testing.T) {
	var forwarded any
	s, _ := newTestServer(t, func(req any) (niri.Reply, error) {
		forwarded = req
		return niri.Reply{OK: true, Payload: json.RawMessage(`{"Handled":null}`)}, nil
	})

	body := strings.NewReader(`{"action":"FocusWindow","params":{"id":7}}`)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/action", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.RequestID)
	assert.JSONEq(t, `{"Handled":null}`, string(resp.Result))

	encoded, err := json.Marshal(forwarded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Action":{"FocusWindow":{"id":7}}}`, string(encoded))
}

func TestActionWithoutParamsEncodesBareName(t *testing.T) {
	var forwarded any
	s, _ := newTestServer(t, func(req any) (niri.Reply, error) {
		forwarded = req
		return niri.Reply{OK: true}, nil
	})

	body := strings.NewReader(`{"action":"ToggleOverview"}`)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/action", body))

	require.Equal(t, http.StatusOK, rec.Code)
	encoded, err := json.Marshal(forwarded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Action":"ToggleOverview"}`, string(encoded))
}

func TestActionRejectedByCompositor(t *testing.T) {
	s, _ := newTestServer(t, func(req any) (niri.Reply, error) {
		return niri.Reply{OK: false, Payload: json.RawMessage(`"unknown action"`)}, nil
	})

	body := strings.NewReader(`{"action":"Bogus"}`)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/action", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.JSONEq(t, `"unknown action"`, string(resp.Error))
}

func TestActionBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing action", body: `{"params":{}}`},
		{name: "blank action", body: `{"action":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, func(req any) (niri.Reply, error) {
				t.Fatal("request must not be forwarded")
				return niri.Reply{}, nil
			})
			rec := httptest.NewRecorder()
			s.setupRoutes().ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/v1/action", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestActionCompositorUnreachable(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := strings.NewReader(`{"action":"FocusWindow"}`)
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/action", body))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEventsStreamReplaysAndFollows(t *testing.T) {
	s, hub := newTestServer(t, nil)
	hub.Publish(niri.Event{Tag: niri.WindowsChanged, Payload: json.RawMessage(`{"windows":[]}`)})

	srv := httptest.NewServer(s.setupRoutes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readSSEMessage(t, reader)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, niri.WindowsChanged, first["event"])

	// Give the handler a beat to move from replay to live subscription.
	time.Sleep(50 * time.Millisecond)
	hub.Publish(niri.Event{Tag: niri.ConfigLoaded, Payload: json.RawMessage(`{"failed":false}`)})
	second := readSSEMessage(t, reader)
	assert.Equal(t, niri.ConfigLoaded, second["event"])

	var entry events.Entry
	require.NoError(t, json.Unmarshal([]byte(second["data"]), &entry))
	assert.Equal(t, int64(2), entry.Seq)
	assert.True(t, entry.Known)
}

func TestEventsStreamHonorsLastEventID(t *testing.T) {
	s, hub := newTestServer(t, nil)
	hub.Publish(niri.Event{Tag: niri.WindowsChanged, Payload: json.RawMessage(`{}`)})
	hub.Publish(niri.Event{Tag: niri.WindowClosed, Payload: json.RawMessage(`{"id":3}`)})

	srv := httptest.NewServer(s.setupRoutes())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	first := readSSEMessage(t, bufio.NewReader(resp.Body))
	assert.Equal(t, "2", first["id"])
	assert.Equal(t, niri.WindowClosed, first["event"])
}

// readSSEMessage reads lines up to the next blank line and returns the SSE
// fields by name.
func readSSEMessage(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	fields := make(map[string]string)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			t.Fatal("stream ended before a full SSE message")
		}
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(fields) > 0 {
				return fields
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		name, value, _ := strings.Cut(line, ": ")
		fields[name] = value
	}
}
