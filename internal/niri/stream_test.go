package niri

import (
	"bufio"
	"fmt"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEventStream serves the subscribe handshake with ack, then writes the
// given frames (newline appended) and closes.
func startEventStream(t *testing.T, ack string, frames ...string) string {
	t.Helper()

	return startFakeCompositor(t, func(c net.Conn) {
		defer c.Close()
		line, err := bufio.NewReader(c).ReadString('\n')
		if err != nil {
			return
		}
		if line != "\"EventStream\"\n" {
			c.Write([]byte(`{"Err":"expected EventStream"}` + "\n"))
			return
		}
		c.Write([]byte(ack + "\n"))
		for _, frame := range frames {
			c.Write([]byte(frame + "\n"))
		}
	})
}

const okAck = `{"Ok":{"Handled":null}}`

func TestStreamPreservesWireOrder(t *testing.T) {
	var frames []string
	for i := 0; i < 20; i++ {
		frames = append(frames, fmt.Sprintf(`{"WindowClosed":{"id":%d}}`, i))
	}
	path := startEventStream(t, okAck, frames...)

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 20; i++ {
		ev, ok := s.Next()
		require.True(t, ok, "event %d", i)
		assert.Equal(t, WindowClosed, ev.Tag)
		assert.JSONEq(t, fmt.Sprintf(`{"id":%d}`, i), string(ev.Payload))
	}
	_, ok := s.Next()
	assert.False(t, ok)
	assert.NoError(t, s.Err(), "peer close after final frame is a clean end")
}

func TestStreamSurfacesUnknownTags(t *testing.T) {
	path := startEventStream(t, okAck,
		`{"SomethingNewer":{"x":1}}`,
		`{"ConfigLoaded":{"failed":false}}`,
	)

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	ev, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "SomethingNewer", ev.Tag)
	assert.False(t, ev.Known())

	ev, ok = s.Next()
	require.True(t, ok)
	assert.Equal(t, ConfigLoaded, ev.Tag)
	assert.True(t, ev.Known())
}

func TestStreamInvalidFrameTerminates(t *testing.T) {
	path := startEventStream(t, okAck,
		`{"WindowClosed":{"id":1}}`,
		`this is not json`,
		`{"WindowClosed":{"id":2}}`,
	)

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Next()
	require.True(t, ok)

	_, ok = s.Next()
	assert.False(t, ok)
	var protoErr *ProtocolError
	require.ErrorAs(t, s.Err(), &protoErr)

	// No further events after termination.
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestStreamFrameWithMultipleKeysTerminates(t *testing.T) {
	path := startEventStream(t, okAck, `{"A":1,"B":2}`)

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Next()
	assert.False(t, ok)
	var protoErr *ProtocolError
	require.ErrorAs(t, s.Err(), &protoErr)
}

func TestStreamRejectedSubscribe(t *testing.T) {
	path := startEventStream(t, `{"Err":"no event stream for you"}`)

	_, err := OpenStream(path)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestStreamMalformedAck(t *testing.T) {
	path := startEventStream(t, `garbage`)

	_, err := OpenStream(path)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestStreamConnectFailure(t *testing.T) {
	_, err := OpenStream(filepath.Join(t.TempDir(), "missing.sock"))
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
}

func TestStreamTruncatedFrameIsError(t *testing.T) {
	path := startFakeCompositor(t, func(c net.Conn) {
		defer c.Close()
		if _, err := bufio.NewReader(c).ReadString('\n'); err != nil {
			return
		}
		c.Write([]byte(okAck + "\n"))
		c.Write([]byte(`{"WindowClosed":`)) // cut mid-frame, then close
	})

	s, err := OpenStream(path)
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.Next()
	assert.False(t, ok)
	var protoErr *ProtocolError
	require.ErrorAs(t, s.Err(), &protoErr)
}
