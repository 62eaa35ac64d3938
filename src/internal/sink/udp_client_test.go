package sink

import (
	"bytes"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"pdrelay/src/internal/core"
	"pdrelay/src/internal/format"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

// startCollector binds a loopback UDP socket and returns its address
// plus a receive function with a read deadline.
func startCollector(t *testing.T) (string, func() ([]byte, error)) {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	recv := func() ([]byte, error) {
		buf := make([]byte, 65536)
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			return nil, err
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}

	return conn.LocalAddr().String(), recv
}

func newTestSink(t *testing.T, address string, diag *bytes.Buffer) *UDPClientSink {
	t.Helper()

	logger := newTestLogger()
	formatter, err := format.New("json", nil, logger)
	require.NoError(t, err)

	s, err := NewUDPClientSink(UDPClientConfig{Address: address}, logger, formatter, diag)
	require.NoError(t, err)
	require.NoError(t, s.Connect())
	t.Cleanup(s.Close)

	return s
}

// entryOfWireSize builds an entry whose JSON serialization is exactly
// the given number of bytes. The minimal entry {"p":""} costs 8 bytes.
func entryOfWireSize(t *testing.T, size int) core.Entry {
	t.Helper()

	const overhead = 8
	require.GreaterOrEqual(t, size, overhead)
	entry := core.Entry{"p": strings.Repeat("a", size-overhead)}

	wire, err := json.Marshal(entry)
	require.NoError(t, err)
	require.Len(t, wire, size)

	return entry
}

func TestUDPClientSink_InvalidAddress(t *testing.T) {
	logger := newTestLogger()
	formatter, err := format.New("json", nil, logger)
	require.NoError(t, err)

	_, err = NewUDPClientSink(UDPClientConfig{Address: "no-port"}, logger, formatter, nil)
	assert.Error(t, err)
}

func TestUDPClientSink_Send(t *testing.T) {
	address, recv := startCollector(t)
	var diag bytes.Buffer
	s := newTestSink(t, address, &diag)

	entry := core.Entry{
		"id":         "E1",
		core.KeyTags: []string{core.PipelineTag},
	}
	require.NoError(t, s.Send(entry))

	payload, err := recv()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "E1", decoded["id"])
	assert.Equal(t, []any{core.PipelineTag}, decoded[core.KeyTags])
	assert.Empty(t, diag.String())
}

func TestUDPClientSink_SizeBoundary(t *testing.T) {
	address, recv := startCollector(t)
	var diag bytes.Buffer
	s := newTestSink(t, address, &diag)

	t.Run("ExactCeilingIsSent", func(t *testing.T) {
		require.NoError(t, s.Send(entryOfWireSize(t, core.MaxDatagramBytes)))

		payload, err := recv()
		require.NoError(t, err)
		assert.Len(t, payload, core.MaxDatagramBytes)
	})

	t.Run("OneByteOverIsDropped", func(t *testing.T) {
		require.NoError(t, s.Send(entryOfWireSize(t, core.MaxDatagramBytes+1)))
		assert.Contains(t, diag.String(), "dropping oversized entry")

		// The run continues: the next queued entry still goes out and
		// nothing of the dropped one reaches the wire
		require.NoError(t, s.Send(core.Entry{"id": "after-drop"}))
		payload, err := recv()
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, "after-drop", decoded["id"])
	})

	stats := s.GetStats()
	assert.Equal(t, uint64(1), stats.Details["total_dropped_oversize"])
	assert.Equal(t, uint64(2), stats.Details["total_sent"])
}

func TestUDPClientSink_SendBeforeConnect(t *testing.T) {
	logger := newTestLogger()
	formatter, err := format.New("json", nil, logger)
	require.NoError(t, err)

	s, err := NewUDPClientSink(UDPClientConfig{Address: "127.0.0.1:9"}, logger, formatter, nil)
	require.NoError(t, err)

	assert.Error(t, s.Send(core.Entry{"id": "E1"}))
}
