package sink

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"pdrelay/src/internal/core"
	"pdrelay/src/internal/format"

	"github.com/lixenwraith/log"
)

// UDPClientSink forwards enriched entries to a remote collector as
// unacknowledged datagrams, one entry per datagram. Payloads above the
// IPv4 datagram ceiling are dropped with a diagnostic instead of being
// split or truncated.
type UDPClientSink struct {
	config    UDPClientConfig
	conn      net.Conn
	formatter format.Formatter
	logger    *log.Logger
	startTime time.Time

	// Oversized-drop diagnostics go here as plain text, not through
	// the structured logger
	diag io.Writer

	// Statistics
	totalSent            atomic.Uint64
	totalDroppedOversize atomic.Uint64
	totalBytesSent       atomic.Uint64
	lastProcessed        atomic.Value // time.Time
}

// UDPClientConfig holds UDP client sink configuration
type UDPClientConfig struct {
	Address      string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewUDPClientSink creates a new UDP client sink.
func NewUDPClientSink(cfg UDPClientConfig, logger *log.Logger, formatter format.Formatter, diag io.Writer) (*UDPClientSink, error) {
	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		return nil, fmt.Errorf("invalid address format (expected host:port): %w", err)
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if diag == nil {
		diag = os.Stderr
	}

	u := &UDPClientSink{
		config:    cfg,
		formatter: formatter,
		logger:    logger,
		startTime: time.Now(),
		diag:      diag,
	}
	u.lastProcessed.Store(time.Time{})

	return u, nil
}

// Connect resolves the destination and binds the local socket. UDP has
// no handshake, so this only fails on resolution or socket errors.
func (u *UDPClientSink) Connect() error {
	dialer := &net.Dialer{
		Timeout: u.config.DialTimeout,
	}

	conn, err := dialer.Dial("udp", u.config.Address)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u.config.Address, err)
	}
	u.conn = conn

	u.logger.Info("msg", "UDP client sink connected",
		"component", "udp_client_sink",
		"address", u.config.Address,
		"local_addr", conn.LocalAddr())
	return nil
}

// Send serializes one entry and transmits it as a single datagram. An
// entry whose serialized form exceeds the datagram ceiling is dropped
// with a diagnostic and does not fail the run.
func (u *UDPClientSink) Send(entry core.Entry) error {
	if u.conn == nil {
		return fmt.Errorf("sink is not connected")
	}

	data, err := u.formatter.Format(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize entry: %w", err)
	}

	u.lastProcessed.Store(time.Now())

	if len(data) > core.MaxDatagramBytes {
		u.totalDroppedOversize.Add(1)
		fmt.Fprintf(u.diag, "dropping oversized entry (%d bytes, limit %d): %v\n",
			len(data), core.MaxDatagramBytes, map[string]any(entry))
		u.logger.Warn("msg", "Dropped oversized entry",
			"component", "udp_client_sink",
			"entry_id", entry.ID(),
			"size", len(data))
		return nil
	}

	if err := u.conn.SetWriteDeadline(time.Now().Add(u.config.WriteTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	n, err := u.conn.Write(data)
	if err != nil {
		return fmt.Errorf("datagram write failed: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("partial datagram write: %d/%d bytes", n, len(data))
	}

	u.totalSent.Add(1)
	u.totalBytesSent.Add(uint64(n))
	return nil
}

// Close releases the socket.
func (u *UDPClientSink) Close() {
	if u.conn != nil {
		_ = u.conn.Close()
		u.conn = nil
	}

	u.logger.Info("msg", "UDP client sink closed",
		"total_sent", u.totalSent.Load(),
		"total_dropped_oversize", u.totalDroppedOversize.Load())
}

// GetStats returns the sink's statistics.
func (u *UDPClientSink) GetStats() SinkStats {
	lastProc, _ := u.lastProcessed.Load().(time.Time)

	return SinkStats{
		Type:           "udp_client",
		TotalProcessed: u.totalSent.Load() + u.totalDroppedOversize.Load(),
		StartTime:      u.startTime,
		LastProcessed:  lastProc,
		Details: map[string]any{
			"address":                u.config.Address,
			"total_sent":             u.totalSent.Load(),
			"total_dropped_oversize": u.totalDroppedOversize.Load(),
			"total_bytes_sent":       u.totalBytesSent.Load(),
		},
	}
}
