package sink

import (
	"time"

	"pdrelay/src/internal/core"
)

// Sink receives enriched entries for delivery downstream.
type Sink interface {
	// Send delivers a single entry. Oversized entries are dropped with
	// a diagnostic, not returned as errors.
	Send(entry core.Entry) error

	// Close releases the sink's network resources
	Close()

	// GetStats returns sink statistics
	GetStats() SinkStats
}

// SinkStats contains statistics for a sink
type SinkStats struct {
	Type           string
	TotalProcessed uint64
	StartTime      time.Time
	LastProcessed  time.Time
	Details        map[string]any
}
