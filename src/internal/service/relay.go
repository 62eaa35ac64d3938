package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pdrelay/src/internal/enrich"
	"pdrelay/src/internal/pagerduty"
	"pdrelay/src/internal/queue"
	"pdrelay/src/internal/sink"

	"github.com/lixenwraith/log"
)

// Fetcher pages through the upstream log entries listing.
type Fetcher interface {
	LogEntries(since, until time.Time, limit, offset int) (*pagerduty.Page, error)
}

// RelayConfig holds one run's parameters.
type RelayConfig struct {
	Since    time.Time
	Until    time.Time
	PageSize int

	// Pause between consecutive sends while draining the queue
	SendDelay time.Duration
}

// Relay owns the state of a single fetch-enrich-transmit run: the
// pagination cursor and the queue live here, not in package globals.
// Execution is strictly sequential; at most one upstream GET is in
// flight and entries are transmitted in fetch order.
type Relay struct {
	config   RelayConfig
	fetcher  Fetcher
	enricher *enrich.Enricher
	queue    *queue.Queue
	sink     sink.Sink
	logger   *log.Logger

	// Statistics
	startTime    time.Time
	totalPages   atomic.Uint64
	totalFetched atomic.Uint64
	totalSent    atomic.Uint64
}

// NewRelay creates a relay run.
func NewRelay(cfg RelayConfig, fetcher Fetcher, enricher *enrich.Enricher, s sink.Sink, logger *log.Logger) (*Relay, error) {
	if fetcher == nil || enricher == nil || s == nil {
		return nil, fmt.Errorf("relay requires a fetcher, an enricher and a sink")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("page size must be positive: %d", cfg.PageSize)
	}
	if cfg.Until.Before(cfg.Since) {
		return nil, fmt.Errorf("time range end %s precedes start %s", cfg.Until, cfg.Since)
	}

	return &Relay{
		config:    cfg,
		fetcher:   fetcher,
		enricher:  enricher,
		queue:     queue.New(),
		sink:      s,
		logger:    logger,
		startTime: time.Now(),
	}, nil
}

// Run pages through the time range until the upstream reports no more
// pages, draining the queue after every page so entries go out
// incrementally. Any fetch, enrichment or transmission error aborts the
// run; there is no retry and no partial-progress checkpoint. On normal
// termination the queue is empty.
func (r *Relay) Run(ctx context.Context) error {
	offset := 0
	more := true

	r.logger.Info("msg", "Relay run starting",
		"component", "relay",
		"since", r.config.Since.Format(time.RFC3339),
		"until", r.config.Until.Format(time.RFC3339),
		"page_size", r.config.PageSize)

	for more {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := r.fetcher.LogEntries(r.config.Since, r.config.Until, r.config.PageSize, offset)
		if err != nil {
			return fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}
		r.totalPages.Add(1)
		r.totalFetched.Add(uint64(len(page.LogEntries)))

		for _, raw := range page.LogEntries {
			enriched, err := r.enricher.Enrich(raw)
			if err != nil {
				return fmt.Errorf("enriching entry at offset %d: %w", offset, err)
			}
			r.queue.Push(enriched)
		}

		more = page.More
		if more {
			offset = *page.Offset + r.config.PageSize
		}

		// A page with zero entries still drains; the final page drains
		// before the loop exits
		if err := r.drain(ctx); err != nil {
			return err
		}
	}

	r.logger.Info("msg", "Relay run complete",
		"component", "relay",
		"pages", r.totalPages.Load(),
		"entries_fetched", r.totalFetched.Load(),
		"entries_sent", r.totalSent.Load())
	return nil
}

// drain empties the queue in FIFO order, pacing each send.
func (r *Relay) drain(ctx context.Context) error {
	for !r.queue.IsEmpty() {
		entry, err := r.queue.Pop()
		if err != nil {
			// Unreachable given the IsEmpty guard; a failure here means
			// the queue invariant is broken
			return fmt.Errorf("queue invariant violated: %w", err)
		}

		if err := r.sink.Send(entry); err != nil {
			return fmt.Errorf("transmitting entry %q: %w", entry.ID(), err)
		}
		r.totalSent.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.config.SendDelay):
		}
	}
	return nil
}

// GetStats returns run statistics.
func (r *Relay) GetStats() map[string]any {
	sinkStats := r.sink.GetStats()

	return map[string]any{
		"uptime_seconds":  int(time.Since(r.startTime).Seconds()),
		"pages":           r.totalPages.Load(),
		"entries_fetched": r.totalFetched.Load(),
		"entries_sent":    r.totalSent.Load(),
		"queued":          r.queue.Len(),
		"enricher":        r.enricher.GetStats(),
		"sink": map[string]any{
			"type":            sinkStats.Type,
			"total_processed": sinkStats.TotalProcessed,
			"details":         sinkStats.Details,
		},
	}
}
