package enrich

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"pdrelay/src/internal/core"

	"github.com/lixenwraith/log"
)

// Shift classification values
const (
	ShiftWorking    = "working"
	ShiftNonWorking = "non_working"
)

// Office-hours window for on-call shift classification, UTC hour of day
const (
	officeHourStart = 14
	officeHourEnd   = 22
)

// Weekdays that are never working shifts regardless of hour
var nonWorkingDays = map[time.Weekday]bool{
	time.Saturday: true,
	time.Sunday:   true,
}

// Service name extraction patterns, tried independently in priority
// order against the incident description. The first non-empty capture
// group wins.
var extractionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\S+ Service:(\S+)`),
	regexp.MustCompile(`(?m)^\[FIRING:.\]\s+(\S+)`),
	regexp.MustCompile(`(?m)^Host:\S+ is (DOWN) `),
}

// Enricher derives metadata for raw log entries before transmission.
type Enricher struct {
	logger *log.Logger

	// Statistics
	totalEnriched  atomic.Uint64
	totalExtracted atomic.Uint64
	totalSentinel  atomic.Uint64
}

// New creates an enricher.
func New(logger *log.Logger) *Enricher {
	return &Enricher{
		logger: logger,
	}
}

// Enrich returns a copy of the raw entry with the derived fields and the
// pipeline tag attached. The input is never mutated; the output carries
// every original field plus exactly the three custom keys and the tag
// list. An entry missing its incident or either creation timestamp is a
// contract violation by the upstream API and is returned as an error.
func (e *Enricher) Enrich(raw core.Entry) (core.Entry, error) {
	createdAt, err := raw.CreatedAt()
	if err != nil {
		return nil, fmt.Errorf("malformed log entry: %w", err)
	}
	incidentCreatedAt, err := raw.IncidentCreatedAt()
	if err != nil {
		return nil, fmt.Errorf("malformed log entry: %w", err)
	}

	enriched := raw.Clone()
	enriched[core.KeySecondsSinceIncident] = secondsSince(incidentCreatedAt, createdAt)
	enriched[core.KeyOncallShift] = classifyShift(incidentCreatedAt)
	enriched[core.KeyTags] = []string{core.PipelineTag}

	extracted := ExtractServiceName(raw.IncidentDescription())
	enriched[core.KeyServiceName] = extracted

	e.totalEnriched.Add(1)
	if extracted == core.ExtractionSentinel {
		e.totalSentinel.Add(1)
	} else {
		e.totalExtracted.Add(1)
	}

	e.logger.Debug("msg", "Entry enriched",
		"component", "enricher",
		"entry_id", raw.ID(),
		"shift", enriched[core.KeyOncallShift],
		"service_name", extracted)

	return enriched, nil
}

// GetStats returns enrichment statistics.
func (e *Enricher) GetStats() map[string]any {
	return map[string]any{
		"total_enriched":       e.totalEnriched.Load(),
		"total_extracted":      e.totalExtracted.Load(),
		"total_extract_misses": e.totalSentinel.Load(),
	}
}

// secondsSince measures the time from incident creation to this log
// event in whole seconds. Out-of-order timestamps clamp to zero.
func secondsSince(incidentCreated, eventCreated time.Time) int64 {
	elapsed := int64(eventCreated.Sub(incidentCreated).Seconds())
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// classifyShift labels the incident creation time as inside or outside
// the weekday office-hours window.
func classifyShift(incidentCreated time.Time) string {
	utc := incidentCreated.UTC()
	if nonWorkingDays[utc.Weekday()] {
		return ShiftNonWorking
	}
	if h := utc.Hour(); h >= officeHourStart && h < officeHourEnd {
		return ShiftWorking
	}
	return ShiftNonWorking
}

// ExtractServiceName pulls a service name out of an incident
// description. Patterns are tried in priority order and the first
// non-empty capture group, trimmed of surrounding whitespace, is
// returned. The sentinel is returned when nothing matches.
func ExtractServiceName(description string) string {
	for _, re := range extractionPatterns {
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		for _, capture := range m[1:] {
			if v := strings.TrimSpace(capture); v != "" {
				return v
			}
		}
	}
	return core.ExtractionSentinel
}
