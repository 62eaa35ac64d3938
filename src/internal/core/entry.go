package core

import (
	"fmt"
	"time"
)

// Wire and enrichment constants shared across the pipeline
const (
	// Practical maximum payload of a single UDP datagram over IPv4
	MaxDatagramBytes = 65507

	// Tag attached to every relayed entry
	PipelineTag = "pagerduty-to-logstash"

	// Value of the service name key when no extraction pattern matches
	ExtractionSentinel = "Not found for extraction"
)

// Keys added to an entry during enrichment
const (
	KeySecondsSinceIncident = "custom.seconds_since_incident_creation"
	KeyOncallShift          = "custom.oncall_shift"
	KeyServiceName          = "custom.service_name.extracted"
	KeyTags                 = "tags"
)

// Entry represents a single PagerDuty log entry flowing through the
// pipeline. The upstream payload is kept opaque: all fields pass through
// to the sink unmodified except for the enrichment keys.
type Entry map[string]any

// ID returns the upstream identifier, or "" when absent.
func (e Entry) ID() string {
	id, _ := e["id"].(string)
	return id
}

// CreatedAt returns the entry's creation time.
func (e Entry) CreatedAt() (time.Time, error) {
	return e.timeField(e, "created_at")
}

// Incident returns the nested incident object.
func (e Entry) Incident() (map[string]any, error) {
	incident, ok := e["incident"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("log entry %q has no incident object", e.ID())
	}
	return incident, nil
}

// IncidentCreatedAt returns the creation time of the parent incident.
func (e Entry) IncidentCreatedAt() (time.Time, error) {
	incident, err := e.Incident()
	if err != nil {
		return time.Time{}, err
	}
	return e.timeField(incident, "created_at")
}

// IncidentDescription returns the incident's free-text description,
// or "" when absent.
func (e Entry) IncidentDescription() string {
	incident, err := e.Incident()
	if err != nil {
		return ""
	}
	desc, _ := incident["description"].(string)
	return desc
}

// Clone returns a shallow copy of the entry's top-level keys. Nested
// values are shared; enrichment only adds top-level keys.
func (e Entry) Clone() Entry {
	out := make(Entry, len(e)+4)
	for k, v := range e {
		out[k] = v
	}
	return out
}

func (e Entry) timeField(obj map[string]any, key string) (time.Time, error) {
	raw, ok := obj[key].(string)
	if !ok || raw == "" {
		return time.Time{}, fmt.Errorf("log entry %q is missing %q", e.ID(), key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("log entry %q has invalid %q: %w", e.ID(), key, err)
	}
	return t, nil
}
