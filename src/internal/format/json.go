package format

import (
	"encoding/json"
	"fmt"

	"pdrelay/src/internal/core"

	"github.com/lixenwraith/log"
)

// JSONFormatter serializes enriched entries as single JSON objects, one
// datagram payload per entry.
type JSONFormatter struct {
	pretty bool
	logger *log.Logger
}

// NewJSONFormatter creates a new JSON formatter from configuration options.
func NewJSONFormatter(options map[string]any, logger *log.Logger) (*JSONFormatter, error) {
	f := &JSONFormatter{
		logger: logger,
	}
	if pretty, ok := options["pretty"].(bool); ok {
		f.pretty = pretty
	}

	return f, nil
}

// Format transforms a single Entry into a JSON byte slice. Every field
// of the entry appears in the output; nothing is added or dropped here.
func (f *JSONFormatter) Format(entry core.Entry) ([]byte, error) {
	var result []byte
	var err error
	if f.pretty {
		result, err = json.MarshalIndent(entry, "", "  ")
	} else {
		result, err = json.Marshal(entry)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	return result, nil
}

// Name returns the formatter's type name.
func (f *JSONFormatter) Name() string {
	return "json"
}
