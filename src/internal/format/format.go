package format

import (
	"fmt"

	"pdrelay/src/internal/core"

	"github.com/lixenwraith/log"
)

// Formatter defines the interface for transforming an Entry into its
// wire representation.
type Formatter interface {
	// Format takes an Entry and returns the serialized payload.
	Format(entry core.Entry) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a new Formatter based on the provided configuration.
func New(name string, options map[string]any, logger *log.Logger) (Formatter, error) {
	// Default to json if no format specified
	if name == "" {
		name = "json"
	}

	switch name {
	case "json":
		return NewJSONFormatter(options, logger)
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}
