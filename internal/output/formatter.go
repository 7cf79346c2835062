// Package output provides formatters for repair run summaries. It is
// extendable and for now provides two formats: human and JSON.
package output

import (
	"fmt"
	"strings"

	"fkrepair/internal/repair"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// Formatter is an interface for formatting repair run summaries.
type Formatter interface {
	FormatSummary(*repair.Summary) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to human format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'human' or 'json'", name)
	}
}
