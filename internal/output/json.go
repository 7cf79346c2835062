package output

import (
	"encoding/json"
	"fmt"

	"fkrepair/internal/repair"
)

type jsonFormatter struct{}

type jsonSummary struct {
	Format  string          `json:"format"`
	Summary *repair.Summary `json:"summary"`
	Changed bool            `json:"changed"`
}

// FormatSummary renders the run counters as indented JSON.
func (jsonFormatter) FormatSummary(summary *repair.Summary) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("no summary to format")
	}

	payload := jsonSummary{
		Format:  string(FormatJSON),
		Summary: summary,
		Changed: summary.Changed(),
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}
	return string(raw) + "\n", nil
}
