package output

import (
	"fmt"
	"strings"

	"fkrepair/internal/repair"
)

type humanFormatter struct{}

// FormatSummary renders the run counters as a short readable block.
func (humanFormatter) FormatSummary(summary *repair.Summary) (string, error) {
	if summary == nil {
		return "", fmt.Errorf("no summary to format")
	}

	var sb strings.Builder
	sb.WriteString("-- fkrepair run summary\n")
	fmt.Fprintf(&sb, "Already unique: %d\n", summary.AlreadyUnique)
	fmt.Fprintf(&sb, "Fixed:          %d\n", summary.Fixed)
	fmt.Fprintf(&sb, "Failed:         %d\n", summary.Failed)
	if summary.Changed() {
		sb.WriteString("Schema changed: yes\n")
	} else {
		sb.WriteString("Schema changed: no\n")
	}
	return sb.String(), nil
}
