package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/layerlint/layerlint/internal/rules"
)

// violationRecord is the wire shape of one violation in JSON output.
type violationRecord struct {
	Kind     string   `json:"kind"`
	Severity string   `json:"severity"`
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	Cycle    []string `json:"cycle,omitempty"`
}

// writeJSON renders the sorted violations as one JSON array. An empty set
// renders as [] rather than null so consumers can always range over it.
func writeJSON(w io.Writer, violations []rules.Violation) error {
	records := make([]violationRecord, 0, len(violations))

	for _, v := range violations {
		records = append(records, violationRecord{
			Kind:     string(v.Kind),
			Severity: v.Severity.String(),
			Path:     v.Path,
			Line:     v.Line,
			Message:  v.Message,
			Cycle:    v.Cycle,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}
