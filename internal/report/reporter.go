// Package report renders checked violations for console and CI consumption.
// Output is deterministic: the same violation set always renders to the same
// bytes, so CI diffs stay meaningful.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/layerlint/layerlint/internal/rules"
)

// Format selects the report rendering.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Exit codes of the check run.
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitFatal      = 2
)

// ErrUnknownFormat rejects formats other than text and json.
var ErrUnknownFormat = errors.New("unknown report format")

// Summary carries the scan-wide numbers shown under the text report.
type Summary struct {
	FilesScanned int
	ModuleCount  int
	LayerCount   int
}

// Reporter formats violations.
type Reporter struct {
	format  Format
	noColor bool
}

// New creates a Reporter. The format is validated here so a bad flag fails
// before any analysis output is produced.
func New(format Format, noColor bool) (*Reporter, error) {
	switch format {
	case FormatText, FormatJSON:
		return &Reporter{format: format, noColor: noColor}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Write renders the violations, sorted into report order, and returns the
// process exit code derived from them.
func (r *Reporter) Write(w io.Writer, violations []rules.Violation, summary Summary) (int, error) {
	sorted := make([]rules.Violation, len(violations))
	copy(sorted, violations)
	Sort(sorted)

	var err error

	switch r.format {
	case FormatJSON:
		err = writeJSON(w, sorted)
	case FormatText:
		err = r.writeText(w, sorted, summary)
	}

	if err != nil {
		return ExitFatal, err
	}

	return ExitCode(sorted), nil
}

// Sort orders violations by severity (most severe first), then source path,
// line, kind and message. The tail keys make the order total, so equal input
// always renders identically.
func Sort(violations []rules.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]

		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}

		if a.Path != b.Path {
			return a.Path < b.Path
		}

		if a.Line != b.Line {
			return a.Line < b.Line
		}

		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}

		return a.Message < b.Message
	})
}

// ExitCode is non-zero only when an error-severity violation exists; warnings
// and informational findings never fail the build.
func ExitCode(violations []rules.Violation) int {
	for _, v := range violations {
		if v.Severity == rules.SeverityError {
			return ExitViolations
		}
	}

	return ExitOK
}
