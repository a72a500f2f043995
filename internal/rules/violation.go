// Package rules evaluates the layering invariants over a built dependency
// graph and turns breaches into violation records.
package rules

// Kind identifies what a violation is about.
type Kind string

// Violation kinds, from hard rule breaches down to informational findings.
const (
	KindUpwardImport     Kind = "UpwardImport"
	KindCycleDetected    Kind = "CycleDetected"
	KindUnassignedModule Kind = "UnassignedModule"
	KindUnresolvedImport Kind = "UnresolvedImport"
	KindParseError       Kind = "ParseError"
)

// Severity orders violations by how hard they fail the build.
type Severity int

// Severity levels. Only SeverityError makes the process exit non-zero.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the lowercase severity label used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Violation is one finding against the analyzed tree.
type Violation struct {
	Kind     Kind
	Severity Severity
	// Path is the root-relative file path the finding points at.
	Path string
	// Line is the 1-based source line; module-scoped findings use line 1.
	Line    int
	Message string
	// Cycle lists the modules of a CycleDetected finding as an ordered,
	// followable import chain. Empty for other kinds.
	Cycle []string
}

// NewParseError wraps a recovered per-unit parse failure as a violation so it
// surfaces in the report instead of aborting the run.
func NewParseError(path string, line int, message string) Violation {
	return Violation{
		Kind:     KindParseError,
		Severity: SeverityWarning,
		Path:     path,
		Line:     line,
		Message:  message,
	}
}
