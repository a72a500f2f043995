package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/layerlint/layerlint/internal/rules"
)

// kindOrder fixes the summary table row order.
var kindOrder = []rules.Kind{
	rules.KindUpwardImport,
	rules.KindCycleDetected,
	rules.KindUnassignedModule,
	rules.KindParseError,
	rules.KindUnresolvedImport,
}

// writeText renders one line per violation followed by a summary table.
func (r *Reporter) writeText(w io.Writer, violations []rules.Violation, summary Summary) error {
	prevNoColor := color.NoColor
	if r.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
		defer func() { color.NoColor = prevNoColor }()
	}

	for _, v := range violations {
		_, err := fmt.Fprintf(w, "%s: %s: %s:%d: %s\n",
			severityLabel(v.Severity), v.Kind, v.Path, v.Line, v.Message)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if len(violations) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	return writeSummaryTable(w, violations, summary)
}

// severityLabel colors the severity token; color.NoColor controls whether the
// escape codes are actually emitted.
func severityLabel(s rules.Severity) string {
	switch s {
	case rules.SeverityError:
		return color.New(color.FgRed).Sprint(s.String())
	case rules.SeverityWarning:
		return color.New(color.FgYellow).Sprint(s.String())
	case rules.SeverityInfo:
		return color.New(color.FgCyan).Sprint(s.String())
	default:
		return s.String()
	}
}

// writeSummaryTable prints per-kind counts and scan-wide numbers.
func writeSummaryTable(w io.Writer, violations []rules.Violation, summary Summary) error {
	counts := make(map[rules.Kind]int, len(kindOrder))
	for _, v := range violations {
		counts[v.Kind]++
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Finding", "Count"})

	for _, kind := range kindOrder {
		if counts[kind] == 0 {
			continue
		}

		tbl.AppendRow(table.Row{string(kind), counts[kind]})
	}

	tbl.AppendFooter(table.Row{
		"Files analyzed",
		humanize.Comma(int64(summary.FilesScanned)),
	})

	if _, err := fmt.Fprintln(w, tbl.Render()); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	_, err := fmt.Fprintf(w, "%s modules across %s layers\n",
		humanize.Comma(int64(summary.ModuleCount)),
		humanize.Comma(int64(summary.LayerCount)))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}
