package rules

import (
	"fmt"
	"strings"

	"github.com/layerlint/layerlint/pkg/depgraph"
)

// Check runs both layering invariants over the graph and collects every
// finding. The two rules are independent: an edge can be part of an upward
// import and of a cycle, and both are reported.
func Check(graph *depgraph.Graph) []Violation {
	var violations []Violation

	violations = append(violations, checkDirection(graph)...)
	violations = append(violations, checkCycles(graph)...)
	violations = append(violations, checkUnassigned(graph)...)
	violations = append(violations, checkUnresolved(graph)...)

	return violations
}

// checkDirection enforces the downward-only rule: a module may only import
// from layers at the same or lower rank. Edges with an unrankable endpoint
// are skipped; those modules are covered by the unassigned check instead.
func checkDirection(graph *depgraph.Graph) []Violation {
	var violations []Violation

	for _, edge := range graph.Edges() {
		from, to := graph.Node(edge.From), graph.Node(edge.To)
		if from.Layer == nil || to.Layer == nil {
			continue
		}

		if to.Layer.Rank <= from.Layer.Rank {
			continue
		}

		violations = append(violations, Violation{
			Kind:     KindUpwardImport,
			Severity: SeverityError,
			Path:     from.Path,
			Line:     edge.Line,
			Message: fmt.Sprintf("%s (layer %s, rank %d) imports %s (layer %s, rank %d): dependencies must point downward",
				from.Name, from.Layer.Name, from.Layer.Rank,
				to.Name, to.Layer.Name, to.Layer.Rank),
		})
	}

	return violations
}

// checkCycles reports one violation per strongly connected component of more
// than one module. The finding points at the first module of the cycle chain
// and the line of the import that leaves it.
func checkCycles(graph *depgraph.Graph) []Violation {
	var violations []Violation

	for _, comp := range graph.SCCs() {
		path := graph.CyclePath(comp)

		names := make([]string, 0, len(path))
		for _, id := range path {
			names = append(names, graph.Node(id).Name)
		}

		first := graph.Node(path[0])

		line := 1
		if len(path) > 1 {
			if l, ok := graph.EdgeLine(path[0], path[1]); ok {
				line = l
			}
		}

		violations = append(violations, Violation{
			Kind:     KindCycleDetected,
			Severity: SeverityError,
			Path:     first.Path,
			Line:     line,
			Message:  fmt.Sprintf("import cycle: %s -> %s", strings.Join(names, " -> "), names[0]),
			Cycle:    names,
		})
	}

	return violations
}

// checkUnassigned reports each module whose path matches no declared layer.
// These are warnings: the direction rule cannot be checked for them, but
// that is a registry gap, not a proven breach.
func checkUnassigned(graph *depgraph.Graph) []Violation {
	var violations []Violation

	for _, node := range graph.Nodes() {
		if node.Layer != nil {
			continue
		}

		violations = append(violations, Violation{
			Kind:     KindUnassignedModule,
			Severity: SeverityWarning,
			Path:     node.Path,
			Line:     1,
			Message:  fmt.Sprintf("module %s matches no declared layer", node.Name),
		})
	}

	return violations
}

// checkUnresolved surfaces project-namespace imports with no in-tree target.
func checkUnresolved(graph *depgraph.Graph) []Violation {
	var violations []Violation

	for _, ref := range graph.Unresolved() {
		violations = append(violations, Violation{
			Kind:     KindUnresolvedImport,
			Severity: SeverityInfo,
			Path:     ref.FromPath,
			Line:     ref.Line,
			Message:  fmt.Sprintf("import %s resolves to no file in the tree", ref.Target),
		})
	}

	return violations
}
