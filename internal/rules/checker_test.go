package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerlint/layerlint/internal/rules"
	"github.com/layerlint/layerlint/pkg/depgraph"
	"github.com/layerlint/layerlint/pkg/layers"
	"github.com/layerlint/layerlint/pkg/pysource"
)

func testRegistry(t *testing.T) *layers.Registry {
	t.Helper()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("models", 0, []string{"models"}))
	require.NoError(t, registry.Register("core", 1, []string{"core"}))
	require.NoError(t, registry.Register("utils", 2, []string{"utils"}))

	return registry
}

func mod(name, path string, imports ...pysource.Import) *pysource.Module {
	return &pysource.Module{Name: name, Path: path, Imports: imports}
}

func imp(target string, line int) pysource.Import {
	return pysource.Import{Target: target, Line: line}
}

func byKind(violations []rules.Violation, kind rules.Kind) []rules.Violation {
	var out []rules.Violation

	for _, v := range violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}

	return out
}

func TestUpwardImportViolation(t *testing.T) {
	t.Parallel()

	// core (rank 1) importing utils (rank 2) points upward.
	graph := depgraph.Build([]*pysource.Module{
		mod("core.x", "core/x.py", imp("utils.y", 7)),
		mod("utils.y", "utils/y.py"),
	}, testRegistry(t))

	violations := rules.Check(graph)
	upward := byKind(violations, rules.KindUpwardImport)
	require.Len(t, upward, 1)

	assert.Equal(t, rules.SeverityError, upward[0].Severity)
	assert.Equal(t, "core/x.py", upward[0].Path)
	assert.Equal(t, 7, upward[0].Line)
	assert.Contains(t, upward[0].Message, "core.x")
	assert.Contains(t, upward[0].Message, "utils.y")
}

func TestDownwardAndSameLayerImportsAllowed(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build([]*pysource.Module{
		mod("utils.y", "utils/y.py", imp("core.x", 1), imp("models.a", 2)),
		mod("core.x", "core/x.py", imp("models.a", 1), imp("core.helpers", 2)),
		mod("core.helpers", "core/helpers.py"),
		mod("models.a", "models/a.py"),
	}, testRegistry(t))

	violations := rules.Check(graph)
	assert.Empty(t, byKind(violations, rules.KindUpwardImport))
	assert.Empty(t, byKind(violations, rules.KindCycleDetected))
}

func TestTwoModuleCycle(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build([]*pysource.Module{
		mod("models.a", "models/a.py", imp("models.b", 3)),
		mod("models.b", "models/b.py", imp("models.a", 4)),
	}, testRegistry(t))

	violations := rules.Check(graph)
	cycles := byKind(violations, rules.KindCycleDetected)
	require.Len(t, cycles, 1)

	assert.Equal(t, rules.SeverityError, cycles[0].Severity)
	assert.Equal(t, []string{"models.a", "models.b"}, cycles[0].Cycle)
	assert.Equal(t, "models/a.py", cycles[0].Path)
	assert.Equal(t, 3, cycles[0].Line)
}

func TestTwoIndependentCyclesReportedSeparately(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build([]*pysource.Module{
		mod("core.a", "core/a.py", imp("core.b", 1)),
		mod("core.b", "core/b.py", imp("core.a", 1)),
		mod("models.c", "models/c.py", imp("models.d", 1)),
		mod("models.d", "models/d.py", imp("models.c", 1)),
	}, testRegistry(t))

	cycles := byKind(rules.Check(graph), rules.KindCycleDetected)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"core.a", "core.b"}, cycles[0].Cycle)
	assert.Equal(t, []string{"models.c", "models.d"}, cycles[1].Cycle)
}

func TestUnassignedModuleWarning(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build([]*pysource.Module{
		mod("unmapped.z", "unmapped/z.py", imp("core.x", 2)),
		mod("core.x", "core/x.py"),
	}, testRegistry(t))

	violations := rules.Check(graph)

	unassigned := byKind(violations, rules.KindUnassignedModule)
	require.Len(t, unassigned, 1)
	assert.Equal(t, rules.SeverityWarning, unassigned[0].Severity)
	assert.Equal(t, "unmapped/z.py", unassigned[0].Path)
	assert.Equal(t, 1, unassigned[0].Line)

	// The edge from the unassigned module is not direction-checked.
	assert.Empty(t, byKind(violations, rules.KindUpwardImport))
}

func TestUnresolvedImportInfo(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build([]*pysource.Module{
		mod("core.x", "core/x.py", imp("core.gone", 9)),
	}, testRegistry(t))

	unresolved := byKind(rules.Check(graph), rules.KindUnresolvedImport)
	require.Len(t, unresolved, 1)
	assert.Equal(t, rules.SeverityInfo, unresolved[0].Severity)
	assert.Equal(t, 9, unresolved[0].Line)
	assert.Contains(t, unresolved[0].Message, "core.gone")
}

func TestEmptyTree(t *testing.T) {
	t.Parallel()

	graph := depgraph.Build(nil, testRegistry(t))
	assert.Empty(t, rules.Check(graph))
}

func TestUpwardEdgeInsideCycleReportedTwice(t *testing.T) {
	t.Parallel()

	// models.a -> core.x is upward (rank 0 -> 1) and part of a cycle; both
	// rules fire independently.
	graph := depgraph.Build([]*pysource.Module{
		mod("models.a", "models/a.py", imp("core.x", 1)),
		mod("core.x", "core/x.py", imp("models.a", 2)),
	}, testRegistry(t))

	violations := rules.Check(graph)
	assert.Len(t, byKind(violations, rules.KindUpwardImport), 1)
	assert.Len(t, byKind(violations, rules.KindCycleDetected), 1)
}
