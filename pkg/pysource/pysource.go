// Package pysource parses Python source units with tree-sitter and extracts
// their import statements as (target module, line) pairs, with relative
// imports resolved against the unit's own dotted name.
package pysource

import (
	"fmt"
	"path"
	"strings"
)

// Import is one extracted import statement target.
type Import struct {
	// Target is the absolute dotted module name the statement refers to,
	// with relative forms already resolved.
	Target string
	// Line is the 1-based source line of the statement.
	Line int
	// FromName marks a `from X import Y` candidate X.Y: Y may name a
	// submodule (a real dependency) or a plain attribute. The graph builder
	// keeps the edge only when X.Y is an in-tree module and discards it
	// silently otherwise.
	FromName bool
}

// Module is a parsed source unit.
type Module struct {
	// Name is the fully-qualified dotted module name ("ai_agents.core.config").
	Name string
	// Path is the root-relative, slash-separated file path.
	Path string
	// IsPackage is true for package __init__ files.
	IsPackage bool
	// Imports holds the extracted imports in source order.
	Imports []Import
}

// SyntaxError reports a source unit that tree-sitter could not parse cleanly.
// It is recoverable: the run records it and continues with other units.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: syntax error", e.Path, e.Line)
}

// ModuleNameFromPath derives the dotted module name for a root-relative,
// slash-separated file path. Package __init__ files map to their package name.
// ok is false for paths that do not correspond to an importable module name,
// such as a root-level __init__.py.
func ModuleNameFromPath(relPath string) (name string, isPackage bool, ok bool) {
	trimmed := strings.TrimSuffix(relPath, ".py")

	if path.Base(trimmed) == "__init__" {
		dir := path.Dir(trimmed)
		if dir == "." || dir == "/" {
			return "", true, false
		}

		return strings.ReplaceAll(dir, "/", "."), true, true
	}

	if trimmed == "" || trimmed == "." {
		return "", false, false
	}

	return strings.ReplaceAll(trimmed, "/", "."), false, true
}

// resolveRelative resolves a relative import (`from .x import y` has one dot
// and suffix "x") against the importing module. The base package is the
// module's own package: the module itself for __init__ files, its parent
// otherwise. Each dot beyond the first climbs one more package. ok is false
// when the import climbs past the tree root.
func resolveRelative(dots int, suffix string, mod *Module) (string, bool) {
	base := strings.Split(mod.Name, ".")
	if !mod.IsPackage {
		base = base[:len(base)-1]
	}

	up := dots - 1
	if up > len(base) {
		return "", false
	}

	base = base[:len(base)-up]

	parts := base
	if suffix != "" {
		parts = append(append([]string{}, base...), strings.Split(suffix, ".")...)
	}

	if len(parts) == 0 {
		return "", false
	}

	return strings.Join(parts, "."), true
}
