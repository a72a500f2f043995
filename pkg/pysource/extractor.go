package pysource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Node types of the tree-sitter Python grammar the extractor cares about.
const (
	nodeImport         = "import_statement"
	nodeImportFrom     = "import_from_statement"
	nodeFutureImport   = "future_import_statement"
	nodeDottedName     = "dotted_name"
	nodeAliasedImport  = "aliased_import"
	nodeRelativeImport = "relative_import"
	nodeWildcardImport = "wildcard_import"
	nodeError          = "ERROR"
)

// Sentinel errors for extraction.
var (
	errPoolType   = errors.New("unexpected parser pool entry type")
	errNoRootNode = errors.New("parse produced no root node")
)

// Extractor parses Python source and extracts imports. It is safe for
// concurrent use; tree-sitter parsers are pooled per goroutine.
type Extractor struct {
	pool sync.Pool
}

// NewExtractor creates an Extractor with the Python grammar loaded.
func NewExtractor() *Extractor {
	lang := sitter.NewLanguage(python.GetLanguage())

	return &Extractor{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Extract parses one source unit and returns its module record. On a syntax
// error the module record is still returned (so the unit stays a node in the
// dependency graph) together with a *SyntaxError; its imports are dropped.
func (e *Extractor) Extract(relPath string, content []byte) (*Module, error) {
	name, isPackage, ok := ModuleNameFromPath(relPath)
	if !ok {
		name = strings.TrimSuffix(relPath, ".py")
	}

	mod := &Module{
		Name:      name,
		Path:      relPath,
		IsPackage: isPackage,
	}

	tsParser, poolOK := e.pool.Get().(*sitter.Parser)
	if !poolOK {
		return nil, errPoolType
	}

	defer e.pool.Put(tsParser)

	tree, err := tsParser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("parse %s: %w", relPath, errNoRootNode)
	}

	if line, broken := firstSyntaxError(root); broken {
		return mod, &SyntaxError{Path: relPath, Line: line}
	}

	walkImports(root, content, mod)

	return mod, nil
}

// firstSyntaxError scans the tree for ERROR nodes and returns the line of the
// earliest one.
func firstSyntaxError(root sitter.Node) (int, bool) {
	stack := []sitter.Node{root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Type() == nodeError {
			return int(n.StartPoint().Row) + 1, true
		}

		// Push children in reverse so the earliest node in source order is
		// visited first.
		for idx := n.NamedChildCount(); idx > 0; idx-- {
			stack = append(stack, n.NamedChild(idx-1))
		}
	}

	return 0, false
}

// walkImports traverses the whole tree so imports nested inside functions,
// conditionals and try blocks are found too.
func walkImports(root sitter.Node, content []byte, mod *Module) {
	stack := []sitter.Node{root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n.Type() {
		case nodeImport:
			extractImport(n, content, mod)
		case nodeImportFrom:
			extractImportFrom(n, content, mod)
		case nodeFutureImport:
			// `from __future__ import ...` never targets project code.
		default:
			for idx := n.NamedChildCount(); idx > 0; idx-- {
				stack = append(stack, n.NamedChild(idx-1))
			}
		}
	}
}

// extractImport handles `import a.b, c as d`.
func extractImport(stmt sitter.Node, content []byte, mod *Module) {
	for idx := range stmt.NamedChildCount() {
		child := stmt.NamedChild(idx)

		var target string

		switch child.Type() {
		case nodeDottedName:
			target = nodeText(child, content)
		case nodeAliasedImport:
			nameNode := child.ChildByFieldName("name")
			if nameNode.IsNull() {
				continue
			}

			target = nodeText(nameNode, content)
		default:
			continue
		}

		mod.addImport(target, lineOf(child), false)
	}
}

// extractImportFrom handles `from X import a, b as c` and the relative forms
// `from . import x` / `from ..pkg import y`. It emits an edge to X and a
// FromName candidate edge to X.<name> for every imported name, since a name
// may refer to a submodule.
func extractImportFrom(stmt sitter.Node, content []byte, mod *Module) {
	if stmt.NamedChildCount() == 0 {
		return
	}

	modNode := stmt.NamedChild(0)

	var (
		base string
		ok   bool
	)

	switch modNode.Type() {
	case nodeRelativeImport:
		base, ok = resolveRelativeNode(modNode, content, mod)
	case nodeDottedName:
		base, ok = nodeText(modNode, content), true
	default:
		return
	}

	if !ok || base == "" {
		return
	}

	mod.addImport(base, lineOf(stmt), false)

	for idx := range stmt.NamedChildCount() {
		if idx == 0 {
			continue
		}

		nameNode := stmt.NamedChild(idx)

		var name string

		switch nameNode.Type() {
		case nodeDottedName:
			name = nodeText(nameNode, content)
		case nodeAliasedImport:
			inner := nameNode.ChildByFieldName("name")
			if inner.IsNull() {
				continue
			}

			name = nodeText(inner, content)
		case nodeWildcardImport:
			continue
		default:
			continue
		}

		mod.addImport(base+"."+name, lineOf(nameNode), true)
	}
}

// resolveRelativeNode turns a relative_import node ("..pkg") into an absolute
// dotted name relative to the importing module.
func resolveRelativeNode(n sitter.Node, content []byte, mod *Module) (string, bool) {
	text := nodeText(n, content)

	dots := 0
	for dots < len(text) && text[dots] == '.' {
		dots++
	}

	if dots == 0 {
		return "", false
	}

	suffix := text[dots:]

	return resolveRelative(dots, suffix, mod)
}

// addImport appends an import, dropping self-imports (a module importing its
// own name is not an edge, not a cycle, not a violation).
func (m *Module) addImport(target string, line int, fromName bool) {
	if target == "" || target == m.Name {
		return
	}

	m.Imports = append(m.Imports, Import{Target: target, Line: line, FromName: fromName})
}

func nodeText(n sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start >= end || int(end) > len(content) {
		return ""
	}

	return string(content[start:end])
}

func lineOf(n sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
