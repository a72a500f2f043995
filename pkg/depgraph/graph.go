// Package depgraph builds the module-level dependency graph of a scanned
// source tree, with both endpoints of every edge resolved to their declared
// layer. Nodes are modules; layer ranks drive the direction rule, while the
// retained module edges carry the file/line detail diagnostics need.
package depgraph

import (
	"sort"
	"strings"

	"github.com/layerlint/layerlint/pkg/layers"
	"github.com/layerlint/layerlint/pkg/pysource"
)

// Node is one module in the graph.
type Node struct {
	// Name is the dotted module name.
	Name string
	// Path is the root-relative file path.
	Path string
	// Layer is the resolved layer, nil for unassigned modules.
	Layer *layers.Layer
}

// Edge is a retained module-level import edge.
type Edge struct {
	From int
	To   int
	// Line is the source line of the first import creating this edge.
	Line int
}

// UnresolvedRef is an import that targets the project namespace but resolves
// to no file in the tree (a typo or a deleted module).
type UnresolvedRef struct {
	FromPath string
	Line     int
	Target   string
}

// Graph is the built dependency graph. It is recomputed fresh on every run;
// nothing persists between invocations.
type Graph struct {
	syms       *SymbolTable
	nodes      []Node
	adj        [][]int
	edges      []Edge
	unresolved []UnresolvedRef
}

// Build constructs the graph from extracted modules. Modules must already be
// in a stable order (the scanner sorts by path) so edge and finding order is
// reproducible. Imports whose target is no in-tree module are either dropped
// (external imports, from-name attribute candidates, namespace-package bases)
// or recorded as unresolved refs when they live under a project root package.
func Build(modules []*pysource.Module, registry *layers.Registry) *Graph {
	g := &Graph{syms: NewSymbolTable()}

	for _, mod := range modules {
		id := g.syms.Intern(mod.Name)
		if id == len(g.nodes) {
			g.nodes = append(g.nodes, Node{
				Name:  mod.Name,
				Path:  mod.Path,
				Layer: registry.Resolve(mod.Path),
			})
		}
	}

	roots := make(map[string]struct{}, len(g.nodes))
	for _, n := range g.nodes {
		root, _, _ := strings.Cut(n.Name, ".")
		roots[root] = struct{}{}
	}

	seen := make(map[[2]int]struct{})

	for _, mod := range modules {
		from, _ := g.syms.ID(mod.Name)

		for _, imp := range mod.Imports {
			to, resolved := g.resolveTarget(imp)
			if !resolved {
				if !imp.FromName && !g.isNamespacePrefix(imp.Target) {
					if root, _, _ := strings.Cut(imp.Target, "."); rootInTree(roots, root) {
						g.unresolved = append(g.unresolved, UnresolvedRef{
							FromPath: mod.Path,
							Line:     imp.Line,
							Target:   imp.Target,
						})
					}
				}

				continue
			}

			if to == from {
				continue
			}

			key := [2]int{from, to}
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
			g.edges = append(g.edges, Edge{From: from, To: to, Line: imp.Line})
		}
	}

	g.adj = make([][]int, len(g.nodes))
	for _, e := range g.edges {
		g.adj[e.From] = append(g.adj[e.From], e.To)
	}

	return g
}

// resolveTarget maps an import target to an in-tree module ID.
func (g *Graph) resolveTarget(imp pysource.Import) (int, bool) {
	id, ok := g.syms.ID(imp.Target)

	return id, ok
}

// isNamespacePrefix reports whether target names a package directory without
// a module file of its own: some in-tree module lives strictly below it.
// Importing such a namespace package carries no code dependency by itself.
func (g *Graph) isNamespacePrefix(target string) bool {
	prefix := target + "."
	for _, n := range g.nodes {
		if strings.HasPrefix(n.Name, prefix) {
			return true
		}
	}

	return false
}

func rootInTree(roots map[string]struct{}, root string) bool {
	_, ok := roots[root]

	return ok
}

// Nodes returns the graph's modules indexed by ID.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns the retained module-level edges in build order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Unresolved returns the project-namespace imports with no in-tree target.
func (g *Graph) Unresolved() []UnresolvedRef {
	return g.unresolved
}

// Node returns the node for an ID.
func (g *Graph) Node(id int) Node {
	return g.nodes[id]
}

// EdgeLine returns the line of the retained edge from one module to another.
func (g *Graph) EdgeLine(from, to int) (int, bool) {
	for _, e := range g.edges {
		if e.From == from && e.To == to {
			return e.Line, true
		}
	}

	return 0, false
}

// LayerEdge is an aggregated layer-to-layer dependency.
type LayerEdge struct {
	From  *layers.Layer
	To    *layers.Layer
	Count int
}

// LayerEdges aggregates the module edges whose endpoints both resolved to a
// layer, ordered by (from rank, to rank). Same-layer edges are included.
func (g *Graph) LayerEdges() []LayerEdge {
	type key struct{ from, to string }

	counts := make(map[key]*LayerEdge)

	for _, e := range g.edges {
		fromLayer, toLayer := g.nodes[e.From].Layer, g.nodes[e.To].Layer
		if fromLayer == nil || toLayer == nil {
			continue
		}

		k := key{fromLayer.Name, toLayer.Name}
		if agg, ok := counts[k]; ok {
			agg.Count++

			continue
		}

		counts[k] = &LayerEdge{From: fromLayer, To: toLayer, Count: 1}
	}

	out := make([]LayerEdge, 0, len(counts))
	for _, agg := range counts {
		out = append(out, *agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].From.Rank != out[j].From.Rank {
			return out[i].From.Rank < out[j].From.Rank
		}

		return out[i].To.Rank < out[j].To.Rank
	})

	return out
}
