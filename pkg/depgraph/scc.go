package depgraph

import "sort"

// SCCs returns every strongly connected component with more than one module,
// using an iterative Tarjan so deep trees cannot blow the goroutine stack.
// Components and their members are ordered by module path, so the output is
// stable for identical input. Self-loops cannot occur: self-imports are
// dropped at extraction and Build skips same-node edges.
func (g *Graph) SCCs() [][]int {
	n := len(g.nodes)

	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)

	for i := range index {
		index[i] = unvisited
	}

	var (
		counter int
		stack   []int
		comps   [][]int
	)

	type frame struct {
		node  int
		child int
	}

	for start := range n {
		if index[start] != unvisited {
			continue
		}

		callStack := []frame{{node: start}}

		index[start] = counter
		lowlink[start] = counter
		counter++

		stack = append(stack, start)
		onStack[start] = true

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]
			v := top.node

			if top.child < len(g.adj[v]) {
				w := g.adj[v][top.child]
				top.child++

				if index[w] == unvisited {
					index[w] = counter
					lowlink[w] = counter
					counter++

					stack = append(stack, w)
					onStack[w] = true

					callStack = append(callStack, frame{node: w})
				} else if onStack[w] && index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}

				continue
			}

			callStack = callStack[:len(callStack)-1]

			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].node
				if lowlink[v] < lowlink[parent] {
					lowlink[parent] = lowlink[v]
				}
			}

			if lowlink[v] != index[v] {
				continue
			}

			var comp []int

			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false

				comp = append(comp, w)
				if w == v {
					break
				}
			}

			if len(comp) > 1 {
				sort.Slice(comp, func(i, j int) bool {
					return g.nodes[comp[i]].Path < g.nodes[comp[j]].Path
				})

				comps = append(comps, comp)
			}
		}
	}

	sort.Slice(comps, func(i, j int) bool {
		return g.nodes[comps[i][0]].Path < g.nodes[comps[j][0]].Path
	})

	return comps
}

// CyclePath orders a component's members as a followable import chain,
// starting from the module with the smallest path and greedily taking the
// smallest-path in-component successor. When the component is not one simple
// cycle the remaining members are appended in path order, which keeps the
// output deterministic.
func (g *Graph) CyclePath(comp []int) []int {
	if len(comp) == 0 {
		return nil
	}

	inComp := make(map[int]bool, len(comp))
	for _, id := range comp {
		inComp[id] = true
	}

	visited := make(map[int]bool, len(comp))
	path := []int{comp[0]}
	visited[comp[0]] = true

	current := comp[0]

	for len(path) < len(comp) {
		next := -1

		for _, w := range g.adj[current] {
			if !inComp[w] || visited[w] {
				continue
			}

			if next == -1 || g.nodes[w].Path < g.nodes[next].Path {
				next = w
			}
		}

		if next == -1 {
			break
		}

		visited[next] = true
		path = append(path, next)
		current = next
	}

	for _, id := range comp {
		if !visited[id] {
			path = append(path, id)
		}
	}

	return path
}
