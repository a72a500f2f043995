package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/layerlint/layerlint/pkg/depgraph"
	"github.com/layerlint/layerlint/pkg/layers"
)

const (
	graphHeight     = "640px"
	nodeSymbolSize  = 46
	forceRepulsion  = 4000
	okEdgeColor     = "#7f8c8d"
	upwardEdgeColor = "#e74c3c"
	edgeWidth       = 2
)

// WriteGraphHTML renders the aggregated layer dependency graph as a
// self-contained HTML page. Edges that point upward in rank are drawn as a
// separate highlighted series.
func WriteGraphHTML(w io.Writer, graph *depgraph.Graph, all []*layers.Layer, title string) error {
	chart := charts.NewGraph()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "layerlint",
			Width:     "100%",
			Height:    graphHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Layer dependency graph",
			Subtitle: title,
		}),
	)

	nodes, okLinks, upwardLinks := buildGraphSeries(graph, all)

	chart.AddSeries("dependencies", nodes, okLinks,
		charts.WithGraphChartOpts(opts.GraphChart{
			Force:      &opts.GraphForce{Repulsion: forceRepulsion},
			Roam:       opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: okEdgeColor, Width: edgeWidth}),
	)

	if len(upwardLinks) > 0 {
		chart.AddSeries("upward imports", nodes, upwardLinks,
			charts.WithGraphChartOpts(opts.GraphChart{
				Force:      &opts.GraphForce{Repulsion: forceRepulsion},
				Roam:       opts.Bool(true),
				EdgeSymbol: []string{"none", "arrow"},
			}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: upwardEdgeColor, Width: edgeWidth}),
		)
	}

	if err := chart.Render(w); err != nil {
		return fmt.Errorf("render graph page: %w", err)
	}

	return nil
}

// buildGraphSeries turns the aggregated layer edges into chart nodes and two
// link sets, allowed versus upward.
func buildGraphSeries(graph *depgraph.Graph, all []*layers.Layer) ([]opts.GraphNode, []opts.GraphLink, []opts.GraphLink) {
	var (
		nodes   []opts.GraphNode
		seen    = make(map[string]struct{})
		ok      []opts.GraphLink
		upward  []opts.GraphLink
		addNode = func(name string, rank int) {
			if _, dup := seen[name]; dup {
				return
			}

			seen[name] = struct{}{}
			nodes = append(nodes, opts.GraphNode{
				Name:       fmt.Sprintf("%s (rank %d)", name, rank),
				SymbolSize: nodeSymbolSize,
			})
		}
	)

	for _, layer := range all {
		addNode(layer.Name, layer.Rank)
	}

	for _, edge := range graph.LayerEdges() {
		addNode(edge.From.Name, edge.From.Rank)
		addNode(edge.To.Name, edge.To.Rank)

		link := opts.GraphLink{
			Source: fmt.Sprintf("%s (rank %d)", edge.From.Name, edge.From.Rank),
			Target: fmt.Sprintf("%s (rank %d)", edge.To.Name, edge.To.Rank),
			Value:  float32(edge.Count),
		}

		if edge.To.Rank > edge.From.Rank {
			upward = append(upward, link)
		} else {
			ok = append(ok, link)
		}
	}

	return nodes, ok, upward
}
