package commands

import (
	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/report"
)

// GraphCommand holds configuration for the graph command.
type GraphCommand struct {
	layersPath string
	output     string
	workers    int
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	gc := &GraphCommand{}

	cmd := &cobra.Command{
		Use:   "graph [root]",
		Short: "Render the layer dependency graph as an HTML page",
		Long: "Scan the source tree rooted at [root] (default: current directory)\n" +
			"and render the aggregated layer-to-layer dependencies, highlighting\n" +
			"upward imports.",
		Args: cobra.MaximumNArgs(1),
		RunE: gc.run,
	}

	cmd.Flags().StringVarP(&gc.layersPath, "config", "c", "", "Layer registry definition file (default: layers.yaml)")
	cmd.Flags().StringVarP(&gc.output, "output", "o", "layers.html", "Output HTML file, or - for stdout")
	cmd.Flags().IntVar(&gc.workers, "workers", 0, "Number of parallel scan workers (0 = config value)")

	return cmd
}

func (gc *GraphCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if gc.layersPath != "" {
		cfg.Layers = gc.layersPath
	}

	if gc.workers > 0 {
		cfg.Scan.Workers = gc.workers
	}

	root := resolveRoot(args)

	_, graph, registry, err := analyzeTree(cmd, root, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if gc.output != "-" {
		file, closeOut, openErr := openOutput(out, gc.output)
		if openErr != nil {
			return fatal(openErr)
		}
		defer closeOut()

		out = file
	}

	if err := report.WriteGraphHTML(out, graph, registry.Layers(), root); err != nil {
		return fatal(err)
	}

	return nil
}
