// Package commands implements CLI command handlers for layerlint.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/layerlint/layerlint/internal/config"
	"github.com/layerlint/layerlint/internal/report"
	"github.com/layerlint/layerlint/internal/rules"
	"github.com/layerlint/layerlint/internal/scan"
	"github.com/layerlint/layerlint/pkg/depgraph"
	"github.com/layerlint/layerlint/pkg/layers"
)

// Exit codes of the layerlint process.
const (
	ExitOK         = report.ExitOK
	ExitViolations = report.ExitViolations
	ExitFatal      = report.ExitFatal
)

// ExitError carries the process exit code out of a command. A nil Err means
// the command already produced its output and only the code matters.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}

	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// fatal wraps an error as a fatal-exit ExitError.
func fatal(err error) *ExitError {
	return &ExitError{Code: ExitFatal, Err: err}
}

// CheckCommand holds configuration and dependencies for the check command.
type CheckCommand struct {
	layersPath string
	format     string
	output     string
	workers    int
	noColor    bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cc := &CheckCommand{}

	cmd := &cobra.Command{
		Use:   "check [root]",
		Short: "Scan a Python source tree and report layering violations",
		Long: "Scan the source tree rooted at [root] (default: current directory),\n" +
			"build its import graph and check it against the declared layers.",
		Args: cobra.MaximumNArgs(1),
		RunE: cc.run,
	}

	cc.registerFlags(cmd)

	return cmd
}

func (cc *CheckCommand) registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cc.layersPath, "config", "c", "", "Layer registry definition file (default: layers.yaml)")
	cmd.Flags().StringVar(&cc.format, "format", "", "Output format: text, json (overrides config)")
	cmd.Flags().StringVarP(&cc.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().IntVar(&cc.workers, "workers", 0, "Number of parallel scan workers (0 = config value)")
	cmd.Flags().BoolVar(&cc.noColor, "no-color", false, "Disable colored output")
}

func (cc *CheckCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cc.applyOverrides(cmd, cfg)

	result, graph, registry, err := analyzeTree(cmd, resolveRoot(args), cfg)
	if err != nil {
		return err
	}

	violations := rules.Check(graph)
	for _, failure := range result.Failures {
		violations = append(violations, rules.NewParseError(failure.Path, failure.Line, failure.Err.Error()))
	}

	reporter, err := report.New(report.Format(cfg.Report.Format), cfg.Report.NoColor)
	if err != nil {
		return fatal(err)
	}

	out, closeOut, err := openOutput(cmd.OutOrStdout(), cc.output)
	if err != nil {
		return fatal(err)
	}
	defer closeOut()

	code, err := reporter.Write(out, violations, report.Summary{
		FilesScanned: result.FilesScanned,
		ModuleCount:  len(graph.Nodes()),
		LayerCount:   len(registry.Layers()),
	})
	if err != nil {
		return fatal(err)
	}

	if code != ExitOK {
		return &ExitError{Code: code}
	}

	return nil
}

// applyOverrides folds the explicitly set flags into the loaded config, so
// flags beat file and environment settings.
func (cc *CheckCommand) applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cc.layersPath != "" {
		cfg.Layers = cc.layersPath
	}

	if cc.format != "" {
		cfg.Report.Format = cc.format
	}

	if cc.workers > 0 {
		cfg.Scan.Workers = cc.workers
	}

	if cmd.Flags().Changed("no-color") {
		cfg.Report.NoColor = cc.noColor
	}
}

func resolveRoot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return "."
}

// loadConfig loads the ambient tool config (.layerlint.yaml in CWD or $HOME,
// plus LAYERLINT_ env vars), mapping failures to a fatal exit. The layer
// registry file named by --config is loaded separately.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fatal(err)
	}

	return cfg, nil
}

// analyzeTree runs the shared scan-and-build pipeline of check and graph.
func analyzeTree(cmd *cobra.Command, root string, cfg *config.Config) (*scan.Result, *depgraph.Graph, *layers.Registry, error) {
	registry, err := layers.LoadFile(cfg.Layers)
	if err != nil {
		return nil, nil, nil, fatal(fmt.Errorf("load layers: %w", err))
	}

	scanner := scan.NewScanner(cfg.Scan.Workers, int64(cfg.Scan.MaxFileSize))

	result, err := scanner.Scan(cmd.Context(), root)
	if err != nil {
		return nil, nil, nil, fatal(err)
	}

	return result, depgraph.Build(result.Modules, registry), registry, nil
}

// openOutput returns the report writer: the given default, or the named file.
func openOutput(def io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return def, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}
