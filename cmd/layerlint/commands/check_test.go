package commands_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerlint/layerlint/cmd/layerlint/commands"
)

const layersYAML = `
layers:
  api:
    rank: 2
    paths: [app/api]
  core:
    rank: 1
    paths: [app/core]
  utils:
    rank: 0
    paths: [app/utils]
`

// writeProject materializes a layer file plus source files under a temp dir
// and returns the root and the layer file path.
func writeProject(t *testing.T, files map[string]string) (string, string) {
	t.Helper()

	root := t.TempDir()

	layersPath := filepath.Join(root, "layers.yaml")
	require.NoError(t, os.WriteFile(layersPath, []byte(layersYAML), 0o600))

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return root, layersPath
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestCheckCleanTreeExitsZero(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/api/router.py":    "from app.core import service\n",
		"app/core/service.py":  "import app.utils.helpers\n",
		"app/utils/helpers.py": "import os\n",
	})

	out, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "Files analyzed")
	assert.NotContains(t, out, "UpwardImport")
}

func TestCheckUpwardImportFails(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/api/router.py":    "import os\n",
		"app/core/service.py":  "from app.api import router\n",
		"app/api/__init__.py":  "",
		"app/core/__init__.py": "",
	})

	out, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color")

	var exitErr *commands.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, commands.ExitViolations, exitErr.Code)

	assert.Contains(t, out, "error: UpwardImport: app/core/service.py:1:")
	assert.Contains(t, out, "dependencies must point downward")
}

func TestCheckJSONFormat(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/core/a.py": "import app.core.b\n",
		"app/core/b.py": "import app.core.a\n",
	})

	out, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--format", "json")

	var exitErr *commands.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, commands.ExitViolations, exitErr.Code)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "CycleDetected", records[0]["kind"])
}

func TestCheckParseErrorIsWarning(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/core/broken.py": "def broken(:\n",
		"app/core/good.py":   "import os\n",
	})

	out, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color")
	require.NoError(t, err, "warnings alone must not fail the run")

	assert.Contains(t, out, "warning: ParseError: app/core/broken.py:")
}

func TestCheckMissingLayersFileIsFatal(t *testing.T) {
	root, _ := writeProject(t, map[string]string{"app/core/a.py": "import os\n"})

	_, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", filepath.Join(root, "missing.yaml"))

	var exitErr *commands.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, commands.ExitFatal, exitErr.Code)
	assert.Error(t, errors.Unwrap(exitErr))
}

func TestCheckOutputFile(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/core/a.py": "import os\n",
	})

	reportPath := filepath.Join(t.TempDir(), "report.txt")

	_, err := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color", "--output", reportPath)
	require.NoError(t, err)

	content, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Files analyzed")
}

func TestCheckDeterministicOutput(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/core/s1.py":  "from app.api import r1\n",
		"app/core/s2.py":  "from app.api import r2\n",
		"app/api/r1.py":   "import os\n",
		"app/api/r2.py":   "import os\n",
		"scripts/tool.py": "import app.core.s1\n",
	})

	first, err1 := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color", "--workers", "8")
	second, err2 := runCommand(t, commands.NewCheckCommand(),
		root, "--config", layersPath, "--no-color", "--workers", "1")

	var exitErr *commands.ExitError
	require.ErrorAs(t, err1, &exitErr)
	require.ErrorAs(t, err2, &exitErr)

	assert.Equal(t, first, second)
}

func TestGraphWritesHTML(t *testing.T) {
	root, layersPath := writeProject(t, map[string]string{
		"app/api/router.py":   "from app.core import service\n",
		"app/core/service.py": "import os\n",
	})

	htmlPath := filepath.Join(t.TempDir(), "layers.html")

	_, err := runCommand(t, commands.NewGraphCommand(),
		root, "--config", layersPath, "--output", htmlPath)
	require.NoError(t, err)

	content, err := os.ReadFile(htmlPath)
	require.NoError(t, err)

	page := string(content)
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "api (rank 2)")
	assert.Contains(t, page, "core (rank 1)")
	assert.True(t, strings.Contains(page, "utils (rank 0)"), "layers without edges still render")
}
