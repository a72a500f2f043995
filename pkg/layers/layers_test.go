package layers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerlint/layerlint/pkg/layers"
)

func TestRegisterAndResolve(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("core", 0, []string{"ai_agents/core"}))
	require.NoError(t, registry.Register("utils", 1, []string{"ai_agents/utils"}))
	require.NoError(t, registry.Register("api", 2, []string{"ai_agents/api"}))

	layer := registry.Resolve("ai_agents/core/config.py")
	require.NotNil(t, layer)
	assert.Equal(t, "core", layer.Name)
	assert.Equal(t, 0, layer.Rank)

	assert.Nil(t, registry.Resolve("ai_agents/unmapped/z.py"))
	assert.Nil(t, registry.Resolve("ai_agents/corelib/x.py"), "prefix must match at segment boundary")
}

func TestRegisterDuplicateName(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("core", 0, []string{"core"}))

	err := registry.Register("core", 1, []string{"other"})
	assert.ErrorIs(t, err, layers.ErrDuplicateLayer)
}

func TestRegisterDuplicateRank(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("core", 0, []string{"core"}))

	err := registry.Register("utils", 0, []string{"utils"})
	assert.ErrorIs(t, err, layers.ErrDuplicateRank)
}

func TestRegisterAmbiguousPrefix(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("core", 0, []string{"app/core"}))

	// A prefix nested under another layer's prefix would make resolution
	// ambiguous, so registration must fail eagerly.
	err := registry.Register("utils", 1, []string{"app/core/helpers"})
	assert.ErrorIs(t, err, layers.ErrAmbiguousPath)

	err = registry.Register("all", 2, []string{"app"})
	assert.ErrorIs(t, err, layers.ErrAmbiguousPath)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	assert.ErrorIs(t, registry.Register("", 0, []string{"x"}), layers.ErrEmptyLayerName)
	assert.ErrorIs(t, registry.Register("core", 0, nil), layers.ErrNoPaths)
	assert.ErrorIs(t, registry.Register("core", -1, []string{"x"}), layers.ErrNegativeRank)
}

func TestRegisterNormalizesGlobSuffixes(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("api", 0, []string{"app/api/**"}))

	layer := registry.Resolve("app/api/router.py")
	require.NotNil(t, layer)
	assert.Equal(t, "api", layer.Name)
}

func TestLayersOrderedByRank(t *testing.T) {
	t.Parallel()

	registry := layers.NewRegistry()
	require.NoError(t, registry.Register("api", 5, []string{"api"}))
	require.NoError(t, registry.Register("core", 0, []string{"core"}))
	require.NoError(t, registry.Register("stores", 2, []string{"stores"}))

	names := make([]string, 0, registry.Len())
	for _, layer := range registry.Layers() {
		names = append(names, layer.Name)
	}

	assert.Equal(t, []string{"core", "stores", "api"}, names)
}

func TestLoadFileYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "layers.yaml", `
layers:
  core:
    rank: 0
    paths: ["ai_agents/core"]
  utils:
    rank: 1
    paths: ["ai_agents/utils"]
  api:
    rank: 2
    paths: ["ai_agents/api"]
`)

	registry, err := layers.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, registry.Len())

	layer := registry.Resolve("ai_agents/utils/logger.py")
	require.NotNil(t, layer)
	assert.Equal(t, "utils", layer.Name)
}

func TestLoadFileJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "layers.json", `{
  "layers": {
    "core": {"rank": 0, "paths": ["core"]},
    "api": {"rank": 1, "paths": ["api"]}
  }
}`)

	registry, err := layers.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())
}

func TestLoadFileJSONSchemaViolation(t *testing.T) {
	t.Parallel()

	// "paths" must be an array of strings.
	path := writeFile(t, "layers.json", `{
  "layers": {
    "core": {"rank": 0, "paths": "core"}
  }
}`)

	_, err := layers.LoadFile(path)
	assert.ErrorIs(t, err, layers.ErrSchema)
}

func TestLoadFileMissingRank(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "layers.yaml", `
layers:
  core:
    paths: ["core"]
`)

	_, err := layers.LoadFile(path)
	assert.ErrorIs(t, err, layers.ErrMissingRank)
}

func TestLoadFileDuplicateRankIsDeterministic(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "layers.yaml", `
layers:
  core:
    rank: 0
    paths: ["core"]
  utils:
    rank: 0
    paths: ["utils"]
`)

	// Registration happens in (rank, name) order, so the collision always
	// reports the same pair no matter the map iteration order.
	for range 5 {
		_, err := layers.LoadFile(path)
		require.ErrorIs(t, err, layers.ErrDuplicateRank)
		assert.Contains(t, err.Error(), `"core"`)
		assert.Contains(t, err.Error(), `"utils"`)
	}
}

func TestLoadFileEmpty(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "layers.yaml", "layers: {}\n")

	_, err := layers.LoadFile(path)
	assert.ErrorIs(t, err, layers.ErrNoLayers)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := layers.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
