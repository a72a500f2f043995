package layers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed layers-schema.json
var layersSchema []byte

// Sentinel errors for registry file loading.
var (
	ErrNoLayers     = errors.New("config declares no layers")
	ErrMissingRank  = errors.New("layer is missing a rank")
	ErrSchema       = errors.New("config does not match schema")
	ErrConfigFormat = errors.New("unsupported config format")
)

// layerSpec mirrors one layer entry in the registry config file.
// Rank is a pointer so a missing rank is distinguishable from rank 0.
type layerSpec struct {
	Rank  *int     `yaml:"rank" json:"rank"`
	Paths []string `yaml:"paths" json:"paths"`
}

// fileConfig mirrors the registry config file:
// layers: {<name>: {rank: <int>, paths: [<prefix>, ...]}}.
type fileConfig struct {
	Layers map[string]layerSpec `yaml:"layers" json:"layers"`
}

// LoadFile reads a layer registry definition from a YAML or JSON file and
// builds the Registry. JSON files are validated against the embedded schema
// before decoding. Any failure here is a configuration defect: the caller
// must abort before analysis starts.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layer config: %w", err)
	}

	var cfg fileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := validateJSON(data); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse layer config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse layer config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrConfigFormat, filepath.Ext(path))
	}

	return buildRegistry(cfg)
}

// validateJSON checks a JSON config document against the embedded schema.
func validateJSON(data []byte) error {
	schema := gojsonschema.NewBytesLoader(layersSchema)
	document := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return fmt.Errorf("validate layer config: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		details = append(details, verr.String())
	}

	sort.Strings(details)

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(details, "; "))
}

// buildRegistry registers the declared layers in rank order so collision
// errors are deterministic regardless of map iteration order.
func buildRegistry(cfg fileConfig) (*Registry, error) {
	if len(cfg.Layers) == 0 {
		return nil, ErrNoLayers
	}

	names := make([]string, 0, len(cfg.Layers))
	for name := range cfg.Layers {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := cfg.Layers[names[i]], cfg.Layers[names[j]]
		if a.Rank != nil && b.Rank != nil && *a.Rank != *b.Rank {
			return *a.Rank < *b.Rank
		}

		return names[i] < names[j]
	})

	registry := NewRegistry()

	for _, name := range names {
		spec := cfg.Layers[name]
		if spec.Rank == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingRank, name)
		}

		if err := registry.Register(name, *spec.Rank, spec.Paths); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
