// Package layers declares the layered-architecture registry: named tiers with
// strict ranks and the path prefixes that assign source modules to them.
package layers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for registry construction. All of them are configuration
// defects detected eagerly at registration, never at query time.
var (
	ErrEmptyLayerName = errors.New("layer name must not be empty")
	ErrNoPaths        = errors.New("layer must declare at least one path prefix")
	ErrDuplicateLayer = errors.New("layer name already registered")
	ErrDuplicateRank  = errors.New("rank already taken by another layer")
	ErrNegativeRank   = errors.New("rank must be non-negative")
	ErrAmbiguousPath  = errors.New("path prefix collides with another layer")
)

// Layer is a named tier with a rank. Lower rank means more foundational:
// a module may only import from layers at the same or lower rank.
type Layer struct {
	Name  string
	Rank  int
	Paths []string
}

// Registry holds the declared layers and resolves module paths to them.
// It is immutable after construction and safe for concurrent reads.
type Registry struct {
	byName map[string]*Layer
	byRank map[int]*Layer
	layers []*Layer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Layer),
		byRank: make(map[int]*Layer),
	}
}

// Register adds a layer. It fails when the name or rank is already taken, or
// when any path prefix overlaps a prefix of an already registered layer.
// Ambiguity is rejected here so Resolve never has to break ties.
func (r *Registry) Register(name string, rank int, paths []string) error {
	if name == "" {
		return ErrEmptyLayerName
	}

	if rank < 0 {
		return fmt.Errorf("%w: layer %q has rank %d", ErrNegativeRank, name, rank)
	}

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}

	if other, exists := r.byRank[rank]; exists {
		return fmt.Errorf("%w: layers %q and %q both have rank %d", ErrDuplicateRank, other.Name, name, rank)
	}

	normalized, err := r.normalizePaths(name, paths)
	if err != nil {
		return err
	}

	layer := &Layer{Name: name, Rank: rank, Paths: normalized}
	r.byName[name] = layer
	r.byRank[rank] = layer
	r.layers = append(r.layers, layer)

	sort.Slice(r.layers, func(i, j int) bool {
		return r.layers[i].Rank < r.layers[j].Rank
	})

	return nil
}

// normalizePaths cleans the configured prefixes and checks them against every
// prefix already registered, including the other entries of the same call.
func (r *Registry) normalizePaths(name string, paths []string) ([]string, error) {
	normalized := make([]string, 0, len(paths))

	for _, p := range paths {
		prefix := normalizePrefix(p)
		if prefix == "" {
			return nil, fmt.Errorf("%w: layer %q", ErrNoPaths, name)
		}

		for _, layer := range r.layers {
			for _, existing := range layer.Paths {
				if prefixesOverlap(prefix, existing) {
					return nil, fmt.Errorf("%w: %q (layer %q) overlaps %q (layer %q)",
						ErrAmbiguousPath, prefix, name, existing, layer.Name)
				}
			}
		}

		for _, sibling := range normalized {
			if prefixesOverlap(prefix, sibling) {
				return nil, fmt.Errorf("%w: %q (layer %q) overlaps %q (layer %q)",
					ErrAmbiguousPath, prefix, name, sibling, name)
			}
		}

		normalized = append(normalized, prefix)
	}

	if len(normalized) == 0 {
		return nil, fmt.Errorf("%w: layer %q", ErrNoPaths, name)
	}

	return normalized, nil
}

// Resolve returns the layer whose path prefix matches the given slash-separated
// module path, or nil when no prefix matches. Disjointness is enforced at
// registration, so at most one layer can match.
func (r *Registry) Resolve(modulePath string) *Layer {
	for _, layer := range r.layers {
		for _, prefix := range layer.Paths {
			if matchesPrefix(modulePath, prefix) {
				return layer
			}
		}
	}

	return nil
}

// Layers returns the registered layers ordered by rank ascending.
func (r *Registry) Layers() []*Layer {
	out := make([]*Layer, len(r.layers))
	copy(out, r.layers)

	return out
}

// Lookup returns the layer with the given name.
func (r *Registry) Lookup(name string) (*Layer, bool) {
	layer, ok := r.byName[name]

	return layer, ok
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	return len(r.layers)
}

// normalizePrefix strips glob-ish suffixes users tend to write ("core/**",
// "core/*", "core/") down to the plain prefix the matcher works with.
func normalizePrefix(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "/**")
	p = strings.TrimSuffix(p, "/*")
	p = strings.Trim(p, "/")

	return p
}

// matchesPrefix reports whether path equals prefix or starts with it at a
// path-segment boundary. "core" matches "core/config.py" but not "corelib/x.py".
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}

	return strings.HasPrefix(path, prefix+"/")
}

// prefixesOverlap reports whether two prefixes can both match some path, which
// happens exactly when one is a segment-boundary prefix of the other.
func prefixesOverlap(a, b string) bool {
	return matchesPrefix(a, b) || matchesPrefix(b, a)
}
