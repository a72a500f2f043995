// Package scan walks a source tree, picks out the Python source units and
// extracts their imports over a bounded worker pool.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/src-d/enry/v2"

	"github.com/layerlint/layerlint/pkg/pysource"
)

const (
	// DefaultWorkers bounds the extraction pool when no worker count is
	// configured.
	DefaultWorkers = 4
	// DefaultMaxFileSize is the file size threshold; bigger files are
	// skipped (generated fixtures, vendored blobs).
	DefaultMaxFileSize = 1 << 20

	pythonLanguage = "Python"
	sniffLen       = 512
)

// ErrUnreadableRoot means the tree itself could not be read; this is fatal
// to the run, unlike a single unreadable file.
var ErrUnreadableRoot = errors.New("source tree is not readable")

// Directories that never hold first-party source.
var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".tox":         {},
	".venv":        {},
	"venv":         {},
	".mypy_cache":  {},
	"__pycache__":  {},
	"node_modules": {},
}

// ParseFailure records a source unit that could not be parsed. The run keeps
// going; the failure is surfaced in the final report.
type ParseFailure struct {
	Path string
	Line int
	Err  error
}

// Result is the deterministic outcome of one tree scan.
type Result struct {
	// Modules is sorted by path regardless of worker scheduling.
	Modules []*pysource.Module
	// Failures is sorted by path.
	Failures []ParseFailure
	// FilesScanned counts the candidate files handed to the extractor.
	FilesScanned int
}

// Scanner extracts imports from every Python unit under a root.
type Scanner struct {
	extractor   *pysource.Extractor
	log         *slog.Logger
	workers     int
	maxFileSize int64
}

// NewScanner creates a Scanner. Zero workers or size fall back to defaults.
func NewScanner(workers int, maxFileSize int64) *Scanner {
	if workers < 1 {
		workers = DefaultWorkers
	}

	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	return &Scanner{
		extractor:   pysource.NewExtractor(),
		log:         slog.Default(),
		workers:     workers,
		maxFileSize: maxFileSize,
	}
}

// Scan walks root, extracts imports from each candidate file in parallel and
// returns the results in stable path order. Extraction for one unit never
// depends on another unit's content, so the pool introduces no ordering
// hazards beyond the final merge, which happens under one mutex and is
// re-sorted afterwards.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	files, err := s.collectFiles(root)
	if err != nil {
		return nil, err
	}

	result := &Result{FilesScanned: len(files)}
	jobs := make(chan string, s.workers)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	wg.Add(s.workers)

	for range s.workers {
		go func() {
			defer wg.Done()

			for relPath := range jobs {
				mod, failure := s.extractOne(root, relPath)

				mu.Lock()

				if mod != nil {
					result.Modules = append(result.Modules, mod)
				}

				if failure != nil {
					result.Failures = append(result.Failures, *failure)
				}

				mu.Unlock()
			}
		}()
	}

	for _, relPath := range files {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()

			return nil, ctx.Err()
		case jobs <- relPath:
		}
	}

	close(jobs)
	wg.Wait()

	sort.Slice(result.Modules, func(i, j int) bool {
		return result.Modules[i].Path < result.Modules[j].Path
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Path < result.Failures[j].Path
	})

	return result, nil
}

// extractOne reads and parses a single unit. A syntax error still yields the
// module record so the unit stays in the graph.
func (s *Scanner) extractOne(root, relPath string) (*pysource.Module, *ParseFailure) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		s.log.Warn("skipping unreadable file", "path", relPath, "err", err)

		return nil, &ParseFailure{Path: relPath, Line: 1, Err: err}
	}

	mod, err := s.extractor.Extract(relPath, data)
	if err != nil {
		var syntaxErr *pysource.SyntaxError
		if errors.As(err, &syntaxErr) {
			return mod, &ParseFailure{Path: relPath, Line: syntaxErr.Line, Err: err}
		}

		return nil, &ParseFailure{Path: relPath, Line: 1, Err: err}
	}

	return mod, nil
}

// collectFiles walks the tree once and returns the candidate files as sorted
// root-relative slash paths.
func (s *Scanner) collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableRoot, root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnreadableRoot, root)
	}

	var files []string

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			s.log.Warn("skipping unreadable entry", "path", path, "err", err)

			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}

			name := d.Name()
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			return nil
		}

		if enry.IsVendor(rel) {
			return nil
		}

		if !s.isCandidate(path, d) {
			return nil
		}

		files = append(files, rel)

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableRoot, walkErr)
	}

	sort.Strings(files)

	return files, nil
}

// isCandidate keeps .py files plus extensionless scripts that language-detect
// as Python (shebang entry points). Oversized files are dropped with a log
// line rather than a finding.
func (s *Scanner) isCandidate(path string, d fs.DirEntry) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}

	if info.Size() > s.maxFileSize {
		s.log.Warn("skipping oversized file", "path", path, "size", info.Size())

		return false
	}

	name := d.Name()
	if strings.HasSuffix(name, ".py") {
		return true
	}

	if strings.Contains(name, ".") {
		return false
	}

	head := make([]byte, sniffLen)

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	n, _ := f.Read(head)

	return enry.GetLanguage(name, head[:n]) == pythonLanguage
}
