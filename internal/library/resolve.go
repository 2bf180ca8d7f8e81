package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Failure describes one song name that did not resolve to exactly one file.
type Failure struct {
	Name       string
	Candidates []string
}

// ResolutionError lists every song name that matched zero or several files.
type ResolutionError struct {
	Root     string
	Failures []Failure
}

func (e *ResolutionError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if len(f.Candidates) == 0 {
			parts = append(parts, fmt.Sprintf("%q: no matching file", f.Name))
			continue
		}
		parts = append(parts, fmt.Sprintf("%q: ambiguous (%s)", f.Name, strings.Join(f.Candidates, ", ")))
	}
	return fmt.Sprintf("resolve songs in %s: %s", e.Root, strings.Join(parts, "; "))
}

// Resolve maps each song name to the single file under root whose stem is
// exactly that name. Paths are returned in the order of names. Every name
// is checked before an error is returned.
func Resolve(root string, names []string, allowed []string) ([]string, error) {
	index, err := indexStems(root, allowed)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(names))
	var failures []Failure
	for i, name := range names {
		matches := index[name]
		if len(matches) == 1 {
			paths[i] = matches[0]
			continue
		}
		candidates := make([]string, len(matches))
		for j, match := range matches {
			candidates[j] = relative(root, match)
		}
		failures = append(failures, Failure{Name: name, Candidates: candidates})
	}

	if len(failures) > 0 {
		return nil, &ResolutionError{Root: root, Failures: failures}
	}
	return paths, nil
}

// indexStems walks root and groups allowed audio files by file stem.
func indexStems(root string, allowed []string) (map[string][]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("track directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("track directory: %s is not a directory", root)
	}

	filter := newExtensionSet(allowed)
	index := make(map[string][]string)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filter.matches(path) {
			return nil
		}
		index[stem(path)] = append(index[stem(path)], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, paths := range index {
		sort.Strings(paths)
	}
	return index, nil
}

type extensionSet map[string]struct{}

func newExtensionSet(allowed []string) extensionSet {
	set := make(extensionSet, len(allowed))
	for _, ext := range allowed {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

func (s extensionSet) matches(path string) bool {
	_, ok := s[strings.ToLower(filepath.Ext(path))]
	return ok
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
