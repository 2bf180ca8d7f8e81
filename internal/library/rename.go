package library

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// Rename moves one file to its song name.
type Rename struct {
	From string
	To   string
}

// RenamePlan assigns song names to unnamed files in sorted order.
type RenamePlan struct {
	Renames []Rename
	// Skipped holds renames whose target already exists.
	Skipped   []Rename
	FileCount int
	NameCount int
}

// Mismatch reports whether the number of unnamed files differs from the
// number of song names still waiting for a file.
func (p RenamePlan) Mismatch() bool {
	return p.FileCount != p.NameCount
}

// PlanRenames pairs the files directly under root whose stem is not already
// a song name with the song names that have no file yet. Files are taken in
// lexical order; the shorter list decides how many renames are planned.
func PlanRenames(root string, names []string, allowed []string) (RenamePlan, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return RenamePlan{}, fmt.Errorf("track directory: %w", err)
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	filter := newExtensionSet(allowed)
	named := make(map[string]struct{})
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !filter.matches(entry.Name()) {
			continue
		}
		if _, ok := wanted[stem(entry.Name())]; ok {
			named[stem(entry.Name())] = struct{}{}
			continue
		}
		files = append(files, filepath.Join(root, entry.Name()))
	}
	sort.Strings(files)

	var pending []string
	for _, name := range names {
		if _, ok := named[name]; !ok {
			pending = append(pending, name)
		}
	}

	plan := RenamePlan{FileCount: len(files), NameCount: len(pending)}
	count := min(len(files), len(pending))
	for i := 0; i < count; i++ {
		from := files[i]
		to := filepath.Join(root, pending[i]+filepath.Ext(from))
		rename := Rename{From: from, To: to}
		if _, err := os.Lstat(to); err == nil {
			plan.Skipped = append(plan.Skipped, rename)
			continue
		}
		plan.Renames = append(plan.Renames, rename)
	}
	return plan, nil
}

// ApplyRenames performs every planned rename and reports all failures.
func ApplyRenames(plan RenamePlan, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	if plan.Mismatch() {
		logger.Printf("warning: %d unnamed files but %d song names without a file; renaming %d", plan.FileCount, plan.NameCount, min(plan.FileCount, plan.NameCount))
	}
	for _, skipped := range plan.Skipped {
		logger.Printf("skipping %s -> %s (target exists)", filepath.Base(skipped.From), filepath.Base(skipped.To))
	}

	var errs []error
	for _, rename := range plan.Renames {
		if err := os.Rename(rename.From, rename.To); err != nil {
			errs = append(errs, fmt.Errorf("rename %s: %w", filepath.Base(rename.From), err))
			continue
		}
		logger.Printf("renamed %s -> %s", filepath.Base(rename.From), filepath.Base(rename.To))
	}
	return errors.Join(errs...)
}
