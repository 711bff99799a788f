// Package cleanup implements pruning of exported policy documents.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// exportExt is the extension of exported policy documents.
const exportExt = ".md"

type export struct {
	name    string
	modTime time.Time
}

// listExports returns the exported documents in dir, oldest first. A missing
// directory has no exports.
func listExports(dir string) ([]export, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading exports directory: %w", err)
	}

	var out []export
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), exportExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		out = append(out, export{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].modTime.Equal(out[j].modTime) {
			return out[i].name < out[j].name
		}
		return out[i].modTime.Before(out[j].modTime)
	})
	return out, nil
}

func remove(dir string, names []string, dryRun bool) ([]string, error) {
	var pruned []string
	for _, name := range names {
		if !dryRun {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return pruned, fmt.Errorf("removing %s: %w", name, err)
			}
		}
		pruned = append(pruned, name)
	}
	return pruned, nil
}

// PruneByAge removes exports last written more than maxAgeDays ago.
// If dryRun is true, nothing is deleted; the function only returns the
// names that would be removed.
func PruneByAge(dir string, maxAgeDays int, dryRun bool) ([]string, error) {
	exports, err := listExports(dir)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var old []string
	for _, e := range exports {
		if e.modTime.Before(cutoff) {
			old = append(old, e.name)
		}
	}
	return remove(dir, old, dryRun)
}

// PruneKeepRecent removes all exports except the keep most recently
// written. If dryRun is true, nothing is deleted.
func PruneKeepRecent(dir string, keep int, dryRun bool) ([]string, error) {
	exports, err := listExports(dir)
	if err != nil {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(exports) <= keep {
		return nil, nil
	}

	var names []string
	for _, e := range exports[:len(exports)-keep] {
		names = append(names, e.name)
	}
	return remove(dir, names, dryRun)
}
