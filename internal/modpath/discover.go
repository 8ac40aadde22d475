package modpath

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// defaultIgnore lists directory and file names that are never worth
// scanning. Mirrors the tool's Python heritage: caches and editor litter.
var defaultIgnore = map[string]struct{}{
	"__pycache__":  {},
	".mypy_cache":  {},
	".ruff_cache":  {},
	".DS_Store":    {},
	"node_modules": {},
}

// skipName reports whether a directory entry should be excluded from
// traversal outright, before any user pattern is consulted.
//
// Directories with a dot anywhere in the name are skipped (.git, .venv,
// .tox, but also "my.data") — a dotted name can never be a Python package
// anyway, since dots are the module-path separator.
func skipName(name string, isDir bool) bool {
	if _, ok := defaultIgnore[name]; ok {
		return true
	}
	return isDir && strings.Contains(name, ".")
}

// IgnoredDir reports whether a directory name is excluded from traversal
// by the built-in rules. Exported for the watch mode, which must skip the
// same directories the scanner skips.
func IgnoredDir(name string) bool {
	return skipName(name, true)
}

// Discover expands the target paths into the sorted, deduplicated set of
// .py files to check.
//
// Each target may be an absolute path or a path relative to root, and may
// name a single file or a directory (expanded recursively). A target that
// does not exist or lies outside the application root produces an error in
// the returned slice but does not abort discovery of the remaining
// targets.
//
// The matcher applies user gitignore-style patterns against root-relative
// paths; pass nil for no user patterns. The built-in ignore list is always
// applied.
func Discover(targets []string, root string, matcher *ignore.GitIgnore) ([]string, []error) {
	seen := make(map[string]struct{})
	var files []string
	var errs []error

	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, target := range targets {
		path := target
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		path = filepath.Clean(path)

		// Every target must live under the root: module paths are
		// meaningless for files outside it.
		if _, err := ModuleForFile(path, root); err != nil {
			errs = append(errs, err)
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target, err))
			continue
		}

		if !info.IsDir() {
			if strings.HasSuffix(path, ".py") {
				add(path)
			}
			continue
		}

		walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == path {
				return nil
			}
			if skipName(d.Name(), d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if matcher != nil {
				rel, relErr := filepath.Rel(root, p)
				if relErr == nil && matcher.MatchesPath(rel) {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".py") {
				add(p)
			}
			return nil
		})
		if walkErr != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target, walkErr))
		}
	}

	sort.Strings(files)
	return files, errs
}

// TopLevelModules returns the names of the top-level packages and modules
// directly under the application root. An import is only subject to
// boundary checking when its first segment appears in this set — anything
// else is a standard-library or third-party import and is ignored.
func TopLevelModules(root string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read application root %s: %w", root, err)
	}

	names := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if skipName(name, entry.IsDir()) {
			continue
		}
		if entry.IsDir() {
			names[name] = struct{}{}
			continue
		}
		if strings.HasSuffix(name, ".py") {
			names[strings.TrimSuffix(name, ".py")] = struct{}{}
		}
	}
	return names, nil
}
