package modpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// ErrPathOutsideRoot is returned when a target file is not a descendant of
// the application root. The error is fatal for that single invocation
// argument only; other targets continue to be processed.
var ErrPathOutsideRoot = errors.New("path is outside the application root")

// initFile is the Python package marker. A package's __init__.py collapses
// to the module path of its containing directory: payments/__init__.py is
// the module "payments", not "payments.__init__".
const initFile = "__init__.py"

// ModuleForFile derives the dotted module path for a source file from its
// location relative to the application root.
//
// The derivation is deterministic: the path is made relative to root, the
// .py extension is stripped, __init__.py collapses to the containing
// directory, and path separators become dots.
//
// Both arguments must be absolute, cleaned paths. Returns a wrapped
// ErrPathOutsideRoot if filePath is not a descendant of root.
func ModuleForFile(filePath, root string) (model.ModulePath, error) {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s (root %s)", ErrPathOutsideRoot, filePath, root)
	}
	// filepath.Rel happily produces "../x" paths; any upward step means
	// the file lives outside the root.
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s (root %s)", ErrPathOutsideRoot, filePath, root)
	}

	// __init__.py names its containing directory.
	if filepath.Base(rel) == initFile {
		rel = filepath.Dir(rel)
		if rel == "." {
			// A root-level __init__.py names the root package itself,
			// which has no dotted path.
			return "", nil
		}
	} else {
		rel = strings.TrimSuffix(rel, ".py")
	}

	return model.ModulePath(strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")), nil
}

// PathForModule maps a dotted module path back to its expected location
// under the application root. The result names either a .py file (without
// the extension) or a package directory — callers stat the path to tell
// which.
func PathForModule(m model.ModulePath, root string) string {
	return filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(string(m), ".", "/")))
}
