package policy

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/modpath"
)

// resolution is a memoized per-directory answer: the nearest policy at or
// above that directory, or the error that prevented loading it. A nil
// policy with a nil error means no config exists anywhere on the upward
// path — checks are skipped for modules in that directory.
type resolution struct {
	policy *model.BoundaryPolicy
	err    error
}

// Resolver finds the boundary policy governing a directory or module by
// walking from the directory upward to the application root, nearest
// config wins.
//
// The resolver is a pure function of the file-system config state for the
// duration of a run; it memoizes per-directory results because many files
// share ancestors. Safe for concurrent use — the per-file check workers
// all share one Resolver.
type Resolver struct {
	root string

	mu   sync.Mutex
	memo map[string]resolution
}

// NewResolver creates a Resolver bounded above by the given application
// root. The root must be an absolute, cleaned directory path.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root: filepath.Clean(root),
		memo: make(map[string]resolution),
	}
}

// ResolveDir returns the nearest boundary policy at or above dir, never
// crossing above the application root. Returns (nil, nil) when no config
// file exists anywhere on the upward path. Errors wrap ErrConfigParse and
// name the offending file.
func (r *Resolver) ResolveDir(dir string) (*model.BoundaryPolicy, error) {
	dir = filepath.Clean(dir)

	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.resolveLocked(dir)
	return res.policy, res.err
}

// resolveLocked performs the memoized upward walk. Caller holds r.mu.
func (r *Resolver) resolveLocked(dir string) resolution {
	if res, ok := r.memo[dir]; ok {
		return res
	}

	pol, err := LoadDir(dir)
	var res resolution
	switch {
	case err != nil:
		res = resolution{err: err}
	case pol != nil:
		res = resolution{policy: pol}
	case dir == r.root || !r.below(dir):
		// Reached the upper bound without finding a config: checking is
		// opt-in per subtree, so the module is unconstrained.
		res = resolution{}
	default:
		res = r.resolveLocked(filepath.Dir(dir))
	}

	r.memo[dir] = res
	return res
}

// below reports whether dir is a strict descendant of the root. Guards
// the walk against escaping upward when a caller passes a directory that
// does not live under the root at all.
func (r *Resolver) below(dir string) bool {
	return strings.HasPrefix(dir, r.root+string(filepath.Separator))
}

// ResolveModule returns the policy governing a dotted module path: the
// nearest config on the path from the module's own directory up to the
// root.
//
// A module path that maps to an existing directory is a package import,
// and the walk starts at that directory itself. Anything else is a file
// module (or a name that no longer exists on disk) and the walk starts at
// the parent directory of the mapped path.
func (r *Resolver) ResolveModule(m model.ModulePath) (*model.BoundaryPolicy, error) {
	path := modpath.PathForModule(m, r.root)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return r.ResolveDir(path)
	}
	return r.ResolveDir(filepath.Dir(path))
}
