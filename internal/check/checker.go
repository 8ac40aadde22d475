package check

import (
	"path/filepath"
	"sync"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/policy"
)

// compiledPolicy pairs a loaded BoundaryPolicy with its rule sets compiled
// into tries. A nil trie means the corresponding key was absent from the
// config file and that check is skipped — the nil/empty distinction from
// the policy survives into compiled form.
type compiledPolicy struct {
	policy  *model.BoundaryPolicy
	exports *prefixTrie
	imports *prefixTrie
	bypass  *prefixTrie
}

// Checker evaluates single imports against the resolved policy hierarchy.
//
// Safe for concurrent use: the policy resolver and the compiled-policy
// cache are both internally synchronized, and everything else is
// read-only after construction.
type Checker struct {
	root     string
	resolver *policy.Resolver

	// local is the set of top-level module names under the application
	// root. Imports whose first segment is not in this set target the
	// standard library or third-party packages and are never checked.
	local map[string]struct{}

	mu       sync.Mutex
	compiled map[string]*compiledPolicy // keyed by config file path
}

// NewChecker creates a Checker for one run. root must be the absolute
// application root; local comes from modpath.TopLevelModules.
func NewChecker(root string, resolver *policy.Resolver, local map[string]struct{}) *Checker {
	return &Checker{
		root:     filepath.Clean(root),
		resolver: resolver,
		local:    local,
		compiled: make(map[string]*compiledPolicy),
	}
}

// CheckImport evaluates one (consuming file, imported module) pair and
// returns the violations it produces, if any. The export and import
// checks are independent; both may fire for the same import.
//
// consumingFile must be the absolute path of the source file issuing the
// import; consumer is its module path. Errors are config parse failures
// encountered during policy resolution — the import produces no verdict
// then, and the caller records the broken config instead.
func (c *Checker) CheckImport(consumingFile string, consumer, imported model.ModulePath) ([]model.Violation, []error) {
	// Third-party and standard-library imports are out of scope: only
	// modules rooted in the local tree have positions in the hierarchy.
	if _, ok := c.local[imported.TopLevel()]; !ok {
		return nil, nil
	}

	relFile := c.relPath(consumingFile)

	var violations []model.Violation
	var errs []error

	// Export check: governed by the imported module's own subtree.
	if cp, err := c.resolve(func() (*model.BoundaryPolicy, error) {
		return c.resolver.ResolveModule(imported)
	}); err != nil {
		errs = append(errs, err)
	} else if cp != nil && cp.exports != nil {
		bypassed := cp.bypass.covers(consumer)
		if !bypassed && !cp.exports.covers(imported) {
			violations = append(violations, model.Violation{
				ConsumingFile:  relFile,
				ImportedModule: imported,
				Kind:           model.KindExport,
				Allowed:        snapshot(cp.policy.AllowedExportModules),
				ConfigPath:     c.relPath(cp.policy.ConfigPath),
			})
		}
	}

	// Import check: governed by the consuming module's own subtree,
	// rooted at the consumer's directory.
	if cp, err := c.resolve(func() (*model.BoundaryPolicy, error) {
		return c.resolver.ResolveDir(filepath.Dir(consumingFile))
	}); err != nil {
		errs = append(errs, err)
	} else if cp != nil && cp.imports != nil {
		if !cp.imports.covers(imported) {
			violations = append(violations, model.Violation{
				ConsumingFile:  relFile,
				ImportedModule: imported,
				Kind:           model.KindImport,
				Allowed:        snapshot(cp.policy.AllowedImportModules),
				ConfigPath:     c.relPath(cp.policy.ConfigPath),
			})
		}
	}

	return violations, errs
}

// resolve runs a policy lookup and returns the compiled form of the
// result. A nil compiledPolicy with nil error means no config governs the
// module — checks skipped.
func (c *Checker) resolve(lookup func() (*model.BoundaryPolicy, error)) (*compiledPolicy, error) {
	pol, err := lookup()
	if err != nil || pol == nil {
		return nil, err
	}
	return c.compile(pol), nil
}

// compile caches tries per config path: many imports resolve to the same
// policy, and splitting the allowed lists once per policy is enough.
func (c *Checker) compile(pol *model.BoundaryPolicy) *compiledPolicy {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cp, ok := c.compiled[pol.ConfigPath]; ok {
		return cp
	}

	cp := &compiledPolicy{
		policy: pol,
		bypass: newPrefixTrie(pol.BypassExportCheckForModules),
	}
	if pol.AllowedExportModules != nil {
		cp.exports = newPrefixTrie(*pol.AllowedExportModules)
	}
	if pol.AllowedImportModules != nil {
		cp.imports = newPrefixTrie(*pol.AllowedImportModules)
	}
	c.compiled[pol.ConfigPath] = cp
	return cp
}

// relPath makes a path root-relative for reporting. Paths that cannot be
// relativized are reported as given.
func (c *Checker) relPath(path string) string {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return path
	}
	return rel
}

// snapshot copies an allowed set out of the policy so the recorded
// violation stays immutable regardless of what happens to the policy.
func snapshot(set *[]string) []string {
	if set == nil {
		return nil
	}
	out := make([]string, len(*set))
	copy(out, *set)
	return out
}
