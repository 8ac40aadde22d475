// Package policy loads per-directory boundary policy files and resolves
// the policy governing a module via a nearest-wins upward walk.
//
// A directory opts into boundary checking by containing an
// __embargo__.json file. Policy resolution for any module checks the
// module's own directory first, then each parent in order, stopping at the
// first directory with a config file and never crossing above the
// application root. Resolution results are memoized per directory for the
// duration of a run, amortizing repeated upward walks to O(directories)
// rather than O(files × depth).
//
// Config files officially tolerate JSONC (comments and trailing commas);
// github.com/tidwall/jsonc strips these before encoding/json parsing.
package policy
