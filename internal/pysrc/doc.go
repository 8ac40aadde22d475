// Package pysrc extracts import targets from Python source files.
//
// Parsing is delegated to the tree-sitter Python grammar
// (github.com/smacker/go-tree-sitter) rather than hand-rolled text
// scanning, so multi-line, aliased, parenthesized, and nested import
// forms are handled by a real parser. Only absolute imports are reported;
// relative imports (from . import x) are a documented non-goal and are
// excluded, as are dynamic imports computed at run time — they never
// appear as import statements in the syntax tree.
package pysrc
