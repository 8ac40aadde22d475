package check

import (
	"github.com/mmr-tortoise/embargo/internal/model"
)

// trieNode is one segment level of a compiled allowed-set. A terminal
// node marks the end of a declared prefix; everything at or below a
// terminal is covered.
type trieNode struct {
	children map[string]*trieNode
	terminal bool
}

// prefixTrie is a compiled set of module-path prefixes supporting
// segment-exact matching. Compiling once per policy avoids re-splitting
// the allowed lists for every import that resolves to the same config.
//
// Immutable after newPrefixTrie returns; safe for concurrent readers.
type prefixTrie struct {
	root *trieNode
}

// newPrefixTrie compiles a list of dotted prefixes, e.g.
//
//	["a.b.c", "a.d", "x"]
//
// into a segment tree. An empty list compiles to a trie that matches
// nothing — the "deny all" policy.
func newPrefixTrie(prefixes []string) *prefixTrie {
	root := &trieNode{}
	for _, prefix := range prefixes {
		node := root
		for _, seg := range model.ModulePath(prefix).Segments() {
			if node.children == nil {
				node.children = make(map[string]*trieNode)
			}
			child := node.children[seg]
			if child == nil {
				child = &trieNode{}
				node.children[seg] = child
			}
			node = child
		}
		node.terminal = true
	}
	return &prefixTrie{root: root}
}

// covers reports whether the module path equals one of the compiled
// prefixes or is a descendant of one. Matching is segment-wise, never
// substring: a trie of ["a.b"] covers "a.b" and "a.b.c" but not "a.bc",
// and not the bare ancestor "a".
func (t *prefixTrie) covers(m model.ModulePath) bool {
	node := t.root
	for _, seg := range m.Segments() {
		if node.terminal {
			// A declared prefix ended above this segment; the
			// candidate is a descendant of it.
			return true
		}
		child := node.children[seg]
		if child == nil {
			return false
		}
		node = child
	}
	// Consumed every segment: covered only on exact equality with a
	// declared prefix. Being a proper ancestor of one is not enough.
	return node.terminal
}
