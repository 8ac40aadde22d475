package pysrc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// ErrParse marks a source file that could not be parsed for imports.
// The file is excluded from checking and recorded as a ParseFailure; the
// run continues with the remaining files.
var ErrParse = errors.New("python source could not be parsed")

// Extractor parses Python source text and returns the set of absolute
// dotted module paths it imports.
//
// Safe for concurrent use: each Imports call creates its own tree-sitter
// parser instance internally.
type Extractor struct{}

// NewExtractor creates a new Extractor. No configuration is needed today;
// the constructor keeps the call sites stable if options appear later.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Imports parses the given source and returns the deduplicated, sorted
// absolute module paths it imports, at any nesting depth.
//
// Both statement forms contribute targets:
//
//	import a.b.c            → a.b.c
//	from a.b import c, d    → a.b
//	from . import x         → excluded (relative)
//
// filePath is used only for error reporting. Returns an error wrapping
// ErrParse when the source is not valid UTF-8 or contains syntax errors —
// a file the parser cannot trust yields no import set at all, rather than
// a partial one that would under-report violations.
func (e *Extractor) Imports(ctx context.Context, src []byte, filePath string) ([]model.ModulePath, error) {
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: %s: content is not valid UTF-8", ErrParse, filePath)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, fmt.Errorf("%w: %s: source contains syntax errors", ErrParse, filePath)
	}

	seen := make(map[model.ModulePath]struct{})
	collectImports(root, src, seen)

	out := make([]model.ModulePath, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// collectImports walks the syntax tree and records the module target of
// every import statement it finds, including imports nested inside
// functions, classes, and conditional blocks.
func collectImports(node *sitter.Node, src []byte, seen map[model.ModulePath]struct{}) {
	switch node.Type() {
	case "import_statement":
		importStatementTargets(node, src, seen)
		return
	case "import_from_statement":
		importFromTarget(node, src, seen)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectImports(node.Child(i), src, seen)
	}
}

// importStatementTargets handles "import a.b" and "import a.b as c" forms.
// A single statement may name several modules: "import a, b.c".
func importStatementTargets(node *sitter.Node, src []byte, seen map[model.ModulePath]struct{}) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			add(seen, nodeText(child, src))
		case "aliased_import":
			// The dotted_name child is the real target; the alias
			// identifier is irrelevant to boundary checking.
			for j := 0; j < int(child.ChildCount()); j++ {
				if g := child.Child(j); g.Type() == "dotted_name" {
					add(seen, nodeText(g, src))
					break
				}
			}
		}
	}
}

// importFromTarget handles "from a.b import c" forms. Only the module
// path before the import keyword matters; the imported names share its
// boundary. Relative forms (a relative_import child instead of a
// dotted_name) are skipped entirely.
func importFromTarget(node *sitter.Node, src []byte, seen map[model.ModulePath]struct{}) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "relative_import":
			return
		case "import":
			// Anything after the import keyword is an imported name,
			// not a module path.
			return
		case "dotted_name":
			add(seen, nodeText(child, src))
			return
		}
	}
}

func nodeText(node *sitter.Node, src []byte) string {
	return string(src[node.StartByte():node.EndByte()])
}

func add(seen map[model.ModulePath]struct{}, path string) {
	if path != "" {
		seen[model.ModulePath(path)] = struct{}{}
	}
}
