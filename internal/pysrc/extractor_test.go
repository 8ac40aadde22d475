package pysrc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// extract is a test helper that runs the extractor over inline source.
func extract(t *testing.T, src string) []model.ModulePath {
	t.Helper()

	imports, err := NewExtractor().Imports(context.Background(), []byte(src), "test.py")
	require.NoError(t, err)
	return imports
}

// TestImports_PlainImport verifies "import a.b" statements, including the
// multi-target and aliased forms.
func TestImports_PlainImport(t *testing.T) {
	src := `import os
import payments.bank.ledger
import orders, shipping.labels
import payments.private_utils as utils
`
	assert.Equal(t, []model.ModulePath{
		"orders",
		"os",
		"payments.bank.ledger",
		"payments.private_utils",
		"shipping.labels",
	}, extract(t, src))
}

// TestImports_FromImport verifies that "from a.b import c" contributes
// the module path before the import keyword, never the imported names.
func TestImports_FromImport(t *testing.T) {
	src := `from payments.payment_api import charge
from payments.private_utils import format_iban, parse_iban
from orders import orders_service as svc
`
	assert.Equal(t, []model.ModulePath{
		"orders",
		"payments.payment_api",
		"payments.private_utils",
	}, extract(t, src))
}

// TestImports_RelativeExcluded verifies that relative imports are ignored
// entirely: they cannot leave the package, so they cannot cross a boundary.
func TestImports_RelativeExcluded(t *testing.T) {
	src := `from . import sibling
from .helpers import parse
from ..cousin import thing
from payments import payment_api
`
	assert.Equal(t, []model.ModulePath{"payments"}, extract(t, src))
}

// TestImports_Nested verifies that imports inside functions, classes, and
// conditional blocks are found at any depth.
func TestImports_Nested(t *testing.T) {
	src := `import os


def handler():
    from payments.private_utils import format_iban
    return format_iban("x")


class Processor:
    def run(self):
        import orders.orders_service
        if True:
            from shipping import labels
`
	assert.Equal(t, []model.ModulePath{
		"orders.orders_service",
		"os",
		"payments.private_utils",
		"shipping",
	}, extract(t, src))
}

// TestImports_Deduplicated verifies that repeating an import yields one
// entry and that output is sorted.
func TestImports_Deduplicated(t *testing.T) {
	src := `import payments.payment_api
from payments.payment_api import charge


def f():
    import payments.payment_api
`
	assert.Equal(t, []model.ModulePath{"payments.payment_api"}, extract(t, src))
}

// TestImports_NoImports verifies that a source file with no imports
// yields an empty set, not an error.
func TestImports_NoImports(t *testing.T) {
	assert.Empty(t, extract(t, "x = 1\n"))
	assert.Empty(t, extract(t, ""))
}

// TestImports_SyntaxError verifies that an unparseable file fails whole:
// no partial import list that would under-report violations.
func TestImports_SyntaxError(t *testing.T) {
	src := "def broken(:\n    pass\n"

	imports, err := NewExtractor().Imports(context.Background(), []byte(src), "bad.py")
	assert.Nil(t, imports)
	require.ErrorIs(t, err, ErrParse)
	assert.Contains(t, err.Error(), "bad.py")
}

// TestImports_InvalidUTF8 verifies that binary garbage is rejected before
// it reaches the parser.
func TestImports_InvalidUTF8(t *testing.T) {
	src := []byte{0xff, 0xfe, 0x00, 0x69}

	imports, err := NewExtractor().Imports(context.Background(), src, "blob.py")
	assert.Nil(t, imports)
	assert.ErrorIs(t, err, ErrParse)
}
