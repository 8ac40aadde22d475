package check

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/modpath"
	"github.com/mmr-tortoise/embargo/internal/policy"
)

// projectRoot returns the absolute path to the project root directory,
// located via runtime.Caller so the tests work regardless of the
// directory the runner is invoked from.
func projectRoot(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed to return file info")

	root, err := filepath.Abs(filepath.Join(filepath.Dir(filename), "..", ".."))
	require.NoError(t, err)
	return root
}

// testdataPath returns the absolute path to a testdata fixture tree. Each
// fixture (e.g. "boundaries") is a self-contained application root.
func testdataPath(t *testing.T, fixture string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "tests", "testdata", fixture)
}

// newTestChecker builds a Checker over a fixture application root.
func newTestChecker(t *testing.T, root string) *Checker {
	t.Helper()

	local, err := modpath.TopLevelModules(root)
	require.NoError(t, err)
	return NewChecker(root, policy.NewResolver(root), local)
}

// TestCheckImport_ThirdPartyIgnored verifies that imports whose first
// segment is not a local top-level module are never checked.
func TestCheckImport_ThirdPartyIgnored(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "orders", "orders_service.py")

	for _, imported := range []model.ModulePath{"os", "json", "django.http"} {
		violations, errs := c.CheckImport(file, "orders.orders_service", imported)
		assert.Empty(t, violations, "import %s should be out of scope", imported)
		assert.Empty(t, errs)
	}
}

// TestCheckImport_ExportAllowed verifies that importing a module on the
// declared export surface produces no violation.
func TestCheckImport_ExportAllowed(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "orders", "orders_service.py")

	violations, errs := c.CheckImport(file, "orders.orders_service", "payments.payment_api")
	assert.Empty(t, violations)
	assert.Empty(t, errs)
}

// TestCheckImport_ExportViolation verifies the export direction: an
// outside consumer importing a module the subtree does not export gets a
// violation carrying the allowed snapshot and the governing config path.
func TestCheckImport_ExportViolation(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "orders", "orders_service.py")

	violations, errs := c.CheckImport(file, "orders.orders_service", "payments.private_utils")
	require.Empty(t, errs)
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, filepath.Join("orders", "orders_service.py"), v.ConsumingFile)
	assert.Equal(t, model.ModulePath("payments.private_utils"), v.ImportedModule)
	assert.Equal(t, model.KindExport, v.Kind)
	assert.Equal(t, []string{"payments.payment_api"}, v.Allowed)
	assert.Equal(t, filepath.Join("payments", "__embargo__.json"), v.ConfigPath)
}

// TestCheckImport_NearestConfigWins verifies that the imported module is
// judged by the nearest config above it: payments/bank declares an empty
// export surface, so even the payments-level bypass does not apply.
func TestCheckImport_NearestConfigWins(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "orders", "orders_service.py")

	violations, errs := c.CheckImport(file, "orders.orders_service", "payments.bank.ledger")
	require.Empty(t, errs)
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, model.KindExport, v.Kind)
	assert.Empty(t, v.Allowed, "deny-all config snapshots an empty allowed set")
	assert.Equal(t, filepath.Join("payments", "bank", "__embargo__.json"), v.ConfigPath)
}

// TestCheckImport_BypassedConsumer verifies that a consumer covered by
// the bypass list may import anything from the subtree, while the same
// import from an outside consumer still violates.
func TestCheckImport_BypassedConsumer(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)

	// Inside the bypass list: no violation.
	insider := filepath.Join(root, "payments", "internal_report.py")
	violations, errs := c.CheckImport(insider, "payments.internal_report", "payments.private_utils")
	assert.Empty(t, violations)
	assert.Empty(t, errs)

	// Same target, outside consumer: the export check fires.
	outsider := filepath.Join(root, "orders", "orders_service.py")
	violations, errs = c.CheckImport(outsider, "orders.orders_service", "payments.private_utils")
	assert.Empty(t, errs)
	require.Len(t, violations, 1)
	assert.Equal(t, model.KindExport, violations[0].Kind)
}

// TestCheckImport_ImportViolation verifies the import direction: a
// consumer inside a subtree with a declared import allowlist may only
// import what the list covers.
func TestCheckImport_ImportViolation(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "shipping", "labels.py")

	// On the allowlist (and on the target's export surface): clean.
	violations, errs := c.CheckImport(file, "shipping.labels", "payments.payment_api")
	assert.Empty(t, violations)
	assert.Empty(t, errs)

	// Off the allowlist; the target subtree has no config, so only the
	// import check fires.
	violations, errs = c.CheckImport(file, "shipping.labels", "orders.orders_service")
	require.Empty(t, errs)
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, filepath.Join("shipping", "labels.py"), v.ConsumingFile)
	assert.Equal(t, model.KindImport, v.Kind)
	assert.Equal(t, []string{"shipping", "payments.payment_api"}, v.Allowed)
	assert.Equal(t, filepath.Join("shipping", "__embargo__.json"), v.ConfigPath)
}

// TestCheckImport_BothDirectionsFire verifies that the export and import
// checks are independent: one import can violate both at once.
func TestCheckImport_BothDirectionsFire(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "shipping", "labels.py")

	// payments.private_utils is neither exported by payments nor on
	// shipping's import allowlist.
	violations, errs := c.CheckImport(file, "shipping.labels", "payments.private_utils")
	require.Empty(t, errs)
	require.Len(t, violations, 2)

	kinds := []model.ViolationKind{violations[0].Kind, violations[1].Kind}
	assert.Contains(t, kinds, model.KindExport)
	assert.Contains(t, kinds, model.KindImport)
}

// TestCheckImport_NoConfigAnywhere verifies that an import between two
// unconfigured subtrees is always permitted.
func TestCheckImport_NoConfigAnywhere(t *testing.T) {
	root := testdataPath(t, "boundaries")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "orders", "orders_service.py")

	violations, errs := c.CheckImport(file, "orders.orders_service", "orders")
	assert.Empty(t, violations)
	assert.Empty(t, errs)
}

// TestCheckImport_MalformedConfig verifies that a broken config on the
// resolution path yields an error, never a silent pass or a violation.
func TestCheckImport_MalformedConfig(t *testing.T) {
	root := testdataPath(t, "broken-config")
	c := newTestChecker(t, root)
	file := filepath.Join(root, "consumer.py")

	violations, errs := c.CheckImport(file, "consumer", "app.thing")
	assert.Empty(t, violations)
	require.Len(t, errs, 1)

	var pe *policy.ParseError
	require.ErrorAs(t, errs[0], &pe)
	assert.Equal(t, filepath.Join(root, "app", policy.ConfigFileName), pe.Path)
}
