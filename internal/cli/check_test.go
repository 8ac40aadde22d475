// Package cli — check_test.go contains unit tests for the pure helpers
// behind the check and policy commands: output formatting, settings
// loading, and application-root resolution. No checker run is needed.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// TestFormatAllowed verifies the bracketed rendering of allowed sets in
// violation output.
func TestFormatAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		want    string
	}{
		{"nil set", nil, "[]"},
		{"empty set", []string{}, "[]"},
		{"single entry", []string{"payments.payment_api"}, "[payments.payment_api]"},
		{"multiple entries keep order", []string{"shipping", "payments.payment_api"}, "[shipping, payments.payment_api]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAllowed(tt.allowed))
		})
	}
}

// TestFormatRuleSet verifies that the policy command renders the three
// rule-set states distinctly: absent, deny-all, and populated.
func TestFormatRuleSet(t *testing.T) {
	assert.Equal(t, "(not declared — check skipped)", formatRuleSet(nil))

	empty := []string{}
	assert.Equal(t, "[] (deny all)", formatRuleSet(&empty))

	populated := []string{"a.b", "c"}
	assert.Equal(t, "[a.b, c]", formatRuleSet(&populated))
}

// TestRelToRoot verifies root-relative display paths.
func TestRelToRoot(t *testing.T) {
	root := filepath.Join("/app", "root")

	assert.Equal(t, filepath.Join("payments", "__embargo__.json"),
		relToRoot(root, filepath.Join(root, "payments", "__embargo__.json")))
	assert.Equal(t, ".", relToRoot(root, root))
}

// TestLoadSettings verifies the optional settings file: a valid file is
// parsed, a missing file is not an error, and a malformed file is a
// usage error.
func TestLoadSettings(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		dir := t.TempDir()
		content := "app_root: src\nworkers: 4\nignore:\n  - generated\n  - \"*_pb2.py\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0o644))

		s, err := LoadSettings(dir)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "src", s.AppRoot)
		assert.Equal(t, 4, s.Workers)
		assert.Equal(t, []string{"generated", "*_pb2.py"}, s.Ignore)
	})

	t.Run("missing file", func(t *testing.T) {
		s, err := LoadSettings(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("workers: [not a number\n"), 0o644))

		s, err := LoadSettings(dir)
		assert.Nil(t, s)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitUsageError, cliErr.Code)
	})
}

// TestResolveAppRoot verifies precedence between the flag, the settings
// file, and the working-directory default, plus rejection of roots that
// are not directories.
func TestResolveAppRoot(t *testing.T) {
	dir := t.TempDir()

	t.Run("flag wins over settings", func(t *testing.T) {
		root, err := resolveAppRoot(dir, &Settings{AppRoot: "/nonexistent"})
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})

	t.Run("settings used when flag empty", func(t *testing.T) {
		root, err := resolveAppRoot("", &Settings{AppRoot: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})

	t.Run("not a directory", func(t *testing.T) {
		file := filepath.Join(dir, "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		_, err := resolveAppRoot(file, &Settings{})

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitUsageError, cliErr.Code)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := resolveAppRoot(filepath.Join(dir, "gone"), &Settings{})

		var cliErr *model.CLIError
		assert.True(t, errors.As(err, &cliErr))
	})
}

// TestExitError verifies the mapping from report exit codes to the
// CLIError that Execute translates into the process exit status.
func TestExitError(t *testing.T) {
	assert.Nil(t, exitError(model.ExitSuccess))

	err := exitError(model.ExitViolationsFound)
	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitViolationsFound, cliErr.Code)
}
