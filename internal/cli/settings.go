// Package cli — settings.go loads optional tool settings from .embargo.yml.
//
// Settings configure how the tool runs (application root, ignore
// patterns, worker count), never what the boundary rules are — those live
// in the per-directory __embargo__.json files. Command-line flags always
// override settings-file values.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// SettingsFileName is the optional tool settings file, looked up in the
// working directory.
const SettingsFileName = ".embargo.yml"

// Settings holds the values a .embargo.yml file may configure.
type Settings struct {
	// AppRoot is the application root directory, relative to the
	// settings file's directory (or absolute). Equivalent to --app-root.
	AppRoot string `yaml:"app_root"`

	// Ignore lists gitignore-style patterns excluded from scanning,
	// in addition to the built-in ignore list.
	Ignore []string `yaml:"ignore"`

	// Workers is the default check parallelism. Equivalent to --workers.
	Workers int `yaml:"workers"`
}

// LoadSettings reads .embargo.yml from the given directory.
// Returns (nil, nil) when no settings file exists — the file is entirely
// optional. A file that exists but cannot be parsed is a usage error:
// unlike a per-directory boundary config, there is nothing to "continue
// around" when the tool's own invocation settings are broken.
func LoadSettings(dir string) (*Settings, error) {
	path := filepath.Join(dir, SettingsFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(model.ExitUsageError,
			fmt.Sprintf("failed to read %s", path), err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, model.WrapCLIError(model.ExitUsageError,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return &s, nil
}
