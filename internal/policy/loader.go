package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/embargo/internal/model"
)

// ConfigFileName is the recognized boundary policy filename, one per
// directory.
const ConfigFileName = "__embargo__.json"

// ParseError describes a config file that exists but could not be read or
// parsed. A parse failure is a hard error for the affected subtree, never
// a silent "skip checks" — callers classify resolution failures with
// errors.As against this type.
type ParseError struct {
	// Path is the config file that failed.
	Path string

	// Err is the underlying read or JSON error.
	Err error
}

// Error satisfies the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed boundary config %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadDir loads the boundary policy declared directly in dir, if any.
//
// Returns (nil, nil) when the directory contains no config file — absence
// is the common case, not an error. A config file that exists but cannot
// be parsed returns a *ParseError naming the file; callers must surface
// it rather than treating the directory as unconfigured.
func LoadDir(dir string) (*model.BoundaryPolicy, error) {
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing, then let encoding/json ignore any keys we don't model.
	// The nil-vs-empty distinction for the allowed sets survives this:
	// an absent key leaves the *[]string nil, an empty list allocates.
	var pol model.BoundaryPolicy
	if err := json.Unmarshal(jsonc.ToJSON(data), &pol); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	pol.ConfigPath = path
	return &pol, nil
}
