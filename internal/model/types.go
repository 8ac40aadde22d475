package model

import (
	"fmt"
	"sort"
	"strings"
)

// ModulePath is a dotted identifier naming a Python source unit by its
// position in the directory tree, rooted at the application root.
// Example: "payments.bank.private_banking_services".
//
// Two files in the same directory share all ancestor segments. A ModulePath
// never contains path separators or file extensions — translation to and
// from file-system paths is handled by the modpath package.
type ModulePath string

// String returns the dotted string form of the module path.
// This method satisfies the fmt.Stringer interface.
func (m ModulePath) String() string {
	return string(m)
}

// Segments splits the module path into its ordered path segments.
// An empty ModulePath yields an empty slice, not [""].
func (m ModulePath) Segments() []string {
	if m == "" {
		return nil
	}
	return strings.Split(string(m), ".")
}

// TopLevel returns the first segment of the module path — the top-level
// package name. Used to decide whether an import targets the local
// application tree or a third-party library.
func (m ModulePath) TopLevel() string {
	s := string(m)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// ModulePathFromSegments joins path segments back into a ModulePath.
func ModulePathFromSegments(segments []string) ModulePath {
	return ModulePath(strings.Join(segments, "."))
}

// BoundaryPolicy is the boundary rule set declared for one directory's
// subtree via an __embargo__.json file.
//
// The pointer types are deliberate: a key that is absent from the config
// file means "skip this check", while a key that is present with an empty
// list means "deny all". Collapsing nil and empty would silently change
// the meaning of a policy, so both fields stay *[]string all the way
// from deserialization to checking.
type BoundaryPolicy struct {
	// AllowedExportModules lists module-path prefixes that may be imported
	// by anyone outside this directory's subtree. nil ⇒ export check
	// skipped; empty ⇒ nothing may be imported.
	AllowedExportModules *[]string `json:"allowed_export_modules,omitempty"`

	// AllowedImportModules lists module-path prefixes that modules inside
	// this directory's subtree are permitted to import. Same nil/empty
	// semantics as AllowedExportModules, for the import direction.
	AllowedImportModules *[]string `json:"allowed_import_modules,omitempty"`

	// BypassExportCheckForModules lists module-path prefixes whose own
	// imports are exempt from this policy's export check (intra-subtree
	// access). Absent and empty are equivalent here: nothing bypassed.
	BypassExportCheckForModules []string `json:"bypass_export_check_for_modules,omitempty"`

	// ConfigPath is the absolute path of the __embargo__.json file this
	// policy was loaded from. Reported with every violation so users can
	// find the rule that fired.
	ConfigPath string `json:"-"`
}

// ViolationKind distinguishes the direction of a boundary violation.
type ViolationKind string

const (
	// KindExport marks an import that reaches into a subtree whose
	// declared exports do not cover the imported module.
	KindExport ViolationKind = "export"

	// KindImport marks an import issued by a subtree whose declared
	// allowed imports do not cover the target module.
	KindImport ViolationKind = "import"
)

// String returns the string representation of the ViolationKind.
func (k ViolationKind) String() string {
	return string(k)
}

// IsValid checks whether the ViolationKind value is one of the
// predefined valid kinds.
func (k ViolationKind) IsValid() bool {
	switch k {
	case KindExport, KindImport:
		return true
	default:
		return false
	}
}

// ParseViolationKind converts a string to a ViolationKind.
// Returns an error if the string does not match any valid kind.
func ParseViolationKind(s string) (ViolationKind, error) {
	kind := ViolationKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid violation kind: %q (valid: export, import)", s)
	}
	return kind, nil
}

// Violation records a single boundary crossing. Immutable once created.
type Violation struct {
	// ConsumingFile is the path of the source file issuing the import,
	// relative to the application root.
	ConsumingFile string `json:"consumingFile"`

	// ImportedModule is the dotted module path the import targets.
	ImportedModule ModulePath `json:"importedModule"`

	// Kind is the direction of the violated check (export or import).
	Kind ViolationKind `json:"kind"`

	// Allowed is a snapshot of the allowed set that was in effect when
	// the check fired. It is copied from the policy so later mutation of
	// the policy cannot change a recorded violation.
	Allowed []string `json:"allowed"`

	// ConfigPath is the path of the governing __embargo__.json file.
	ConfigPath string `json:"configPath"`
}

// ParseFailure records a source file that could not be parsed for imports.
// The file is excluded from checking; the run continues.
type ParseFailure struct {
	// File is the path of the unparseable source file.
	File string `json:"file"`

	// Message describes why parsing failed.
	Message string `json:"message"`
}

// ConfigError records a malformed __embargo__.json file. All modules whose
// policy resolution depends on that config resolve to "ambiguous policy":
// no violations are emitted for them, but the run fails loudly.
type ConfigError struct {
	// ConfigPath is the path of the malformed config file.
	ConfigPath string `json:"configPath"`

	// Message describes the parse failure.
	Message string `json:"message"`
}

// Report is the aggregate outcome of one checker run: all violations from
// all checked files plus the per-file and per-config errors that were
// isolated along the way. An empty report means success.
type Report struct {
	// Violations holds every boundary violation found, in deterministic
	// order (consuming file, then imported module, then kind).
	Violations []Violation `json:"violations"`

	// ParseFailures lists files that could not be parsed for imports.
	ParseFailures []ParseFailure `json:"parseFailures,omitempty"`

	// ConfigErrors lists malformed config files encountered during
	// policy resolution, deduplicated by path.
	ConfigErrors []ConfigError `json:"configErrors,omitempty"`
}

// HasViolations reports whether any boundary violations were found.
func (r *Report) HasViolations() bool {
	return len(r.Violations) > 0
}

// HasErrors reports whether any parse or config errors occurred.
func (r *Report) HasErrors() bool {
	return len(r.ParseFailures) > 0 || len(r.ConfigErrors) > 0
}

// Clean reports whether the run found nothing at all — no violations and
// no errors. A clean report maps to exit code 0.
func (r *Report) Clean() bool {
	return !r.HasViolations() && !r.HasErrors()
}

// ByKind returns the violations of a single kind, preserving the report's
// deterministic ordering. Used by the renderers to group output.
func (r *Report) ByKind(kind ViolationKind) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// Sort imposes the report's canonical ordering: violations by consuming
// file, imported module, then kind; parse failures by file; config errors
// by path. Running the checker twice on unchanged input therefore produces
// byte-identical reports regardless of worker scheduling.
func (r *Report) Sort() {
	sort.Slice(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.ConsumingFile != b.ConsumingFile {
			return a.ConsumingFile < b.ConsumingFile
		}
		if a.ImportedModule != b.ImportedModule {
			return a.ImportedModule < b.ImportedModule
		}
		return a.Kind < b.Kind
	})
	sort.Slice(r.ParseFailures, func(i, j int) bool {
		return r.ParseFailures[i].File < r.ParseFailures[j].File
	})
	sort.Slice(r.ConfigErrors, func(i, j int) bool {
		return r.ConfigErrors[i].ConfigPath < r.ConfigErrors[j].ConfigPath
	})
}

// ExitCode maps the report outcome to the process exit status.
// Parse/config errors take precedence over violations: a broken policy
// makes the violation list untrustworthy, and CI needs to tell the two
// apart.
func (r *Report) ExitCode() ExitCode {
	switch {
	case r.HasErrors():
		return ExitCheckError
	case r.HasViolations():
		return ExitViolationsFound
	default:
		return ExitSuccess
	}
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a run.
type ExitCode int

const (
	// ExitSuccess indicates the run completed with an empty report.
	ExitSuccess ExitCode = 0

	// ExitViolationsFound indicates one or more boundary violations
	// were reported.
	ExitViolationsFound ExitCode = 1

	// ExitCheckError indicates that source files failed to parse or a
	// config file was malformed. Results are still reported, but the
	// run cannot be trusted as a full pass.
	ExitCheckError ExitCode = 2

	// ExitUsageError indicates the invocation itself was invalid —
	// a missing application root, a target outside the root, or bad
	// flag values.
	ExitUsageError ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
