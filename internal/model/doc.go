// Package model defines the domain types and value objects for the
// embargo CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (ModulePath, BoundaryPolicy, Violation, Report) are transient
// representations built from the scanned source tree during a single run —
// there are no persistent state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
