// Package cli — check.go implements the "embargo check" command.
//
// The check command expands its target paths into Python source files,
// extracts each file's absolute imports, evaluates every import against
// the boundary policies in the directory hierarchy, and prints the
// aggregated violation report as text or JSON.
//
// Exit codes: 0 clean, 1 violations found, 2 parse/config errors
// occurred, 3 invalid invocation. All available results are reported
// even when the run fails.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embargo/internal/check"
	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/modpath"
)

// checkFlags holds the flag values for the check command.
// These are bound to cobra flags in NewCheckCommand.
type checkFlags struct {
	// appRoot is the application root directory — the upper bound for
	// all hierarchy walks. Defaults to the working directory (or the
	// .embargo.yml value when present).
	appRoot string

	// workers bounds the per-file check parallelism. 0 means "decide
	// from settings or CPU count".
	workers int

	// watch keeps the process alive and re-runs the check whenever the
	// source tree changes.
	watch bool
}

// NewCheckCommand creates the "check" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCheckCommand() *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check Python imports against declared boundaries",
		Long: `Check the given files and directories (default: the whole application
root) for imports that cross declared module boundaries.

Directories are expanded recursively to .py files. Each import is checked
in both directions: against the exported surface of the imported module's
subtree, and against the allowed imports of the consuming subtree.

Examples:
  embargo check
  embargo check orders/ payments/
  embargo check --app-root src --json
  embargo check --watch`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.appRoot, "app-root", "",
		"Application root directory bounding all policy lookups (default: working directory)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0,
		"Number of concurrent check workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false,
		"Re-run the check whenever the source tree changes")

	return cmd
}

// runCheck is the main logic function for the check command.
// It resolves settings and flags, discovers target files, runs the
// concurrent checker pass, and renders the report.
func runCheck(ctx context.Context, flags *checkFlags, args []string) error {
	// Step 1: Load optional tool settings from the working directory.
	// Flags override settings; settings override built-in defaults.
	settings, err := LoadSettings(".")
	if err != nil {
		return err
	}
	if settings == nil {
		settings = &Settings{}
	}

	// Step 2: Resolve the application root to an absolute directory.
	root, err := resolveAppRoot(flags.appRoot, settings)
	if err != nil {
		return err
	}
	VerboseLog("Application root: %s", root)

	// Step 3: Compile user ignore patterns. The built-in ignore list
	// (__pycache__ and friends) applies regardless.
	var matcher *ignore.GitIgnore
	if len(settings.Ignore) > 0 {
		matcher = ignore.CompileIgnoreLines(settings.Ignore...)
	}

	workers := flags.workers
	if workers == 0 {
		workers = settings.Workers
	}

	// Step 4: Default to checking the entire application root when no
	// targets are given.
	targets := args
	if len(targets) == 0 {
		targets = []string{"."}
	}

	runOnce := func(ctx context.Context) (model.ExitCode, error) {
		return checkOnce(ctx, root, targets, matcher, workers)
	}

	if flags.watch {
		return watchLoop(ctx, root, runOnce)
	}

	code, err := runOnce(ctx)
	if err != nil {
		return err
	}
	return exitError(code)
}

// checkOnce performs a single full checker pass and prints its report.
// Returns the exit code the pass maps to.
func checkOnce(ctx context.Context, root string, targets []string, matcher *ignore.GitIgnore, workers int) (model.ExitCode, error) {
	// Discover the files to check. A bad target (missing, or outside
	// the root) is reported and skipped; the remaining targets still run.
	files, targetErrs := modpath.Discover(targets, root, matcher)
	for _, terr := range targetErrs {
		fmt.Fprintf(os.Stderr, "Warning: skipping target: %v\n", terr)
	}
	VerboseLog("Discovered %d file(s) to check", len(files))

	runner, err := check.NewRunner(root, workers)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitUsageError, "failed to prepare check run", err)
	}

	report, err := runner.Run(ctx, files)
	if err != nil {
		return 0, model.WrapCLIError(model.ExitUsageError, "check run aborted", err)
	}

	printReport(report)

	// A skipped target means the requested scope was not fully checked,
	// which outranks a clean (or even violating) partial result.
	code := report.ExitCode()
	if len(targetErrs) > 0 {
		code = model.ExitUsageError
	}
	return code, nil
}

// resolveAppRoot turns the --app-root flag (or settings value) into an
// absolute directory path, validating that it exists.
func resolveAppRoot(flagValue string, settings *Settings) (string, error) {
	rootArg := flagValue
	if rootArg == "" {
		rootArg = settings.AppRoot
	}
	if rootArg == "" {
		rootArg = "."
	}

	root, err := filepath.Abs(rootArg)
	if err != nil {
		return "", model.WrapCLIError(model.ExitUsageError,
			fmt.Sprintf("invalid application root %q", rootArg), err)
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", model.NewCLIError(model.ExitUsageError,
			fmt.Sprintf("application root %s is not a directory", root))
	}
	return root, nil
}

// exitError maps a non-success exit code to the CLIError the root
// command's Execute translates into the process exit status. The report
// has already been printed at this point; the error only carries the code
// and a one-line summary for stderr.
func exitError(code model.ExitCode) error {
	switch code {
	case model.ExitSuccess:
		return nil
	case model.ExitViolationsFound:
		return model.NewCLIError(code, "boundary violations found")
	case model.ExitCheckError:
		return model.NewCLIError(code, "parse or config errors occurred")
	default:
		return model.NewCLIError(code, "check did not cover all requested targets")
	}
}

// printReport outputs the report in text or JSON format, depending on
// the global --json flag.
func printReport(report *model.Report) {
	if IsJSONOutput() {
		printReportJSON(report)
	} else {
		printReportText(report)
	}
}

// printReportJSON outputs the full report as structured JSON. The
// report's canonical ordering makes the output byte-identical across
// runs on the same input.
func printReportJSON(report *model.Report) {
	data, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(data))
}

// printReportText outputs the report grouped by violation kind:
//
//	❌ Export violations detected
//
//	orders/orders_service.py: payments.private_utils
//	  Allowed exports: [payments.payment_service]
//	  Config file: payments/__embargo__.json
//
// followed by parse failures and config errors, if any. A clean run
// prints a single confirmation line.
func printReportText(report *model.Report) {
	if report.Clean() {
		fmt.Println("No boundary violations found.")
		return
	}

	printViolationGroup("❌ Export violations detected", "Allowed exports",
		report.ByKind(model.KindExport))
	printViolationGroup("❌ Import violations detected", "Allowed imports",
		report.ByKind(model.KindImport))

	if len(report.ParseFailures) > 0 {
		fmt.Println("⚠ Files skipped (parse failures)")
		fmt.Println()
		for _, pf := range report.ParseFailures {
			fmt.Printf("%s: %s\n", pf.File, pf.Message)
		}
		fmt.Println()
	}

	if len(report.ConfigErrors) > 0 {
		fmt.Println("⚠ Broken boundary configs")
		fmt.Println()
		for _, ce := range report.ConfigErrors {
			fmt.Printf("%s: %s\n", ce.ConfigPath, ce.Message)
		}
		fmt.Println()
	}

	fmt.Printf("%d violation(s), %d parse failure(s), %d config error(s)\n",
		len(report.Violations), len(report.ParseFailures), len(report.ConfigErrors))
}

// printViolationGroup renders one kind's violations under a header.
// Nothing is printed for an empty group.
func printViolationGroup(header, allowedLabel string, violations []model.Violation) {
	if len(violations) == 0 {
		return
	}
	fmt.Println(header)
	fmt.Println()
	for _, v := range violations {
		fmt.Printf("%s: %s\n", v.ConsumingFile, v.ImportedModule)
		fmt.Printf("  %s: %s\n", allowedLabel, formatAllowed(v.Allowed))
		fmt.Printf("  Config file: %s\n", v.ConfigPath)
		fmt.Println()
	}
}

// formatAllowed renders an allowed-set snapshot. The empty set is shown
// as [] — "nothing is allowed" is a real policy, not missing data.
func formatAllowed(allowed []string) string {
	out := "["
	for i, a := range allowed {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out + "]"
}
