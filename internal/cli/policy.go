// Package cli — policy.go implements the "embargo policy" command.
//
// The policy command answers "which rules govern this module?" without
// running a check: it resolves the nearest boundary config for a dotted
// module path exactly the way the checker does, and prints the effective
// rule sets. This makes the hierarchy walk inspectable when a violation
// (or its absence) is surprising.
package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/embargo/internal/model"
	"github.com/mmr-tortoise/embargo/internal/policy"
)

// policyFlags holds the flag values for the policy command.
type policyFlags struct {
	// appRoot is the application root directory, as in the check command.
	appRoot string
}

// NewPolicyCommand creates the "policy" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewPolicyCommand() *cobra.Command {
	flags := &policyFlags{}

	cmd := &cobra.Command{
		Use:   "policy <module-path>",
		Short: "Show the boundary policy governing a module",
		Long: `Show the effective boundary policy for a dotted module path: the
governing __embargo__.json file (found by the same nearest-ancestor walk
the checker uses) and its allowed-export, allowed-import, and bypass sets.

Examples:
  embargo policy payments.bank.private_banking_services
  embargo policy payments --app-root src --json`,

		// Exactly one module path is required.
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPolicy(flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.appRoot, "app-root", "",
		"Application root directory bounding all policy lookups (default: working directory)")

	return cmd
}

// runPolicy resolves and prints the governing policy for one module path.
func runPolicy(flags *policyFlags, module string) error {
	// Settings supply the default app root here too, so "embargo policy"
	// and "embargo check" always agree on the hierarchy bounds.
	settings, err := LoadSettings(".")
	if err != nil {
		return err
	}
	if settings == nil {
		settings = &Settings{}
	}

	root, err := resolveAppRoot(flags.appRoot, settings)
	if err != nil {
		return err
	}

	resolver := policy.NewResolver(root)
	pol, err := resolver.ResolveModule(model.ModulePath(module))
	if err != nil {
		// A broken config on the resolution path is the same hard error
		// the checker reports — exit code 2, not a silent "ungoverned".
		return model.WrapCLIError(model.ExitCheckError,
			fmt.Sprintf("cannot resolve policy for %s", module), err)
	}

	printPolicyResult(root, module, pol)
	return nil
}

// policyJSON is the JSON output structure for the policy command.
// The pointer fields keep the absent-vs-empty distinction visible in the
// output: null means "not declared, check skipped", [] means "deny all".
type policyJSON struct {
	Module     string    `json:"module"`
	Governed   bool      `json:"governed"`
	ConfigPath string    `json:"configPath,omitempty"`
	Exports    *[]string `json:"allowedExportModules"`
	Imports    *[]string `json:"allowedImportModules"`
	Bypass     []string  `json:"bypassExportCheckForModules,omitempty"`
}

// printPolicyResult outputs the resolution result in text or JSON format.
func printPolicyResult(root, module string, pol *model.BoundaryPolicy) {
	if IsJSONOutput() {
		out := policyJSON{Module: module}
		if pol != nil {
			out.Governed = true
			out.ConfigPath = relToRoot(root, pol.ConfigPath)
			out.Exports = pol.AllowedExportModules
			out.Imports = pol.AllowedImportModules
			out.Bypass = pol.BypassExportCheckForModules
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	if pol == nil {
		fmt.Printf("No boundary policy governs %s — all checks skipped.\n", module)
		return
	}

	fmt.Printf("Module:          %s\n", module)
	fmt.Printf("Config file:     %s\n", relToRoot(root, pol.ConfigPath))
	fmt.Printf("Allowed exports: %s\n", formatRuleSet(pol.AllowedExportModules))
	fmt.Printf("Allowed imports: %s\n", formatRuleSet(pol.AllowedImportModules))
	if len(pol.BypassExportCheckForModules) > 0 {
		fmt.Printf("Export bypass:   %s\n", formatAllowed(pol.BypassExportCheckForModules))
	}
}

// formatRuleSet renders an optional rule set, keeping the three policy
// states distinct for the reader.
func formatRuleSet(set *[]string) string {
	switch {
	case set == nil:
		return "(not declared — check skipped)"
	case len(*set) == 0:
		return "[] (deny all)"
	default:
		return formatAllowed(*set)
	}
}

// relToRoot makes a path root-relative for display, matching the
// checker's violation output.
func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
