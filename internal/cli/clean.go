// clean.go implements the "policydesk clean" command pruning exported policies.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/cleanup"
	"github.com/policydesk/policydesk/internal/config"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove old exported policies",
	Long: `Remove old Markdown exports from .policydesk/exports/.

By default, removes exports older than --max-age-days (default 30).
Use --keep to keep only the N most recent exports instead.
Use --dry-run to preview what would be removed.`,
	RunE: runClean,
}

var (
	keepFlag   int
	maxAgeFlag int
	dryRunFlag bool
)

func init() {
	cleanCmd.Flags().IntVar(&keepFlag, "keep", 0, "Keep only the last N exports (0 = use age-based cleanup)")
	cleanCmd.Flags().IntVar(&maxAgeFlag, "max-age-days", 30, "Remove exports older than this many days")
	cleanCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Preview what would be removed without deleting")
}

func runClean(cmd *cobra.Command, args []string) error {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	exportsDir := config.ExportsDir(dir)

	var pruned []string
	var err error
	if keepFlag > 0 {
		pruned, err = cleanup.PruneKeepRecent(exportsDir, keepFlag, dryRunFlag)
	} else {
		maxAge := maxAgeFlag
		if maxAge <= 0 {
			maxAge = 30
		}
		pruned, err = cleanup.PruneByAge(exportsDir, maxAge, dryRunFlag)
	}
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(pruned) == 0 {
		fmt.Fprintln(out, "No exports to clean up.")
		return nil
	}

	verb := "Removed"
	if dryRunFlag {
		verb = "Would remove"
	}
	for _, name := range pruned {
		fmt.Fprintf(out, "  %s %s\n", verb, name)
	}
	fmt.Fprintf(out, "%s %d export(s).\n", verb, len(pruned))
	return nil
}
