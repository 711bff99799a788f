// init.go implements the "policydesk init" command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .policydesk/config.yaml",
	Long: `Create the .policydesk/ directory with a default configuration.
Edit the file to point the wizard at your agent endpoint, or keep the
default to run against the offline mock agents.`,
	RunE: runInit,
}

var forceFlag bool

func init() {
	initCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := configDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}

	path := filepath.Join(dir, config.Dir, "config.yaml")
	if _, err := os.Stat(path); err == nil && !forceFlag {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if mockFlag {
		cfg.Agent.Mode = config.ModeMock
	}
	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "PolicyDesk initialized")
	fmt.Fprintf(out, "Configuration written to %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set agent.endpoint (or POLICYDESK_AGENT_ENDPOINT) to use remote agents")
	fmt.Fprintln(out, "  2. Run: policydesk")
	return nil
}
