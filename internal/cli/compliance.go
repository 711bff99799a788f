// compliance.go implements the "policydesk compliance" command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/policy"
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Ask the compliance research agent which regulations apply",
	Long: `Send one request to the compliance research agent and print the
returned compliance items as a table.`,
	RunE: runCompliance,
}

var (
	complianceType         string
	complianceJurisdiction string
	complianceDepartments  string
)

func init() {
	complianceCmd.Flags().StringVar(&complianceType, "type", "", "Policy type, e.g. \"Remote Work\"")
	complianceCmd.Flags().StringVar(&complianceJurisdiction, "jurisdiction", "", "Jurisdiction, e.g. California")
	complianceCmd.Flags().StringVar(&complianceDepartments, "departments", "", "Departments the policy covers")
}

func runCompliance(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(complianceType) == "" || strings.TrimSpace(complianceJurisdiction) == "" {
		return errors.New("--type and --jurisdiction are required")
	}

	_, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := log.NewDiagnostic(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	// Only problems are worth printing next to the table.
	logger = logger.Level(max(logger.GetLevel(), zerolog.WarnLevel))

	svc := newService(cfg, logger)
	items, err := svc.ResearchCompliance(cmd.Context(), uuid.New().String(), agent.ComplianceQuery{
		PolicyType:   strings.TrimSpace(complianceType),
		Jurisdiction: strings.TrimSpace(complianceJurisdiction),
		Departments:  strings.TrimSpace(complianceDepartments),
	})
	if err != nil {
		return fmt.Errorf("compliance research: %s", agent.Message(err))
	}

	printCompliance(cmd.OutOrStdout(), items)
	return nil
}

func printCompliance(w io.Writer, items []policy.ComplianceItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No compliance items returned.")
		return
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STATUS", "REGULATION", "REQUIREMENT", "JURISDICTION", "RISK").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})

	counts := make(map[policy.ComplianceStatus]int)
	for _, it := range items {
		counts[it.Status]++
		t.Row(string(it.Status), it.Regulation, it.Requirement, it.Jurisdiction, string(it.RiskLevel))
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d compliant, %d needs review, %d non-compliant\n",
		counts[policy.Compliant], counts[policy.NeedsReview], counts[policy.NonCompliant])
}
