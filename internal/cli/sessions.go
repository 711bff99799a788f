// sessions.go implements the "policydesk sessions" command.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/policy"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List policy sessions",
	Long: `Print the session registry shown on the dashboard, newest first,
followed by the dashboard statistics. With --events N, the last N
wizard events from .policydesk/log.jsonl are printed as well.`,
	RunE: runSessions,
}

var (
	sessionsLimit  int
	sessionsEvents int
)

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "Maximum number of sessions to list")
	sessionsCmd.Flags().IntVar(&sessionsEvents, "events", 0, "Also print the last N wizard events")
}

func runSessions(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(cmd.Context(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	out := cmd.OutOrStdout()
	printSessions(out, sessions)
	fmt.Fprintf(out, "Total policies: %d  Compliance passed: %d  Pending reviews: %d\n",
		stats.TotalPolicies, stats.CompliancePassed, stats.PendingReviews)

	if sessionsEvents <= 0 {
		return nil
	}
	events, err := log.NewLogger(dir)
	if err != nil {
		return err
	}
	recent, err := events.Recent(sessionsEvents)
	if err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}
	fmt.Fprintln(out)
	printEvents(out, recent)
	return nil
}

func printEvents(w io.Writer, events []log.LogEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No wizard events logged.")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "EVENT", "SESSION", "DETAIL").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	for _, e := range events {
		t.Row(e.Time.Local().Format("2006-01-02 15:04"), e.Event, shortID(e.SessionID), eventDetail(e))
	}
	fmt.Fprintln(w, t.Render())
}

// eventDetail picks the most telling field of an event.
func eventDetail(e log.LogEvent) string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Path != "":
		return e.Path
	case e.Title != "":
		return e.Title
	case e.PolicyType != "":
		return e.PolicyType
	case e.Progress > 0:
		return fmt.Sprintf("progress %d%%", e.Progress)
	}
	return ""
}

func printSessions(w io.Writer, sessions []policy.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions yet. Start one with: policydesk")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TYPE", "TITLE", "STATUS", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	for _, s := range sessions {
		t.Row(shortID(s.ID), s.Type, s.Title, string(s.Status), s.LastUpdated)
	}
	fmt.Fprintln(w, t.Render())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
