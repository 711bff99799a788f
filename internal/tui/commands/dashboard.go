package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
	"github.com/policydesk/policydesk/internal/tui"
)

// dashboardLimit caps the sessions loaded for the dashboard and the
// Active Policies screen.
const dashboardLimit = 50

// LoadDashboardCmd loads the session registry and its statistics.
func LoadDashboardCmd(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return tui.DashboardLoadedMsg{}
		}
		ctx := context.Background()
		sessions, err := store.ListSessions(ctx, dashboardLimit)
		if err != nil {
			return tui.DashboardLoadedMsg{Err: err}
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			return tui.DashboardLoadedMsg{Sessions: sessions, Err: err}
		}
		return tui.DashboardLoadedMsg{Sessions: sessions, Stats: stats}
	}
}

// RecordPolicyCmd registers a finalized policy and its interview transcript.
func RecordPolicyCmd(store *session.Store, rec session.Record, transcript []policy.Message) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return tui.PolicyRecordedMsg{}
		}
		sess, err := store.RecordPolicy(context.Background(), rec, transcript)
		return tui.PolicyRecordedMsg{Session: sess, Err: err}
	}
}

// LoadTranscriptCmd loads the stored conversation of one session.
func LoadTranscriptCmd(store *session.Store, sessionID string) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return tui.TranscriptLoadedMsg{SessionID: sessionID}
		}
		msgs, err := store.GetMessages(context.Background(), sessionID)
		return tui.TranscriptLoadedMsg{SessionID: sessionID, Messages: msgs, Err: err}
	}
}

// ExportCmd writes the final policy as Markdown to
// .policydesk/exports/<documentID>.md inside dir.
func ExportCmd(dir, documentID, markdown string) tea.Cmd {
	return func() tea.Msg {
		path, err := WriteExport(dir, documentID, markdown)
		return tui.ExportedMsg{Path: path, Err: err}
	}
}

// WriteExport writes markdown under dir and returns the file path.
func WriteExport(dir, documentID, markdown string) (string, error) {
	exportDir := config.ExportsDir(dir)
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("creating exports directory: %w", err)
	}
	path := filepath.Join(exportDir, documentID+".md")
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
