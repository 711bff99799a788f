package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/tui"
)

// ============================================================================
// SessionItem
// ============================================================================

// SessionItem implements list.Item for the session list.
type SessionItem struct {
	session policy.Session
}

// NewSessionItem creates a new SessionItem from a Session.
func NewSessionItem(s policy.Session) SessionItem {
	return SessionItem{session: s}
}

// Title returns the session title for list display.
func (i SessionItem) Title() string {
	return i.session.Title
}

// Description returns the session type, status and age for list display.
func (i SessionItem) Description() string {
	return fmt.Sprintf("%s - %s (%s)", i.session.Type, i.session.Status, i.session.LastUpdated)
}

// FilterValue returns the value used for filtering in the list.
func (i SessionItem) FilterValue() string {
	return i.session.Title
}

// ============================================================================
// PoliciesModel
// ============================================================================

// PoliciesModel is the view model for the Active Policies screen: the full
// session registry plus the stored transcript of the selected session.
type PoliciesModel struct {
	list          list.Model
	sessionsError string
	transcriptFor string
	transcript    []policy.Message
	transcriptErr string
	width         int
	height        int

	ctrlCPending bool
}

// NewPoliciesModel creates a new PoliciesModel.
func NewPoliciesModel(width, height int) PoliciesModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("#2563EB")).
		BorderForeground(lipgloss.Color("#2563EB"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("#9CA3AF"))

	l := list.New(nil, delegate, 40, 10)
	l.Title = "Active Policies"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	m := PoliciesModel{list: l}
	m.SetSize(width, height)
	return m
}

// SetSize updates the available area.
func (m *PoliciesModel) SetSize(width, height int) {
	m.width, m.height = width, height
	m.list.SetSize(clampWidth(width/2, 30, 60), max(6, height-4))
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *PoliciesModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// SetSessions replaces the listed sessions.
func (m *PoliciesModel) SetSessions(msg tui.DashboardLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.sessionsError = "Failed to load sessions: " + msg.Err.Error()
		return nil
	}
	m.sessionsError = ""
	items := make([]list.Item, len(msg.Sessions))
	for i, s := range msg.Sessions {
		items[i] = NewSessionItem(s)
	}
	return m.list.SetItems(items)
}

// SetTranscript shows a loaded transcript.
func (m *PoliciesModel) SetTranscript(msg tui.TranscriptLoadedMsg) {
	m.transcriptFor = msg.SessionID
	m.transcript = msg.Messages
	m.transcriptErr = ""
	if msg.Err != nil {
		m.transcriptErr = msg.Err.Error()
	}
}

// Update handles messages for the policies view.
func (m PoliciesModel) Update(msg tea.Msg) (PoliciesModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == tui.KeyEnter {
		if item, ok := m.list.SelectedItem().(SessionItem); ok {
			id := item.session.ID
			return m, func() tea.Msg { return tui.ShowTranscriptMsg{SessionID: id} }
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the policies view.
func (m PoliciesModel) View() string {
	var left string
	if m.sessionsError != "" {
		left = tui.ErrorStyle.Render(m.sessionsError)
	} else {
		left = m.list.View()
	}

	var right strings.Builder
	right.WriteString(tui.TitleStyle.Render("Transcript"))
	right.WriteString("\n\n")
	switch {
	case m.transcriptErr != "":
		right.WriteString(tui.ErrorStyle.Render(m.transcriptErr))
	case m.transcriptFor == "":
		right.WriteString(tui.DimStyle.Render("Select a policy and press enter"))
	case len(m.transcript) == 0:
		right.WriteString(tui.DimStyle.Render("No conversation stored for this policy"))
	default:
		right.WriteString(renderTranscript(m.transcript, clampWidth(m.width/2-4, 30, 70)))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right.String())
	return body + "\n" + footer("↑/↓ select · enter transcript · 1-4 navigate", m.ctrlCPending)
}
