package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
	"github.com/policydesk/policydesk/internal/tui"
)

// ============================================================================
// DashboardModel
// ============================================================================

// dashboardSessions is how many active policies the dashboard lists.
const dashboardSessions = 5

// DashboardModel is the view model for the dashboard screen.
type DashboardModel struct {
	sessions      []policy.Session
	stats         session.Stats
	sessionsError string
	selected      int
	width         int
	height        int

	// Ctrl+C confirmation state
	ctrlCPending bool
}

// NewDashboardModel creates a new DashboardModel.
func NewDashboardModel(width, height int) DashboardModel {
	return DashboardModel{width: width, height: height}
}

// SetData replaces the sessions and statistics shown.
func (m *DashboardModel) SetData(msg tui.DashboardLoadedMsg) {
	if msg.Err != nil {
		m.sessionsError = "Failed to load sessions: " + msg.Err.Error()
		return
	}
	m.sessionsError = ""
	m.sessions = msg.Sessions
	m.stats = msg.Stats
	if m.selected >= len(m.visible()) {
		m.selected = 0
	}
}

// SetSize updates the available area.
func (m *DashboardModel) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *DashboardModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

func (m DashboardModel) visible() []policy.Session {
	if len(m.sessions) > dashboardSessions {
		return m.sessions[:dashboardSessions]
	}
	return m.sessions
}

// Update handles messages for the dashboard view.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	keys := tui.DefaultKeyMap
	switch {
	case key.Matches(keyMsg, keys.NewPolicy):
		return m, func() tea.Msg { return tui.StartPolicyMsg{} }
	case key.Matches(keyMsg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.selected < len(m.visible())-1 {
			m.selected++
		}
	case keyMsg.String() == "v":
		if s := m.visible(); len(s) > 0 {
			id := s[m.selected].ID
			return m, func() tea.Msg { return tui.ShowTranscriptMsg{SessionID: id} }
		}
	}
	return m, nil
}

// View renders the dashboard view.
func (m DashboardModel) View() string {
	var b strings.Builder
	width := clampWidth(m.width-4, 40, 110)

	// Hero
	hero := tui.TitleStyle.Render("Create a new HR policy") + "\n" +
		tui.DimStyle.Render("Answer a few questions and get a compliant, ready-to-publish policy draft.") + "\n\n" +
		tui.SelectedStyle.Render("[n] Create New Policy")
	b.WriteString(tui.BoxStyle.Width(width - 4).Render(hero))
	b.WriteString("\n\n")

	// Stats
	card := func(label string, value int) string {
		return tui.CardStyle.Width((width-12)/3).Render(
			tui.DimStyle.Render(label) + "\n" + tui.TitleStyle.Render(fmt.Sprintf("%d", value)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Policies", m.stats.TotalPolicies), " ",
		card("Compliance Passed", m.stats.CompliancePassed), " ",
		card("Pending Reviews", m.stats.PendingReviews),
	))
	b.WriteString("\n\n")

	// Active policies
	b.WriteString(tui.TitleStyle.Render("Active Policies"))
	b.WriteString("\n")
	switch {
	case m.sessionsError != "":
		b.WriteString(tui.ErrorStyle.Render(m.sessionsError))
	case len(m.sessions) == 0:
		b.WriteString(tui.DimStyle.Render("No policies yet"))
	default:
		for i, s := range m.visible() {
			b.WriteString(renderSessionRow(s, i == m.selected))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(footer("n new policy · ↑/↓ select · v view transcript · 1-4 navigate", m.ctrlCPending))
	return b.String()
}

func renderSessionRow(s policy.Session, selected bool) string {
	cursor := "  "
	title := s.Title
	if selected {
		cursor = tui.SelectedStyle.Render("▸ ")
		title = tui.SelectedStyle.Render(title)
	}
	return fmt.Sprintf("%s%s  %s  %s", cursor, title, tui.SessionBadge(s.Status), tui.DimStyle.Render(s.LastUpdated))
}
