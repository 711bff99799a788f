package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/tui"
)

// LibraryModel is the view model for the Policy Library screen. Picking a
// policy type starts an interview for it.
type LibraryModel struct {
	types    []policy.PolicyType
	selected int
	width    int
	height   int

	ctrlCPending bool
}

// NewLibraryModel creates a new LibraryModel over the known policy types.
func NewLibraryModel(width, height int) LibraryModel {
	return LibraryModel{types: policy.PolicyTypes, width: width, height: height}
}

// SetSize updates the available area.
func (m *LibraryModel) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *LibraryModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// Update handles messages for the library view.
func (m LibraryModel) Update(msg tea.Msg) (LibraryModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	keys := tui.DefaultKeyMap
	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.selected < len(m.types)-1 {
			m.selected++
		}
	case key.Matches(keyMsg, keys.Enter):
		if len(m.types) == 0 {
			return m, nil
		}
		name := m.types[m.selected].Name
		return m, func() tea.Msg { return tui.StartPolicyMsg{PolicyType: name} }
	}
	return m, nil
}

// View renders the library view.
func (m LibraryModel) View() string {
	var b strings.Builder
	width := clampWidth(m.width-8, 30, 90)

	b.WriteString(tui.TitleStyle.Render("Policy Library"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("Start from a policy template. The assistant tailors it during the interview."))
	b.WriteString("\n\n")

	for i, t := range m.types {
		text := t.Icon + "  " + t.Name + "\n" + tui.DimStyle.Render(t.Description)
		style := tui.CardStyle.Width(width)
		if i == m.selected {
			style = tui.BoxStyle.Padding(0, 1).Width(width)
		}
		b.WriteString(style.Render(text))
		b.WriteString("\n")
	}

	b.WriteString(footer("↑/↓ select · enter start interview · 1-4 navigate", m.ctrlCPending))
	return b.String()
}
