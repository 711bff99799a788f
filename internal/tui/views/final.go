package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/policydesk/policydesk/internal/flow"
	"github.com/policydesk/policydesk/internal/tui"
)

// ============================================================================
// FinalModel
// ============================================================================

// FinalModel is the view model for the final policy screen.
type FinalModel struct {
	fn        *flow.Final
	viewport  viewport.Model
	spinner   spinner.Model
	exportErr string
	width     int
	height    int

	ctrlCPending bool
}

// NewFinalModel creates a new FinalModel for fn.
func NewFinalModel(fn *flow.Final, width, height int) FinalModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.SelectedStyle

	m := FinalModel{
		fn:       fn,
		viewport: viewport.New(60, 10),
		spinner:  sp,
	}
	m.SetSize(width, height)
	return m
}

// SetSize updates the available area and lays out the document.
func (m *FinalModel) SetSize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = clampWidth(width-6, 30, 110)
	m.viewport.Height = max(4, height-12)
	m.Refresh()
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *FinalModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// SetExportError records a failed export for display.
func (m *FinalModel) SetExportError(err error) {
	if err == nil {
		m.exportErr = ""
		return
	}
	m.exportErr = err.Error()
}

// StartSpinner returns the command that animates the finalization indicator.
func (m FinalModel) StartSpinner() tea.Cmd {
	return m.spinner.Tick
}

// Refresh re-renders the document after finalization changed it.
func (m *FinalModel) Refresh() {
	if m.fn == nil {
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(m.fn.Draft.Content))
}

// Update handles messages for the final policy view.
func (m FinalModel) Update(msg tea.Msg) (FinalModel, tea.Cmd) {
	if m.fn == nil {
		return m, nil
	}
	keys := tui.DefaultKeyMap

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.fn.Gen.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Export):
			if m.fn.Gen.Busy() {
				return m, nil
			}
			return m, func() tea.Msg { return tui.ExportMsg{} }
		case key.Matches(msg, keys.Dashboard):
			return m, func() tea.Msg { return tui.NavigateMsg{State: tui.StateDashboard} }
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the final policy view.
func (m FinalModel) View() string {
	if m.fn == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render(m.fn.Draft.Title))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render(fmt.Sprintf("Document ID: %s  |  Version: 1.0  |  Generated: %s",
		m.fn.DocumentID, m.fn.GeneratedAt.Format("January 2, 2006"))))
	b.WriteString("\n")

	switch m.fn.Gen.Phase {
	case flow.PhaseGenerating:
		b.WriteString(m.spinner.View() + tui.DimStyle.Render(" Finalizing policy..."))
	case flow.PhaseError:
		b.WriteString(tui.ErrorStyle.Render("Finalization failed: " + m.fn.Gen.Err))
	case flow.PhaseSuccess:
		b.WriteString(tui.SuccessStyle.Render("✓ Compliance Validated") + tui.DimStyle.Render("  ·  Ready for distribution"))
	}
	b.WriteString("\n\n")

	b.WriteString(tui.BoxStyle.Padding(0, 1).Render(m.viewport.View()))
	b.WriteString("\n")

	switch {
	case m.exportErr != "":
		b.WriteString(tui.ErrorStyle.Render("Export failed: " + m.exportErr))
		b.WriteString("\n")
	case m.fn.ExportedTo != "":
		b.WriteString(tui.SuccessStyle.Render("Exported to " + m.fn.ExportedTo))
		b.WriteString("\n")
	}

	b.WriteString(footer("x export markdown · d dashboard · ↑/↓ scroll", m.ctrlCPending))
	return b.String()
}
