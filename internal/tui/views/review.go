package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/policydesk/policydesk/internal/flow"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/tui"
)

// ============================================================================
// ReviewModel
// ============================================================================

// compliancePanelWidth is the width of the compliance side panel.
const compliancePanelWidth = 40

// ReviewModel is the view model for the draft review screen.
type ReviewModel struct {
	rv       *flow.Review
	editor   textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int

	ctrlCPending bool
}

// NewReviewModel creates a new ReviewModel for rv.
func NewReviewModel(rv *flow.Review, width, height int) ReviewModel {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.SelectedStyle

	m := ReviewModel{
		rv:       rv,
		editor:   ta,
		viewport: viewport.New(60, 10),
		spinner:  sp,
	}
	m.SetSize(width, height)
	return m
}

// SetSize updates the available area and lays out the components.
func (m *ReviewModel) SetSize(width, height int) {
	m.width, m.height = width, height
	docWidth := max(30, width-compliancePanelWidth-4)
	// header, status, metadata card, footer
	docHeight := max(4, height-12)
	m.viewport.Width = docWidth
	m.viewport.Height = docHeight
	m.editor.SetWidth(docWidth)
	m.editor.SetHeight(docHeight)
	m.Refresh()
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *ReviewModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// Editing reports whether the content is open in the editor.
func (m ReviewModel) Editing() bool {
	return m.rv != nil && m.rv.Editing
}

// StartSpinner returns the command that animates the generation indicator.
func (m ReviewModel) StartSpinner() tea.Cmd {
	return m.spinner.Tick
}

// Refresh re-renders the document after the review changed.
func (m *ReviewModel) Refresh() {
	if m.rv == nil {
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(m.rv.Edited))
}

// Update handles messages for the review view.
func (m ReviewModel) Update(msg tea.Msg) (ReviewModel, tea.Cmd) {
	if m.rv == nil {
		return m, nil
	}
	keys := tui.DefaultKeyMap

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.rv.Gen.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.rv.Editing {
			switch {
			case key.Matches(msg, keys.Save):
				m.rv.SetEdited(m.editor.Value())
				m.rv.ToggleEdit()
				m.editor.Blur()
				m.Refresh()
				return m, nil
			case key.Matches(msg, keys.Escape):
				m.rv.ToggleEdit()
				m.editor.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Edit):
			if m.rv.Gen.Busy() {
				return m, nil
			}
			m.rv.ToggleEdit()
			m.editor.SetValue(m.rv.Edited)
			return m, m.editor.Focus()

		case key.Matches(msg, keys.Approve):
			if m.rv.Gen.Busy() {
				return m, nil
			}
			draft := m.rv.Approved()
			return m, func() tea.Msg { return tui.ApproveMsg{Draft: draft} }

		case key.Matches(msg, keys.Back):
			return m, func() tea.Msg { return tui.BackToInterviewMsg{} }
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.rv.Editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the review view.
func (m ReviewModel) View() string {
	if m.rv == nil {
		return ""
	}
	d := m.rv.Draft
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render(d.Title))
	b.WriteString("\n")

	switch m.rv.Gen.Phase {
	case flow.PhaseGenerating:
		b.WriteString(m.spinner.View() + tui.DimStyle.Render(" Generating draft and researching compliance..."))
	case flow.PhaseError:
		b.WriteString(tui.ErrorStyle.Render("Draft generation failed: " + m.rv.Gen.Err))
	case flow.PhaseSuccess:
		if m.rv.Replaced {
			b.WriteString(tui.SuccessStyle.Render("Draft generated"))
		} else {
			b.WriteString(tui.DimStyle.Render("Showing the initial draft"))
		}
	}
	b.WriteString("\n\n")

	words := d.WordCount
	if m.rv.Edited != d.Content {
		words = policy.CountWords(m.rv.Edited)
	}
	meta := fmt.Sprintf("%s %s   %s %s   %s %s   %s %d",
		tui.DimStyle.Render("Type"), orDash(d.Type),
		tui.DimStyle.Render("Effective"), orDash(d.Metadata.EffectiveDate),
		tui.DimStyle.Render("Departments"), orDash(d.Metadata.Departments),
		tui.DimStyle.Render("Words"), words,
	)
	b.WriteString(tui.CardStyle.Render(meta))
	b.WriteString("\n")

	if m.rv.Editing {
		b.WriteString(m.editor.View())
		b.WriteString("\n")
		b.WriteString(footer("ctrl+s save · esc cancel", m.ctrlCPending))
	} else {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(footer("e edit · a approve · b back to interview · ↑/↓ scroll · esc esc dashboard", m.ctrlCPending))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, b.String(), "  ", renderCompliance(d))
}

// renderCompliance renders the compliance panel of a draft.
func renderCompliance(d policy.Draft) string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Compliance Check"))
	b.WriteString("\n")

	counts := d.ComplianceSummary()
	b.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d\n\n",
		tui.IconCompliant, counts[policy.Compliant],
		tui.IconNeedsReview, counts[policy.NeedsReview],
		tui.IconNonCompliant, counts[policy.NonCompliant],
	))

	if len(d.Compliance) == 0 {
		b.WriteString(tui.DimStyle.Render("No compliance items"))
	}
	for _, c := range d.Compliance {
		b.WriteString(tui.StatusIcon(c.Status) + " " + c.Regulation)
		b.WriteString("\n  ")
		b.WriteString(tui.DimStyle.Render(c.Requirement))
		b.WriteString("\n  ")
		b.WriteString(tui.DimStyle.Render(c.Jurisdiction) + " · " + tui.RiskBadge(c.RiskLevel))
		b.WriteString("\n\n")
	}
	return tui.CardStyle.Width(compliancePanelWidth - 2).Render(b.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
