package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
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
// InterviewModel
// ============================================================================

// gatheredPanelWidth is the width of the gathered information panel.
const gatheredPanelWidth = 34

// InterviewModel is the view model for the interview screen. It renders a
// flow.Interview owned by the app and turns key presses into intents.
type InterviewModel struct {
	iv       *flow.Interview
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	bar      progress.Model
	width    int
	height   int

	ctrlCPending bool
}

// NewInterviewModel creates a new InterviewModel for iv.
func NewInterviewModel(iv *flow.Interview, width, height int) InterviewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your answer..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.SelectedStyle

	m := InterviewModel{
		iv:       iv,
		input:    ta,
		viewport: viewport.New(60, 10),
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.SetSize(width, height)
	return m
}

// Init returns the initial command for the interview view.
func (m InterviewModel) Init() tea.Cmd {
	return textarea.Blink
}

// SetSize updates the available area and lays out the components.
func (m *InterviewModel) SetSize(width, height int) {
	m.width, m.height = width, height
	chatWidth := max(30, width-gatheredPanelWidth-4)
	m.input.SetWidth(chatWidth)
	m.bar.Width = max(10, chatWidth-30)
	m.viewport.Width = chatWidth
	// header, progress line, banner, input, footer
	m.viewport.Height = max(4, height-13)
	m.Refresh()
}

// SetCtrlCPending sets the Ctrl+C pending state for display.
func (m *InterviewModel) SetCtrlCPending(pending bool) {
	m.ctrlCPending = pending
}

// StartSpinner returns the command that animates the typing indicator.
func (m InterviewModel) StartSpinner() tea.Cmd {
	return m.spinner.Tick
}

// Refresh re-renders the transcript after the interview changed.
func (m *InterviewModel) Refresh() {
	if m.iv == nil {
		return
	}
	m.viewport.SetContent(renderTranscript(m.iv.Messages, m.viewport.Width))
	m.viewport.GotoBottom()
}

// Update handles messages for the interview view.
func (m InterviewModel) Update(msg tea.Msg) (InterviewModel, tea.Cmd) {
	if m.iv == nil {
		return m, nil
	}
	keys := tui.DefaultKeyMap

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.iv.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.iv.Busy() {
				return m, nil
			}
			m.input.Reset()
			return m, func() tea.Msg { return tui.SubmitMessageMsg{Text: text} }

		case key.Matches(msg, keys.Generate):
			if !m.iv.CanGenerateDraft() {
				return m, nil
			}
			return m, func() tea.Msg { return tui.GenerateDraftMsg{} }

		case key.Matches(msg, keys.PageUp), key.Matches(msg, keys.PageDn):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the interview view.
func (m InterviewModel) View() string {
	if m.iv == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Policy Interview"))
	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("Answer the assistant's questions to build your policy requirements."))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Progress %3d%% %s %s\n",
		m.iv.Progress,
		m.bar.ViewAs(float64(m.iv.Progress)/100),
		tui.DimStyle.Render(fmt.Sprintf("~%d questions remaining", m.iv.QuestionsRemaining())),
	))

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	switch {
	case m.iv.Busy():
		b.WriteString(m.spinner.View() + tui.DimStyle.Render(" Assistant is typing..."))
	case m.iv.Err != "":
		b.WriteString(tui.ErrorBannerStyle.Render("Error: " + m.iv.Err))
	}
	b.WriteString("\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")

	hints := "enter send · pgup/pgdn scroll · esc esc dashboard"
	if m.iv.CanGenerateDraft() {
		hints = "ctrl+g generate draft · " + hints
	}
	b.WriteString(footer(hints, m.ctrlCPending))

	return lipgloss.JoinHorizontal(lipgloss.Top, b.String(), "  ", m.renderGathered())
}

func (m InterviewModel) renderGathered() string {
	var b strings.Builder
	b.WriteString(tui.TitleStyle.Render("Gathered Information"))
	b.WriteString("\n\n")

	fields := m.iv.Gathered.Fields()
	if len(fields) == 0 {
		b.WriteString(tui.DimStyle.Render("Nothing gathered yet"))
	}
	for _, f := range fields {
		b.WriteString(tui.DimStyle.Render(f.Label))
		b.WriteString("\n")
		b.WriteString(f.Value)
		b.WriteString("\n\n")
	}

	if m.iv.CanGenerateDraft() {
		b.WriteString("\n")
		b.WriteString(tui.SuccessStyle.Render("Ready to draft"))
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Render("Press ctrl+g to generate the draft."))
	}

	return tui.CardStyle.Width(gatheredPanelWidth - 2).Render(b.String())
}

// renderTranscript renders messages as chat bubbles wrapped to width.
func renderTranscript(msgs []policy.Message, width int) string {
	bubbleWidth := max(20, width*3/4)
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Sender == policy.SenderUser {
			bubble := tui.UserBubbleStyle.Width(bubbleWidth).Render(msg.Content)
			meta := tui.DimStyle.Render("You · " + msg.Timestamp)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, meta+"\n"+bubble))
			continue
		}
		b.WriteString(tui.DimStyle.Render("Policy Assistant · " + msg.Timestamp))
		b.WriteString("\n")
		b.WriteString(tui.AgentBubbleStyle.Width(bubbleWidth).Render(msg.Content))
	}
	return b.String()
}
