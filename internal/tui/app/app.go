// Package app provides the main TUI application that wires all views together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/flow"
	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
	"github.com/policydesk/policydesk/internal/tui"
	"github.com/policydesk/policydesk/internal/tui/commands"
	"github.com/policydesk/policydesk/internal/tui/views"
)

// sidebarWidth is the horizontal space the open sidebar takes.
const sidebarWidth = 27

// Deps holds what the App needs from the outside.
type Deps struct {
	Cfg     *config.Config
	Dir     string
	Service *agent.Service
	Store   *session.Store
	// Events receives the wizard event log. May be nil.
	Events *log.Logger
	Logger zerolog.Logger
}

// App is the main TUI application that wires all views together. It owns
// the flow state of the current wizard run and every screen transition.
type App struct {
	model *tui.Model
	deps  Deps
	ctx   context.Context

	// Flow state of the current run
	interview *flow.Interview
	review    *flow.Review
	final     *flow.Final

	escPending bool

	// View models
	dashboardView views.DashboardModel
	interviewView views.InterviewModel
	reviewView    views.ReviewModel
	finalView     views.FinalModel
	policiesView  views.PoliciesModel
	libraryView   views.LibraryModel
	settingsView  views.SettingsModel
}

// New creates a new App.
func New(deps Deps) *App {
	model := tui.NewModel(deps.Cfg, deps.Dir)
	deps.Cfg = model.Cfg

	a := &App{
		model: model,
		deps:  deps,
		ctx:   context.Background(),
	}
	w, h := a.contentSize()
	a.dashboardView = views.NewDashboardModel(w, h)
	a.policiesView = views.NewPoliciesModel(w, h)
	a.libraryView = views.NewLibraryModel(w, h)
	a.settingsView = views.NewSettingsModel(model.Cfg, w, h)
	return a
}

// Init returns the initial command for the TUI.
func (a *App) Init() tea.Cmd {
	return commands.LoadDashboardCmd(a.deps.Store)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}

	case tui.CtrlCResetMsg:
		a.model.CtrlCPending = false
		return a, nil

	case tui.EscResetMsg:
		a.escPending = false
		return a, nil

	// Transitions
	case tui.StartPolicyMsg:
		return a, a.startPolicy(msg.PolicyType)
	case tui.SubmitMessageMsg:
		return a, a.submit(msg.Text)
	case tui.GenerateDraftMsg:
		return a, a.generateDraft()
	case tui.ApproveMsg:
		return a, a.approve(msg.Draft)
	case tui.BackToInterviewMsg:
		a.backToInterview()
		return a, nil
	case tui.NavigateMsg:
		return a, a.navigate(msg.State)
	case tui.ExportMsg:
		return a, a.export()
	case tui.ShowTranscriptMsg:
		var cmd tea.Cmd
		if a.model.State != tui.StatePolicies {
			cmd = a.navigate(tui.StatePolicies)
		}
		return a, tea.Batch(cmd, commands.LoadTranscriptCmd(a.deps.Store, msg.SessionID))

	// Agent results
	case tui.InterviewReplyMsg:
		a.handleInterviewReply(msg)
		return a, nil
	case tui.DraftGeneratedMsg:
		a.handleDraftGenerated(msg)
		return a, nil
	case tui.FinalizedMsg:
		return a, a.handleFinalized(msg)

	// Storage results
	case tui.DashboardLoadedMsg:
		if msg.Err != nil {
			a.deps.Logger.Warn().Err(msg.Err).Msg("loading sessions")
		}
		a.dashboardView.SetData(msg)
		return a, a.policiesView.SetSessions(msg)
	case tui.PolicyRecordedMsg:
		if msg.Err != nil {
			a.deps.Logger.Warn().Err(msg.Err).Msg("recording policy")
			return a, nil
		}
		return a, commands.LoadDashboardCmd(a.deps.Store)
	case tui.TranscriptLoadedMsg:
		a.policiesView.SetTranscript(msg)
		return a, nil
	case tui.ExportedMsg:
		a.handleExported(msg)
		return a, nil
	}

	return a, a.updateView(msg)
}

// handleGlobalKey processes keys that work on every screen. handled is
// false when the key belongs to the current view.
func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	keys := tui.DefaultKeyMap
	s := msg.String()

	switch {
	case s == tui.KeyCtrlC:
		if a.model.CtrlCPending {
			// Second press within timeout - exit
			a.abortAll()
			return tea.Quit, true
		}
		// First press - set pending and start timeout
		a.model.CtrlCPending = true
		return tea.Tick(time.Second, func(time.Time) tea.Msg {
			return tui.CtrlCResetMsg{}
		}), true

	case key.Matches(msg, keys.Sidebar):
		a.model.ToggleSidebar()
		a.resize()
		return nil, true

	case s == tui.KeyEsc:
		if !a.model.State.IsFlow() || a.reviewView.Editing() && a.model.State == tui.StateDraftReview {
			return nil, false
		}
		if a.escPending {
			a.escPending = false
			return a.navigate(tui.StateDashboard), true
		}
		a.escPending = true
		return tea.Tick(time.Second, func(time.Time) tea.Msg {
			return tui.EscResetMsg{}
		}), true
	}

	if a.capturesText() {
		return nil, false
	}
	for _, item := range tui.SidebarItems {
		if s == item.Key {
			return a.navigate(item.State), true
		}
	}
	return nil, false
}

// capturesText reports whether the current screen has a focused text input.
func (a *App) capturesText() bool {
	switch a.model.State {
	case tui.StateInterview:
		return true
	case tui.StateDraftReview:
		return a.reviewView.Editing()
	}
	return false
}

// updateView routes msg to the view of the current screen.
func (a *App) updateView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.model.State {
	case tui.StateDashboard:
		a.dashboardView, cmd = a.dashboardView.Update(msg)
	case tui.StateInterview:
		a.interviewView, cmd = a.interviewView.Update(msg)
	case tui.StateDraftReview:
		a.reviewView, cmd = a.reviewView.Update(msg)
	case tui.StateFinalPolicy:
		a.finalView, cmd = a.finalView.Update(msg)
	case tui.StatePolicies:
		a.policiesView, cmd = a.policiesView.Update(msg)
	case tui.StateLibrary:
		a.libraryView, cmd = a.libraryView.Update(msg)
	case tui.StateSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	}
	return cmd
}

// ============================================================================
// Transitions
// ============================================================================

func (a *App) startPolicy(policyType string) tea.Cmd {
	a.abortAll()
	runID := a.model.StartPolicy(policyType)
	if policyType == "" {
		a.interview = flow.NewInterview()
	} else {
		a.interview = flow.NewInterviewFor(policyType)
	}
	a.review, a.final = nil, nil

	w, h := a.contentSize()
	a.interviewView = views.NewInterviewModel(a.interview, w, h)

	a.event(log.LogEvent{
		Event:      log.EventWizardStarted,
		SessionID:  runID,
		PolicyType: policyType,
	})
	return a.interviewView.Init()
}

func (a *App) submit(text string) tea.Cmd {
	if a.interview == nil || a.model.State != tui.StateInterview {
		return nil
	}
	p, ok := a.interview.Submit(a.ctx, text)
	if !ok {
		return nil
	}
	a.interviewView.Refresh()
	a.event(log.LogEvent{
		Event:     log.EventInterviewMessage,
		SessionID: a.model.RunID,
		AgentID:   a.deps.Service.Agents().Interview,
		Progress:  a.interview.Progress,
	})
	return tea.Batch(
		commands.InterviewCmd(a.deps.Service, a.model.RunID, p),
		a.interviewView.StartSpinner(),
	)
}

func (a *App) handleInterviewReply(msg tui.InterviewReplyMsg) {
	if a.interview == nil {
		return
	}
	if msg.Err != nil {
		if a.interview.Fail(msg.Token, msg.Err) {
			a.agentFailed(a.deps.Service.Agents().Interview, msg.Err, msg.Duration)
		}
	} else {
		var reply agent.InterviewReply
		if msg.Reply != nil {
			reply = *msg.Reply
		}
		if a.interview.Resolve(msg.Token, reply) {
			a.event(log.LogEvent{
				Event:      log.EventInterviewReply,
				SessionID:  a.model.RunID,
				AgentID:    a.deps.Service.Agents().Interview,
				Progress:   a.interview.Progress,
				DurationMs: msg.Duration.Milliseconds(),
			})
		}
	}
	a.interviewView.Refresh()
}

func (a *App) generateDraft() tea.Cmd {
	if a.interview == nil || a.model.State != tui.StateInterview || !a.interview.CanGenerateDraft() {
		return nil
	}
	a.interview.Abort()
	a.model.GenerateDraft(a.interview.Gathered)
	a.review = flow.NewReview(a.model.Draft, a.model.Gathered)

	w, h := a.contentSize()
	a.reviewView = views.NewReviewModel(a.review, w, h)

	ctx, tok, ok := a.review.Gen.Start(a.ctx)
	if !ok {
		return nil
	}
	return tea.Batch(
		commands.GenerateDraftCmd(ctx, tok, a.deps.Service, a.model.RunID, a.model.Gathered),
		a.reviewView.StartSpinner(),
	)
}

func (a *App) handleDraftGenerated(msg tui.DraftGeneratedMsg) {
	if a.review == nil {
		return
	}
	if msg.Err != nil {
		if a.review.Gen.Fail(msg.Token, msg.Err) {
			a.agentFailed(a.deps.Service.Agents().DraftCoordinator, msg.Err, msg.Duration)
		}
	} else if a.review.Apply(msg.Token, msg.Result, msg.OK) {
		a.model.Draft = a.review.Draft
		a.event(log.LogEvent{
			Event:      log.EventDraftGenerated,
			SessionID:  a.model.RunID,
			AgentID:    a.deps.Service.Agents().DraftCoordinator,
			Title:      a.review.Draft.Title,
			WordCount:  a.review.Draft.WordCount,
			DurationMs: msg.Duration.Milliseconds(),
			Data:       map[string]interface{}{"replaced": a.review.Replaced},
		})
	}
	a.reviewView.Refresh()
}

func (a *App) approve(draft policy.Draft) tea.Cmd {
	if a.review == nil || a.model.State != tui.StateDraftReview {
		return nil
	}
	a.abortAll()
	a.model.Approve(draft)
	a.final = flow.NewFinal(draft, time.Now())

	w, h := a.contentSize()
	a.finalView = views.NewFinalModel(a.final, w, h)

	a.event(log.LogEvent{
		Event:     log.EventDraftApproved,
		SessionID: a.model.RunID,
		Title:     draft.Title,
		WordCount: draft.WordCount,
	})

	ctx, tok, ok := a.final.Gen.Start(a.ctx)
	if !ok {
		return nil
	}
	return tea.Batch(
		commands.FinalizeCmd(ctx, tok, a.deps.Service, a.model.RunID, draft, a.model.Cfg.Organization),
		a.finalView.StartSpinner(),
	)
}

// handleFinalized applies the finalization result and registers the run.
// A failed finalization still registers the approved draft that is shown.
func (a *App) handleFinalized(msg tui.FinalizedMsg) tea.Cmd {
	if a.final == nil {
		return nil
	}
	if msg.Err != nil {
		if !a.final.Gen.Fail(msg.Token, msg.Err) {
			return nil
		}
		a.agentFailed(a.deps.Service.Agents().Finalizer, msg.Err, msg.Duration)
	} else {
		if !a.final.Apply(msg.Token, msg.Result) {
			return nil
		}
		a.event(log.LogEvent{
			Event:      log.EventPolicyFinalized,
			SessionID:  a.model.RunID,
			AgentID:    a.deps.Service.Agents().Finalizer,
			Title:      a.final.Draft.Title,
			DocumentID: a.final.DocumentID,
			DurationMs: msg.Duration.Milliseconds(),
		})
	}
	a.model.FinalDraft = a.final.Draft
	a.finalView.Refresh()

	d := a.final.Draft
	rec := session.Record{
		Type:            d.Type,
		Title:           d.Title,
		DocumentID:      a.final.DocumentID,
		CompliantItems:  d.ComplianceSummary()[policy.Compliant],
		ComplianceTotal: len(d.Compliance),
	}
	var transcript []policy.Message
	if a.interview != nil {
		transcript = a.interview.Messages
	}
	return commands.RecordPolicyCmd(a.deps.Store, rec, transcript)
}

func (a *App) backToInterview() {
	if a.model.State != tui.StateDraftReview || a.interview == nil {
		return
	}
	a.abortAll()
	a.model.BackToInterview()
	a.interviewView.Refresh()
}

// navigate switches screens. Leaving a wizard stage aborts its request.
func (a *App) navigate(s tui.ViewState) tea.Cmd {
	a.abortAll()
	a.escPending = false
	a.model.Navigate(s)
	if s == tui.StateDashboard || s == tui.StatePolicies {
		return commands.LoadDashboardCmd(a.deps.Store)
	}
	return nil
}

func (a *App) export() tea.Cmd {
	if a.final == nil || a.model.State != tui.StateFinalPolicy || a.final.Gen.Busy() {
		return nil
	}
	return commands.ExportCmd(a.model.Dir, a.final.DocumentID, a.final.Markdown())
}

func (a *App) handleExported(msg tui.ExportedMsg) {
	if a.final == nil {
		return
	}
	a.finalView.SetExportError(msg.Err)
	if msg.Err != nil {
		a.deps.Logger.Warn().Err(msg.Err).Msg("exporting policy")
		return
	}
	a.final.ExportedTo = msg.Path
	a.event(log.LogEvent{
		Event:      log.EventPolicyExported,
		SessionID:  a.model.RunID,
		DocumentID: a.final.DocumentID,
		Path:       msg.Path,
	})
}

// abortAll drops every in-flight request of the current run.
func (a *App) abortAll() {
	if a.interview != nil {
		a.interview.Abort()
	}
	if a.review != nil {
		a.review.Gen.Abort()
	}
	if a.final != nil {
		a.final.Gen.Abort()
	}
}

func (a *App) agentFailed(agentID string, err error, d time.Duration) {
	a.event(log.LogEvent{
		Event:      log.EventAgentCallFailed,
		SessionID:  a.model.RunID,
		AgentID:    agentID,
		Error:      agent.Message(err),
		DurationMs: d.Milliseconds(),
	})
}

func (a *App) event(e log.LogEvent) {
	if err := a.deps.Events.Append(e); err != nil {
		a.deps.Logger.Warn().Err(err).Str("event", e.Event).Msg("appending event")
	}
}

// ============================================================================
// Layout
// ============================================================================

// contentSize returns the area left for the current view.
func (a *App) contentSize() (int, int) {
	w := a.model.Width
	if a.model.SidebarOpen {
		w -= sidebarWidth
	}
	// status bar
	return max(20, w), max(8, a.model.Height-1)
}

func (a *App) resize() {
	w, h := a.contentSize()
	a.dashboardView.SetSize(w, h)
	a.policiesView.SetSize(w, h)
	a.libraryView.SetSize(w, h)
	a.settingsView.SetSize(w, h)
	if a.interview != nil {
		a.interviewView.SetSize(w, h)
	}
	if a.review != nil {
		a.reviewView.SetSize(w, h)
	}
	if a.final != nil {
		a.finalView.SetSize(w, h)
	}
}

// View renders the current application state.
func (a *App) View() string {
	pending := a.model.CtrlCPending
	a.dashboardView.SetCtrlCPending(pending)
	a.interviewView.SetCtrlCPending(pending)
	a.reviewView.SetCtrlCPending(pending)
	a.finalView.SetCtrlCPending(pending)
	a.policiesView.SetCtrlCPending(pending)
	a.libraryView.SetCtrlCPending(pending)
	a.settingsView.SetCtrlCPending(pending)

	var content string
	switch a.model.State {
	case tui.StateDashboard:
		content = a.dashboardView.View()
	case tui.StateInterview:
		content = a.interviewView.View()
	case tui.StateDraftReview:
		content = a.reviewView.View()
	case tui.StateFinalPolicy:
		content = a.finalView.View()
	case tui.StatePolicies:
		content = a.policiesView.View()
	case tui.StateLibrary:
		content = a.libraryView.View()
	case tui.StateSettings:
		content = a.settingsView.View()
	default:
		content = "Unknown state"
	}

	if a.model.SidebarOpen {
		content = lipgloss.JoinHorizontal(lipgloss.Top,
			views.RenderSidebar(a.model.State, a.model.Height-1), " ", content)
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.renderStatusBar())
}

func (a *App) renderStatusBar() string {
	mode := "remote"
	if a.model.Cfg.UseMock() {
		mode = "mock"
	}
	text := fmt.Sprintf("policydesk · %s · agents: %s", a.model.State, mode)
	if a.model.RunID != "" && a.model.State.IsFlow() {
		text += " · run " + a.model.RunID[:8]
	}
	if a.escPending {
		text += " · press esc again for dashboard"
	}
	return tui.StatusBarStyle.Width(max(0, a.model.Width)).Render(text)
}
