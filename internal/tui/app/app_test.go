package app

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/log"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
	"github.com/policydesk/policydesk/internal/tui"
)

var testAgents = agent.Agents{
	Interview:          "iv",
	ComplianceResearch: "cr",
	DraftCoordinator:   "dc",
	Finalizer:          "fz",
}

// countingCaller wraps a Caller and counts calls per agent id.
type countingCaller struct {
	next agent.Caller

	mu    sync.Mutex
	calls map[string]int
}

func (c *countingCaller) Call(ctx context.Context, req agent.Request) (json.RawMessage, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[req.AgentID]++
	c.mu.Unlock()
	return c.next.Call(ctx, req)
}

func (c *countingCaller) count(agentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[agentID]
}

// failingCaller fails every call with err.
type failingCaller struct {
	err error
}

func (f failingCaller) Call(context.Context, agent.Request) (json.RawMessage, error) {
	return nil, f.err
}

func newTestApp(t *testing.T, caller agent.Caller) (*App, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := session.NewStore(session.MemoryPath)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Seed(context.Background(), policy.SampleSessions()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	events, err := log.NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Agent.IDs = testAgents

	a := New(Deps{
		Cfg:     cfg,
		Dir:     dir,
		Service: agent.NewService(caller, testAgents, "test-user", zerolog.Nop()),
		Store:   store,
		Events:  events,
		Logger:  zerolog.Nop(),
	})
	a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return a, dir
}

// isAppMsg reports whether msg is produced by the app itself. Timer and
// animation messages are left out so tests never sleep.
func isAppMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case tui.StartPolicyMsg, tui.SubmitMessageMsg, tui.GenerateDraftMsg, tui.ApproveMsg,
		tui.BackToInterviewMsg, tui.NavigateMsg, tui.ExportMsg, tui.ShowTranscriptMsg,
		tui.InterviewReplyMsg, tui.DraftGeneratedMsg, tui.FinalizedMsg,
		tui.DashboardLoadedMsg, tui.PolicyRecordedMsg, tui.TranscriptLoadedMsg, tui.ExportedMsg:
		return true
	}
	return false
}

// collect runs cmd and returns the app messages it produces.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		if isAppMsg(msg) {
			return []tea.Msg{msg}
		}
		return nil
	}
}

// pump delivers msg and every app message that follows from it.
func pump(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			t.Fatal("message loop did not settle")
		}
		next := queue[0]
		queue = queue[1:]
		_, cmd := a.Update(next)
		queue = append(queue, collect(cmd)...)
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFullWizardRun(t *testing.T) {
	caller := &countingCaller{next: agent.NewMockClient(testAgents, 0)}
	a, dir := newTestApp(t, caller)
	pump(t, a, a.Init()())

	// Dashboard -> interview
	pump(t, a, keyRunes("n"))
	if a.model.State != tui.StateInterview {
		t.Fatalf("state = %v, want interview", a.model.State)
	}
	if got := len(a.interview.Messages); got != 4 {
		t.Fatalf("opening transcript has %d messages", got)
	}

	pump(t, a, tui.SubmitMessageMsg{Text: "Engineering and Product"})
	if a.interview.Progress != 65 || a.interview.CanGenerateDraft() {
		t.Fatalf("progress = %d", a.interview.Progress)
	}
	if a.interview.Gathered.Departments != "Engineering and Product" {
		t.Errorf("departments not gathered: %+v", a.interview.Gathered)
	}

	// Below the threshold ctrl+g does nothing.
	pump(t, a, tea.KeyMsg{Type: tea.KeyCtrlG})
	if a.model.State != tui.StateInterview {
		t.Fatalf("generated a draft at progress %d", a.interview.Progress)
	}

	pump(t, a, tui.SubmitMessageMsg{Text: "Flexible hours with core hours 10-3"})
	if a.interview.Gathered.WorkHours != "Flexible hours with core hours 10-3" {
		t.Errorf("work hours not gathered: %+v", a.interview.Gathered)
	}
	if !a.interview.CanGenerateDraft() {
		t.Fatalf("progress = %d, want >= 80", a.interview.Progress)
	}
	if a.model.State != tui.StateInterview {
		t.Fatal("interview navigated without ctrl+g")
	}

	// Interview -> review, one coordinator request
	pump(t, a, tea.KeyMsg{Type: tea.KeyCtrlG})
	if a.model.State != tui.StateDraftReview {
		t.Fatalf("state = %v, want draft-review", a.model.State)
	}
	if !a.review.Replaced || a.review.Draft.Title != "Remote Work Policy" {
		t.Fatalf("draft not replaced: %+v", a.review.Draft)
	}
	if got := len(a.review.Draft.Compliance); got != 3 {
		t.Errorf("compliance items = %d", got)
	}
	pump(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	if n := caller.count("dc"); n != 1 {
		t.Errorf("coordinator called %d times", n)
	}

	// Review -> final, one finalization request
	pump(t, a, keyRunes("a"))
	if a.model.State != tui.StateFinalPolicy {
		t.Fatalf("state = %v, want final-policy", a.model.State)
	}
	if !strings.HasPrefix(a.final.Draft.Content, "ACME CORPORATION") {
		t.Errorf("final content = %q", a.final.Draft.Content)
	}
	if !strings.HasPrefix(a.final.DocumentID, "POL-") {
		t.Errorf("document id = %q", a.final.DocumentID)
	}
	if n := caller.count("fz"); n != 1 {
		t.Errorf("finalizer called %d times", n)
	}

	// The run was registered.
	if !strings.Contains(a.dashboardView.View(), "Remote Work Policy") {
		t.Error("dashboard does not list the finalized policy")
	}

	// Export
	pump(t, a, keyRunes("x"))
	if a.final.ExportedTo == "" {
		t.Fatal("export did not complete")
	}
	data, err := os.ReadFile(a.final.ExportedTo)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), a.final.DocumentID) {
		t.Error("export missing document id")
	}

	// Back to the dashboard
	pump(t, a, keyRunes("d"))
	if a.model.State != tui.StateDashboard {
		t.Errorf("state = %v, want dashboard", a.model.State)
	}

	logger, _ := log.NewLogger(dir)
	evs, err := logger.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var kinds []string
	for _, e := range evs {
		kinds = append(kinds, e.Event)
	}
	want := []string{
		log.EventWizardStarted,
		log.EventInterviewMessage, log.EventInterviewReply,
		log.EventInterviewMessage, log.EventInterviewReply,
		log.EventDraftGenerated, log.EventDraftApproved,
		log.EventPolicyFinalized, log.EventPolicyExported,
	}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v\nwant %v", kinds, want)
	}
}

func TestInterviewErrorBanner(t *testing.T) {
	a, _ := newTestApp(t, failingCaller{err: &agent.CallError{Message: "rate limited"}})
	pump(t, a, tui.StartPolicyMsg{})
	before := len(a.interview.Messages)

	pump(t, a, tui.SubmitMessageMsg{Text: "We need coverage for contractors too"})

	if a.interview.Err != "rate limited" {
		t.Errorf("banner = %q", a.interview.Err)
	}
	if got := len(a.interview.Messages); got != before+1 {
		t.Errorf("messages = %d, want %d", got, before+1)
	}
	if last := a.interview.Messages[len(a.interview.Messages)-1]; last.Sender != policy.SenderUser {
		t.Errorf("last message from %s", last.Sender)
	}
	if a.interview.Busy() {
		t.Error("slot still busy after failure")
	}
}

func TestSubmitWhilePendingIsIgnored(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})
	before := len(a.interview.Messages)

	_, first := a.Update(tui.SubmitMessageMsg{Text: "first"})
	_, second := a.Update(tui.SubmitMessageMsg{Text: "second"})

	if second != nil {
		t.Error("second submit issued a request")
	}
	if got := len(a.interview.Messages); got != before+1 {
		t.Errorf("messages = %d, want %d", got, before+1)
	}

	for _, msg := range collect(first) {
		pump(t, a, msg)
	}
	if got := len(a.interview.Messages); got != before+2 {
		t.Errorf("after reply: messages = %d, want %d", got, before+2)
	}
}

func TestBlankSubmitIsIgnored(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})
	before := len(a.interview.Messages)

	if _, cmd := a.Update(tui.SubmitMessageMsg{Text: "   \n\t"}); cmd != nil {
		t.Error("blank submit issued a request")
	}
	if len(a.interview.Messages) != before {
		t.Error("blank submit appended a message")
	}
}

func TestNavigationDropsLateReply(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})

	_, cmd := a.Update(tui.SubmitMessageMsg{Text: "Engineering only"})
	msgs := collect(cmd)
	count := len(a.interview.Messages)
	progress := a.interview.Progress

	pump(t, a, tui.NavigateMsg{State: tui.StateDashboard})
	for _, msg := range msgs {
		pump(t, a, msg)
	}

	if len(a.interview.Messages) != count || a.interview.Progress != progress {
		t.Errorf("late reply changed the interview: %d messages, progress %d", len(a.interview.Messages), a.interview.Progress)
	}
	if a.model.State != tui.StateDashboard {
		t.Errorf("state = %v", a.model.State)
	}
}

func TestBackToInterviewKeepsConversation(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})
	pump(t, a, tui.SubmitMessageMsg{Text: "Flexible"})
	pump(t, a, tui.SubmitMessageMsg{Text: "California"})
	msgs := len(a.interview.Messages)

	pump(t, a, tui.GenerateDraftMsg{})
	pump(t, a, keyRunes("b"))

	if a.model.State != tui.StateInterview {
		t.Fatalf("state = %v, want interview", a.model.State)
	}
	if len(a.interview.Messages) != msgs {
		t.Errorf("messages = %d, want %d", len(a.interview.Messages), msgs)
	}
}

func TestDraftFailureKeepsInitialDraft(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})
	pump(t, a, tui.SubmitMessageMsg{Text: "Flexible"})
	pump(t, a, tui.SubmitMessageMsg{Text: "California"})

	// Swap in a failing coordinator for the draft request.
	a.deps.Service = agent.NewService(failingCaller{err: &agent.CallError{Message: "coordinator down"}}, testAgents, "u", zerolog.Nop())
	pump(t, a, tui.GenerateDraftMsg{})

	if a.review.Gen.Err != "coordinator down" {
		t.Errorf("generation error = %q", a.review.Gen.Err)
	}
	if a.review.Replaced || a.review.Draft.WordCount != policy.SampleDraft().WordCount {
		t.Error("failed generation replaced the draft")
	}
}

func TestEscTwiceReturnsToDashboard(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.model.State != tui.StateInterview || !a.escPending {
		t.Fatalf("first esc: state=%v pending=%v", a.model.State, a.escPending)
	}
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.model.State != tui.StateDashboard {
		t.Errorf("second esc: state = %v", a.model.State)
	}
}

func TestEscResetsAfterTimeout(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, tui.StartPolicyMsg{})

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a.Update(tui.EscResetMsg{})
	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if a.model.State != tui.StateInterview {
		t.Errorf("state = %v, want interview", a.model.State)
	}
}

func TestSidebarNavigation(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))

	tests := []struct {
		key  string
		want tui.ViewState
	}{
		{"3", tui.StateLibrary},
		{"4", tui.StateSettings},
		{"2", tui.StatePolicies},
		{"1", tui.StateDashboard},
	}
	for _, tt := range tests {
		pump(t, a, keyRunes(tt.key))
		if a.model.State != tt.want {
			t.Errorf("key %s: state = %v, want %v", tt.key, a.model.State, tt.want)
		}
	}

	// Digits are text while the interview input has focus.
	pump(t, a, tui.StartPolicyMsg{})
	pump(t, a, keyRunes("3"))
	if a.model.State != tui.StateInterview {
		t.Errorf("digit navigated away from the interview: %v", a.model.State)
	}
}

func TestSidebarToggle(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	if !a.model.SidebarOpen {
		t.Fatal("sidebar starts closed")
	}
	a.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	if a.model.SidebarOpen {
		t.Error("ctrl+b did not close the sidebar")
	}
	if strings.Contains(a.View(), "Policy Library") {
		t.Error("closed sidebar still rendered")
	}
}

func TestLibraryStartsTypedInterview(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, keyRunes("3"))
	pump(t, a, tea.KeyMsg{Type: tea.KeyDown})
	pump(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	if a.model.State != tui.StateInterview {
		t.Fatalf("state = %v, want interview", a.model.State)
	}
	if a.model.PolicyType != "PTO Policy" || a.interview.Gathered.PolicyType != "PTO" {
		t.Errorf("policy type = %q, gathered %q", a.model.PolicyType, a.interview.Gathered.PolicyType)
	}
	if len(a.interview.Messages) != 1 {
		t.Errorf("messages = %d, want the greeting only", len(a.interview.Messages))
	}
}

func TestCtrlCTwiceQuits(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !a.model.CtrlCPending {
		t.Fatal("first ctrl+c did not arm exit")
	}
	if !strings.Contains(a.View(), "Press Ctrl+C again") {
		t.Error("exit hint not shown")
	}
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("second ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second ctrl+c did not quit")
	}
}

func TestShowTranscriptFromDashboard(t *testing.T) {
	a, _ := newTestApp(t, agent.NewMockClient(testAgents, 0))
	pump(t, a, a.Init()())

	pump(t, a, keyRunes("v"))
	if a.model.State != tui.StatePolicies {
		t.Errorf("state = %v, want policies", a.model.State)
	}
}
