package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/policydesk/policydesk/internal/policy"
)

func TestModelTransitions(t *testing.T) {
	m := NewModel(nil, t.TempDir())
	m.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	if m.State != StateDashboard || !m.SidebarOpen {
		t.Fatalf("initial state = %v, sidebar %v", m.State, m.SidebarOpen)
	}
	if m.Cfg == nil {
		t.Fatal("nil config was not defaulted")
	}

	id := m.StartPolicy("PTO Policy")
	if id == "" || m.RunID != id || m.State != StateInterview {
		t.Errorf("StartPolicy: id=%q state=%v", id, m.State)
	}
	if again := m.StartPolicy(""); again == id {
		t.Error("run ids repeat")
	}

	m.GenerateDraft(policy.GatheredInfo{PolicyType: "PTO", Departments: "Sales", EffectiveDate: "2026-04-01"})
	if m.State != StateDraftReview {
		t.Errorf("state = %v", m.State)
	}
	if m.Draft.Title != "PTO - 2026" || m.Draft.Type != "PTO" {
		t.Errorf("draft = %q / %q", m.Draft.Title, m.Draft.Type)
	}
	if m.Draft.Metadata.Departments != "Sales" || m.Draft.Metadata.EffectiveDate != "2026-04-01" {
		t.Errorf("metadata = %+v", m.Draft.Metadata)
	}
	if m.Draft.Content != policy.SampleDraft().Content {
		t.Error("initial draft content is not the sample")
	}

	m.BackToInterview()
	if m.State != StateInterview {
		t.Errorf("BackToInterview: state = %v", m.State)
	}

	approved := m.Draft
	approved.Content = "edited"
	m.Approve(approved)
	if m.State != StateFinalPolicy || m.FinalDraft.Content != "edited" {
		t.Errorf("Approve: state=%v content=%q", m.State, m.FinalDraft.Content)
	}

	m.ToggleSidebar()
	if m.SidebarOpen {
		t.Error("ToggleSidebar did not close")
	}
	m.Navigate(StateSettings)
	if m.State != StateSettings {
		t.Errorf("Navigate: state = %v", m.State)
	}
}

func TestViewStateNames(t *testing.T) {
	tests := []struct {
		state ViewState
		name  string
		flow  bool
	}{
		{StateDashboard, "dashboard", false},
		{StateInterview, "interview", true},
		{StateDraftReview, "draft-review", true},
		{StateFinalPolicy, "final-policy", true},
		{StatePolicies, "policies", false},
		{StateLibrary, "library", false},
		{StateSettings, "settings", false},
		{ViewState(99), "unknown", false},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.state.IsFlow(); got != tt.flow {
			t.Errorf("%s IsFlow() = %v", tt.name, got)
		}
	}
}

func TestStatusIconsAndBadges(t *testing.T) {
	if StatusIcon(policy.Compliant) != IconCompliant ||
		StatusIcon(policy.NonCompliant) != IconNonCompliant ||
		StatusIcon(policy.NeedsReview) != IconNeedsReview {
		t.Error("StatusIcon mismatch")
	}
	for _, r := range []policy.RiskLevel{policy.RiskLow, policy.RiskMedium, policy.RiskHigh} {
		if !strings.Contains(RiskBadge(r), string(r)+" risk") {
			t.Errorf("RiskBadge(%s) = %q", r, RiskBadge(r))
		}
	}
}

func TestHelpLine(t *testing.T) {
	disabled := key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "hidden"), key.WithDisabled())
	got := HelpLine(DefaultKeyMap.Approve, disabled, DefaultKeyMap.Back)
	if got != "a approve  b back to interview" {
		t.Errorf("HelpLine = %q", got)
	}
}

func TestFallbackRunner(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFallbackRunner(&buf).Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"policydesk sessions", "policydesk compliance", "policydesk serve"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("fallback output missing %q", want)
		}
	}
}

func TestKeyConstantsMatchBubbleTea(t *testing.T) {
	if (tea.KeyMsg{Type: tea.KeyCtrlC}).String() != KeyCtrlC {
		t.Error("KeyCtrlC mismatch")
	}
	if (tea.KeyMsg{Type: tea.KeyEsc}).String() != KeyEsc {
		t.Error("KeyEsc mismatch")
	}
	if (tea.KeyMsg{Type: tea.KeyEnter}).String() != KeyEnter {
		t.Error("KeyEnter mismatch")
	}
}
