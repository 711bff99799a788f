// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"time"

	"github.com/google/uuid"

	"github.com/policydesk/policydesk/internal/config"
	"github.com/policydesk/policydesk/internal/policy"
)

// ViewState represents the current screen of the TUI.
type ViewState int

const (
	StateDashboard ViewState = iota
	StateInterview
	StateDraftReview
	StateFinalPolicy
	StatePolicies
	StateLibrary
	StateSettings
)

// String returns the screen name shown in the status bar.
func (s ViewState) String() string {
	switch s {
	case StateDashboard:
		return "dashboard"
	case StateInterview:
		return "interview"
	case StateDraftReview:
		return "draft-review"
	case StateFinalPolicy:
		return "final-policy"
	case StatePolicies:
		return "policies"
	case StateLibrary:
		return "library"
	case StateSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// IsFlow reports whether s is one of the wizard stages after the dashboard.
func (s ViewState) IsFlow() bool {
	return s == StateInterview || s == StateDraftReview || s == StateFinalPolicy
}

// SidebarItem is one entry of the navigation sidebar.
type SidebarItem struct {
	Key   string
	Label string
	State ViewState
}

// SidebarItems lists the sidebar entries in display order.
var SidebarItems = []SidebarItem{
	{Key: "1", Label: "Dashboard", State: StateDashboard},
	{Key: "2", Label: "Active Policies", State: StatePolicies},
	{Key: "3", Label: "Policy Library", State: StateLibrary},
	{Key: "4", Label: "Settings", State: StateSettings},
}

// Model holds the screen-level state shared across the wizard: which screen
// is showing and what has been handed from one stage to the next.
type Model struct {
	State       ViewState
	SidebarOpen bool

	// Handoff between stages
	Gathered   policy.GatheredInfo
	Draft      policy.Draft
	FinalDraft policy.Draft
	// RunID identifies the current wizard run. It is the session id sent
	// with every agent envelope.
	RunID      string
	PolicyType string

	// Configuration
	Cfg *config.Config
	Dir string

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool // True when waiting for second Ctrl+C press

	now func() time.Time
}

// NewModel creates a new Model with the given configuration.
func NewModel(cfg *config.Config, dir string) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Model{
		State:       StateDashboard,
		SidebarOpen: true,
		Draft:       policy.SampleDraft(),
		Gathered:    policy.InitialGatheredInfo(),
		Cfg:         cfg,
		Dir:         dir,
		Width:       100,
		Height:      30,
		now:         time.Now,
	}
}

// StartPolicy begins a new wizard run and shows the interview. An empty
// policyType starts from the sample conversation.
func (m *Model) StartPolicy(policyType string) string {
	m.RunID = uuid.New().String()
	m.PolicyType = policyType
	m.State = StateInterview
	return m.RunID
}

// GenerateDraft hands the gathered requirements to draft review. The draft
// starts as the sample draft retitled for the gathered policy type until
// the coordinator replies.
func (m *Model) GenerateDraft(info policy.GatheredInfo) {
	m.Gathered = info
	d := policy.SampleDraft()
	d.Title = policy.DraftTitle(info, m.clock().Year())
	if info.PolicyType != "" {
		d.Type = info.PolicyType
	}
	if info.Departments != "" {
		d.Metadata.Departments = info.Departments
	}
	if info.EffectiveDate != "" {
		d.Metadata.EffectiveDate = info.EffectiveDate
	}
	m.Draft = d
	m.State = StateDraftReview
}

// Approve hands the approved draft to finalization.
func (m *Model) Approve(d policy.Draft) {
	m.FinalDraft = d
	m.State = StateFinalPolicy
}

// BackToInterview returns from draft review to the interview, which keeps
// its conversation and gathered information.
func (m *Model) BackToInterview() {
	m.State = StateInterview
}

// Navigate switches to one of the sidebar screens.
func (m *Model) Navigate(s ViewState) {
	m.State = s
}

// ToggleSidebar opens or closes the sidebar.
func (m *Model) ToggleSidebar() {
	m.SidebarOpen = !m.SidebarOpen
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
