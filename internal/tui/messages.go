// Package tui implements the terminal user interface using Bubble Tea.
package tui

import (
	"time"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/flow"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/session"
)

// ============================================================================
// State Transition Messages
// ============================================================================

// StartPolicyMsg starts a new wizard run. PolicyType is empty when started
// from the dashboard.
type StartPolicyMsg struct {
	PolicyType string
}

// SubmitMessageMsg carries text typed into the interview input.
type SubmitMessageMsg struct {
	Text string
}

// GenerateDraftMsg asks to move from the interview to draft review.
type GenerateDraftMsg struct{}

// ApproveMsg carries the approved draft, including local edits.
type ApproveMsg struct {
	Draft policy.Draft
}

// BackToInterviewMsg returns from draft review to the interview.
type BackToInterviewMsg struct{}

// NavigateMsg switches to a sidebar screen.
type NavigateMsg struct {
	State ViewState
}

// ExportMsg asks to write the final policy to disk.
type ExportMsg struct{}

// ShowTranscriptMsg asks for the stored conversation of a session.
type ShowTranscriptMsg struct {
	SessionID string
}

// ============================================================================
// Agent Result Messages
// ============================================================================

// InterviewReplyMsg is the outcome of one interview request.
type InterviewReplyMsg struct {
	Token    flow.Token
	Reply    *agent.InterviewReply
	Err      error
	Duration time.Duration
}

// DraftGeneratedMsg is the outcome of the drafting coordinator request.
// OK is false when the reply did not have the expected shape.
type DraftGeneratedMsg struct {
	Token    flow.Token
	Result   *agent.DraftResult
	OK       bool
	Err      error
	Duration time.Duration
}

// FinalizedMsg is the outcome of the finalization request.
type FinalizedMsg struct {
	Token    flow.Token
	Result   *agent.FinalResult
	Err      error
	Duration time.Duration
}

// ============================================================================
// Storage Messages
// ============================================================================

// DashboardLoadedMsg carries the session registry for the dashboard.
type DashboardLoadedMsg struct {
	Sessions []policy.Session
	Stats    session.Stats
	Err      error
}

// PolicyRecordedMsg signals that a completed run was registered.
type PolicyRecordedMsg struct {
	Session *policy.Session
	Err     error
}

// TranscriptLoadedMsg carries a stored conversation.
type TranscriptLoadedMsg struct {
	SessionID string
	Messages  []policy.Message
	Err       error
}

// ExportedMsg signals that the final policy was written to Path.
type ExportedMsg struct {
	Path string
	Err  error
}

// ============================================================================
// Confirmation Messages
// ============================================================================

// CtrlCResetMsg resets the Ctrl+C confirmation state after timeout.
type CtrlCResetMsg struct{}

// EscResetMsg resets the Esc confirmation state after timeout.
type EscResetMsg struct{}
