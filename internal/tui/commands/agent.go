// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/flow"
	"github.com/policydesk/policydesk/internal/policy"
	"github.com/policydesk/policydesk/internal/tui"
)

// InterviewCmd sends a submitted interview message to the interview agent.
// The reply carries the pending token so a late answer to an aborted
// request can be dropped.
func InterviewCmd(svc *agent.Service, runID string, p flow.Pending) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		reply, err := svc.Interview(p.Ctx, runID, p.Input)
		return tui.InterviewReplyMsg{
			Token:    p.Token,
			Reply:    reply,
			Err:      err,
			Duration: time.Since(start),
		}
	}
}

// GenerateDraftCmd asks the drafting coordinator for a draft of the
// gathered requirements.
func GenerateDraftCmd(ctx context.Context, tok flow.Token, svc *agent.Service, runID string, gathered policy.GatheredInfo) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, ok, err := svc.GenerateDraft(ctx, runID, gathered)
		return tui.DraftGeneratedMsg{
			Token:    tok,
			Result:   res,
			OK:       ok,
			Err:      err,
			Duration: time.Since(start),
		}
	}
}

// FinalizeCmd asks the finalization agent to format the approved draft.
func FinalizeCmd(ctx context.Context, tok flow.Token, svc *agent.Service, runID string, draft policy.Draft, org agent.Organization) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := svc.Finalize(ctx, runID, draft, org)
		return tui.FinalizedMsg{
			Token:    tok,
			Result:   res,
			Err:      err,
			Duration: time.Since(start),
		}
	}
}
