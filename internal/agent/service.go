package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/policydesk/policydesk/internal/policy"
)

// Service builds the payload for each agent role, sends it through a
// Caller and parses the reply.
type Service struct {
	caller Caller
	agents Agents
	userID string
	logger zerolog.Logger
}

// NewService creates a Service. The logger receives one debug line per call.
func NewService(caller Caller, agents Agents, userID string, logger zerolog.Logger) *Service {
	return &Service{caller: caller, agents: agents, userID: userID, logger: logger}
}

// Agents returns the configured agent ids.
func (s *Service) Agents() Agents {
	return s.agents
}

func (s *Service) call(ctx context.Context, agentID, sessionID string, payload any) (json.RawMessage, error) {
	if agentID == "" {
		return nil, &CallError{Message: "agent id not configured"}
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding agent payload: %w", err)
	}

	start := time.Now()
	raw, err := s.caller.Call(ctx, Request{
		Message:   string(msg),
		AgentID:   agentID,
		UserID:    s.userID,
		SessionID: sessionID,
	})
	evt := s.logger.Debug()
	if err != nil {
		evt = s.logger.Warn().Err(err)
		if IsCanceled(err) {
			evt = s.logger.Debug().Bool("aborted", true)
		}
	}
	evt.Str("agent_id", agentID).
		Str("session_id", sessionID).
		Dur("duration", time.Since(start)).
		Msg("agent call")
	return raw, err
}

// Interview sends one user message with the full history and gathered
// snapshot to the interview agent.
func (s *Service) Interview(ctx context.Context, sessionID string, in InterviewInput) (*InterviewReply, error) {
	history := make([]HistoryEntry, 0, len(in.History))
	for _, m := range in.History {
		history = append(history, HistoryEntry{Role: string(m.Sender), Content: m.Content})
	}
	raw, err := s.call(ctx, s.agents.Interview, sessionID, interviewPayload{
		UserMessage:         in.Message,
		ConversationHistory: history,
		GatheredInformation: in.Gathered,
	})
	if err != nil {
		return nil, err
	}
	reply := ParseInterviewReply(raw)
	return &reply, nil
}

// GenerateDraft asks the drafting coordinator for a draft. ok is false when
// the reply did not have the expected shape.
func (s *Service) GenerateDraft(ctx context.Context, sessionID string, gathered policy.GatheredInfo) (*DraftResult, bool, error) {
	raw, err := s.call(ctx, s.agents.DraftCoordinator, sessionID, draftPayload{
		Task:                 taskGenerateDraft,
		GatheredRequirements: gathered,
	})
	if err != nil {
		return nil, false, err
	}
	res, ok := ParseDraft(raw)
	return &res, ok, nil
}

// Finalize sends the approved draft and organization metadata to the
// finalization agent.
func (s *Service) Finalize(ctx context.Context, sessionID string, draft policy.Draft, org Organization) (*FinalResult, error) {
	raw, err := s.call(ctx, s.agents.Finalizer, sessionID, finalPayload{
		Task:          taskFinalize,
		ApprovedDraft: draft,
		Organization:  org,
	})
	if err != nil {
		return nil, err
	}
	res := ParseFinal(raw)
	return &res, nil
}

// ResearchCompliance asks the compliance research agent which regulations
// apply to a policy.
func (s *Service) ResearchCompliance(ctx context.Context, sessionID string, q ComplianceQuery) ([]policy.ComplianceItem, error) {
	raw, err := s.call(ctx, s.agents.ComplianceResearch, sessionID, compliancePayload{
		Task:            taskResearchCompliance,
		ComplianceQuery: q,
	})
	if err != nil {
		return nil, err
	}
	return ParseCompliance(raw), nil
}
