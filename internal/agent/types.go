// Package agent talks to the remote policy agents behind /api/agent.
//
// Every call is a JSON envelope carrying a serialized payload and an opaque
// agent id. The reply envelope is {success, response, error}; response may be
// a string (plain, JSON or fenced JSON) or an object, so parsing is lenient.
package agent

import (
	"encoding/json"

	"github.com/policydesk/policydesk/internal/policy"
)

// Agents holds the opaque routing key of each remote agent.
type Agents struct {
	Interview          string `yaml:"interview"`
	ComplianceResearch string `yaml:"compliance_research"`
	DraftCoordinator   string `yaml:"draft_coordinator"`
	Finalizer          string `yaml:"finalizer"`
}

// Request is the envelope posted to the agent endpoint.
type Request struct {
	Message   string `json:"message"`
	AgentID   string `json:"agent_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Response is the envelope returned by the agent endpoint.
type Response struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ====================
// Payloads
// ====================

// HistoryEntry is one transcript line sent to the interview agent.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InterviewInput is what the interview screen submits.
type InterviewInput struct {
	Message  string
	History  []policy.Message
	Gathered policy.GatheredInfo
}

type interviewPayload struct {
	UserMessage         string              `json:"user_message"`
	ConversationHistory []HistoryEntry      `json:"conversation_history"`
	GatheredInformation policy.GatheredInfo `json:"gathered_information"`
}

type draftPayload struct {
	Task                 string              `json:"task"`
	GatheredRequirements policy.GatheredInfo `json:"gathered_requirements"`
}

// Organization is the placeholder company metadata sent with finalization.
type Organization struct {
	Name          string `json:"name" yaml:"name"`
	Industry      string `json:"industry" yaml:"industry"`
	EmployeeCount string `json:"employee_count" yaml:"employee_count"`
	Headquarters  string `json:"headquarters" yaml:"headquarters"`
}

type finalPayload struct {
	Task          string       `json:"task"`
	ApprovedDraft policy.Draft `json:"approved_draft"`
	Organization  Organization `json:"organization"`
}

// ComplianceQuery selects what the compliance research agent looks into.
type ComplianceQuery struct {
	PolicyType   string `json:"policy_type"`
	Jurisdiction string `json:"jurisdiction"`
	Departments  string `json:"departments,omitempty"`
}

type compliancePayload struct {
	Task string `json:"task"`
	ComplianceQuery
}

const (
	taskGenerateDraft      = "generate_policy_draft"
	taskFinalize           = "finalize_policy"
	taskResearchCompliance = "research_compliance"
)

// ====================
// Results
// ====================

// InterviewReply is the parsed interview agent response.
type InterviewReply struct {
	Text        string
	Gathered    policy.GatheredInfo
	Progress    int
	HasProgress bool
}

// DraftResult is the parsed drafting coordinator response.
type DraftResult struct {
	Title         string
	Content       string
	Sections      []string
	Compliance    []policy.ComplianceItem
	HasCompliance bool
}

// FinalResult is the parsed finalization response. Empty fields were not
// present in the reply.
type FinalResult struct {
	Title   string
	Content string
}
