package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/policydesk/policydesk/internal/policy"
)

// MockClient is an offline Caller that answers like the remote agents using
// scripted questions and keyword heuristics. It lets the wizard run end to
// end without an agent platform.
type MockClient struct {
	agents Agents
	delay  time.Duration

	mu    sync.Mutex
	turns map[string]int
}

// NewMockClient creates a MockClient that answers for the given agent ids
// after delay.
func NewMockClient(agents Agents, delay time.Duration) *MockClient {
	return &MockClient{agents: agents, delay: delay, turns: make(map[string]int)}
}

// mockQuestions are asked in order, one per user reply.
var mockQuestions = []string{
	"Thank you for that information. Now, let me ask about work hours and flexibility requirements. What type of work hour arrangement would you like this policy to support?",
	"Understood. Which jurisdictions do your employees work in? This decides which labor regulations the policy has to satisfy.",
	"What equipment will the company provide, and are there data security expectations such as VPN usage?",
	"Thanks. When should this policy take effect, and is there anything else it must cover?",
	"I have everything I need. Select Generate Draft whenever you are ready.",
}

// Call implements Caller.
func (m *MockClient) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var out any
	var err error
	switch req.AgentID {
	case m.agents.Interview:
		out, err = m.interview(req)
	case m.agents.DraftCoordinator:
		out, err = m.draft(req)
	case m.agents.Finalizer:
		out, err = m.finalize(req)
	case m.agents.ComplianceResearch:
		out, err = m.research(req)
	default:
		return nil, &CallError{AgentID: req.AgentID, StatusCode: 404, Message: fmt.Sprintf("unknown agent %q", req.AgentID)}
	}
	if err != nil {
		return nil, &CallError{AgentID: req.AgentID, StatusCode: 400, Message: err.Error()}
	}
	return json.Marshal(out)
}

func (m *MockClient) nextTurn(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[sessionID]++
	return m.turns[sessionID]
}

func (m *MockClient) interview(req Request) (any, error) {
	var p interviewPayload
	if err := json.Unmarshal([]byte(req.Message), &p); err != nil {
		return nil, fmt.Errorf("invalid interview payload: %w", err)
	}

	turn := m.nextTurn(req.SessionID)
	question := mockQuestions[min(turn, len(mockQuestions))-1]

	var lastQuestion string
	for i := len(p.ConversationHistory) - 1; i >= 0; i-- {
		if p.ConversationHistory[i].Role == string(policy.SenderAgent) {
			lastQuestion = strings.ToLower(finalQuestion(p.ConversationHistory[i].Content))
			break
		}
	}

	return map[string]any{
		"response":             question,
		"gathered_information": guessField(lastQuestion, p.UserMessage),
		"progress":             min(policy.DefaultProgress+15*turn, 100),
	}, nil
}

// finalQuestion returns the last sentence of s that ends with a question mark.
func finalQuestion(s string) string {
	q := strings.LastIndex(s, "?")
	if q == -1 {
		return s
	}
	start := max(strings.LastIndex(s[:q], ". "), strings.LastIndex(s[:q], "! "))
	if start == -1 {
		return s[:q+1]
	}
	return s[start+2 : q+1]
}

// guessField files an answer under the field the previous question asked
// about.
func guessField(question, answer string) map[string]string {
	answer = strings.TrimSpace(answer)
	key := "other_details"
	switch {
	case strings.Contains(question, "work hour"):
		key = "work_hours"
	case strings.Contains(question, "jurisdiction"):
		key = "jurisdiction"
	case strings.Contains(question, "equipment"):
		key = "equipment"
	case strings.Contains(question, "take effect"):
		key = "effective_date"
	case strings.Contains(question, "departments"), strings.Contains(question, "employee levels"):
		key = "departments"
	case strings.Contains(question, "type of policy"):
		key = "policy_type"
	}
	return map[string]string{key: answer}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func (m *MockClient) draft(req Request) (any, error) {
	var p draftPayload
	if err := json.Unmarshal([]byte(req.Message), &p); err != nil {
		return nil, fmt.Errorf("invalid draft payload: %w", err)
	}
	g := p.GatheredRequirements
	policyType := orDefault(g.PolicyType, "Workplace")

	var b strings.Builder
	fmt.Fprintf(&b, "%s POLICY\n\n", strings.ToUpper(policyType))
	fmt.Fprintf(&b, "1. PURPOSE\nThis policy sets out how the organization manages %s arrangements so that productivity is maintained and employees are treated consistently.\n\n",
		strings.ToLower(policyType))
	fmt.Fprintf(&b, "2. SCOPE & APPLICABILITY\nThis policy applies to %s in %s.\n\n",
		strings.ToLower(orDefault(g.EmployeeLevels, "all employees")), orDefault(g.Departments, "all departments"))
	b.WriteString("3. ELIGIBILITY\n- Employees in good standing\n- Manager approval required\n\n")
	b.WriteString("4. GUIDELINES & REQUIREMENTS\n")
	fmt.Fprintf(&b, "Work Hours: %s\n", orDefault(g.WorkHours, "Standard business hours"))
	fmt.Fprintf(&b, "Equipment: %s\n", orDefault(g.Equipment, "Company-provided equipment"))
	if g.SpecificRequirements != "" {
		fmt.Fprintf(&b, "Additional Requirements: %s\n", g.SpecificRequirements)
	}
	if g.OtherDetails != "" {
		fmt.Fprintf(&b, "Other: %s\n", g.OtherDetails)
	}
	fmt.Fprintf(&b, "\n5. COMPLIANCE\nThis policy is maintained in line with the labor regulations of %s.\n\n",
		orDefault(g.Jurisdiction, "every jurisdiction the organization operates in"))
	fmt.Fprintf(&b, "EFFECTIVE DATE: %s\nAPPROVED BY: Human Resources Department", orDefault(g.EffectiveDate, "To be confirmed"))

	return map[string]any{
		"policy_draft": map[string]any{
			"title":    fmt.Sprintf("%s Policy", strings.TrimSuffix(policyType, " Policy")),
			"content":  b.String(),
			"sections": []string{"Purpose", "Scope", "Eligibility", "Guidelines", "Compliance"},
		},
		"compliance_highlights": complianceFor(g.Jurisdiction),
	}, nil
}

func complianceFor(jurisdiction string) []map[string]string {
	items := []map[string]string{
		{
			"regulation":   "FLSA - Fair Labor Standards Act",
			"requirement":  "Overtime pay requirements",
			"jurisdiction": "Federal",
			"status":       "compliant",
			"risk_level":   "low",
		},
		{
			"regulation":   "Data Protection Guidelines",
			"requirement":  "Secure work environment and VPN usage",
			"jurisdiction": "Industry Standard",
			"status":       "compliant",
			"risk_level":   "low",
		},
	}
	if strings.Contains(strings.ToLower(jurisdiction), "california") {
		items = append(items, map[string]string{
			"regulation":   "California Labor Code §512",
			"requirement":  "Meal breaks for shifts over 6 hours",
			"jurisdiction": "California",
			"status":       "compliant",
			"risk_level":   "low",
		})
	} else {
		items = append(items, map[string]string{
			"regulation":   "State Labor Law Review",
			"requirement":  "Confirm state specific break and leave rules",
			"jurisdiction": orDefault(jurisdiction, "State"),
			"status":       "needs_review",
			"risk_level":   "medium",
		})
	}
	return items
}

func (m *MockClient) finalize(req Request) (any, error) {
	var p finalPayload
	if err := json.Unmarshal([]byte(req.Message), &p); err != nil {
		return nil, fmt.Errorf("invalid finalization payload: %w", err)
	}
	d := p.ApprovedDraft
	org := orDefault(p.Organization.Name, "the Organization")

	content := strings.TrimSpace(d.Content)
	content = fmt.Sprintf("%s\n%s\n\n%s\n\nVERSION: 1.0\nISSUED BY: %s",
		strings.ToUpper(org), strings.Repeat("=", len(org)), content, org)

	body, err := json.Marshal(map[string]any{
		"final_policy": map[string]string{
			"title":             d.Title,
			"formatted_content": content,
		},
	})
	if err != nil {
		return nil, err
	}
	// The finalizer answers with fenced JSON inside a string.
	return "Here is the finalized policy:\n```json\n" + string(body) + "\n```", nil
}

func (m *MockClient) research(req Request) (any, error) {
	var p compliancePayload
	if err := json.Unmarshal([]byte(req.Message), &p); err != nil {
		return nil, fmt.Errorf("invalid compliance payload: %w", err)
	}
	return map[string]any{"compliance_items": complianceFor(p.Jurisdiction)}, nil
}
