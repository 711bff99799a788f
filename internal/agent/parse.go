package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/policydesk/policydesk/internal/policy"
)

// extractJSON pulls a JSON object out of agent text that wraps it in prose
// or a markdown fence.
func extractJSON(s string) string {
	if _, rest, ok := strings.Cut(s, "```"); ok {
		// Drop a language tag such as "json" on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl != -1 && !strings.Contains(rest[:nl], "{") {
			rest = rest[nl+1:]
		}
		body, _, _ := strings.Cut(rest, "```")
		return strings.TrimSpace(body)
	}

	// '{"' skips braces in prose like "{see below}".
	start := strings.Index(s, `{"`)
	if start == -1 {
		start = strings.Index(s, "{")
	}
	if end := strings.LastIndex(s, "}"); start != -1 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// decodeResponse splits the envelope's response field into an object (when
// one can be found) and its plain text form.
func decodeResponse(raw json.RawMessage) (map[string]any, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ""
	}

	switch raw[0] {
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err == nil {
			return obj, ""
		}
		return nil, string(raw)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, string(raw)
		}
		candidate := strings.TrimSpace(s)
		if !strings.HasPrefix(candidate, "{") || !strings.HasSuffix(candidate, "}") {
			candidate = extractJSON(candidate)
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, s
		}
		return nil, s
	default:
		return nil, string(raw)
	}
}

// unwrap descends through wrapper objects some agent platforms add
// around the real payload.
func unwrap(obj map[string]any, keys ...string) map[string]any {
	for range 3 {
		next := lookupMap(obj, "result", "data", "output")
		if next == nil || hasAny(obj, keys...) {
			return obj
		}
		obj = next
	}
	return obj
}

func hasAny(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func lookupString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		if _, isMap := v.(map[string]any); isMap {
			continue
		}
		if s := stringify(v); s != "" {
			return s
		}
	}
	return ""
}

func lookupMap(obj map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if m, ok := obj[k].(map[string]any); ok {
			return m
		}
	}
	return nil
}

func lookupSlice(obj map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if s, ok := obj[k].([]any); ok {
			return s, true
		}
	}
	return nil, false
}

// lookupProgress accepts numbers and numeric strings such as "85" or "85%",
// bounded to [0, 100] before the conversion to int.
func lookupProgress(obj map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		var f float64
		switch v := obj[k].(type) {
		case float64:
			f = v
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if math.IsNaN(f) {
			continue
		}
		return int(math.Max(0, math.Min(100, math.Round(f)))), true
	}
	return 0, false
}

// AcknowledgeText stands in for an interview reply that carries no text.
const AcknowledgeText = "Noted."

var textKeys = []string{"response", "message", "reply", "question", "next_question", "nextQuestion", "text", "content"}

// ParseInterviewReply reads an interview agent response.
func ParseInterviewReply(raw json.RawMessage) InterviewReply {
	obj, text := decodeResponse(raw)
	if obj == nil {
		return InterviewReply{Text: strings.TrimSpace(text)}
	}

	obj = unwrap(obj, textKeys...)
	reply := InterviewReply{Text: lookupString(obj, textKeys...)}
	if reply.Text == "" {
		// A nested response object may carry the text one level down.
		if inner := lookupMap(obj, "response"); inner != nil {
			obj = inner
			reply.Text = lookupString(obj, textKeys...)
		}
	}
	if reply.Text == "" {
		reply.Text = AcknowledgeText
	}

	if g := lookupMap(obj, "gathered_information", "gatheredInformation", "gathered_info", "gatheredInfo"); g != nil {
		reply.Gathered = parseGathered(g)
	}
	reply.Progress, reply.HasProgress = lookupProgress(obj,
		"progress", "interview_progress", "interviewProgress", "completion_percentage", "progress_percentage")
	return reply
}

func parseGathered(m map[string]any) policy.GatheredInfo {
	return policy.GatheredInfo{
		PolicyType:           lookupString(m, "policy_type", "policyType"),
		Departments:          lookupString(m, "departments", "department"),
		EmployeeLevels:       lookupString(m, "employee_levels", "employeeLevels"),
		Jurisdiction:         lookupString(m, "jurisdiction", "jurisdictions", "location"),
		EffectiveDate:        lookupString(m, "effective_date", "effectiveDate"),
		SpecificRequirements: lookupString(m, "specific_requirements", "specificRequirements", "requirements"),
		WorkHours:            lookupString(m, "work_hours", "workHours"),
		Equipment:            lookupString(m, "equipment"),
		OtherDetails:         lookupString(m, "other_details", "otherDetails"),
	}
}

var complianceKeys = []string{"compliance", "compliance_highlights", "complianceHighlights", "compliance_items", "complianceItems", "compliance_checks", "regulations"}

// ParseDraft reads a drafting coordinator response. ok is false when the
// response lacks a title or content, in which case the caller keeps its
// current draft.
func ParseDraft(raw json.RawMessage) (DraftResult, bool) {
	obj, _ := decodeResponse(raw)
	if obj == nil {
		return DraftResult{}, false
	}
	obj = unwrap(obj, "policy_draft", "policyDraft", "draft", "title")

	d := lookupMap(obj, "policy_draft", "policyDraft", "draft")
	if d == nil {
		d = obj
	}

	res := DraftResult{
		Title:   lookupString(d, "title", "policy_title", "policyTitle"),
		Content: lookupString(d, "content", "policy_content", "policyContent", "full_text", "body"),
	}
	if res.Title == "" || res.Content == "" {
		return DraftResult{}, false
	}

	if items, ok := lookupSlice(d, complianceKeys...); ok {
		res.Compliance, res.HasCompliance = parseCompliance(items), true
	} else if items, ok := lookupSlice(obj, complianceKeys...); ok {
		res.Compliance, res.HasCompliance = parseCompliance(items), true
	}
	if sections, ok := lookupSlice(d, "sections"); ok {
		res.Sections = parseSections(sections)
	}
	return res, true
}

func parseSections(items []any) []string {
	var out []string
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := lookupString(v, "title", "heading", "name"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func parseCompliance(items []any) []policy.ComplianceItem {
	out := make([]policy.ComplianceItem, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		reg := lookupString(m, "regulation", "name", "law", "title")
		if reg == "" {
			continue
		}
		out = append(out, policy.ComplianceItem{
			Regulation:   reg,
			Requirement:  lookupString(m, "requirement", "description", "details"),
			Jurisdiction: lookupString(m, "jurisdiction", "scope"),
			Status:       policy.ParseComplianceStatus(lookupString(m, "status", "compliance_status", "complianceStatus")),
			RiskLevel:    policy.ParseRiskLevel(lookupString(m, "risk_level", "riskLevel", "risk")),
		})
	}
	return out
}

// ParseFinal reads a finalization response. Only fields present in the
// response are set.
func ParseFinal(raw json.RawMessage) FinalResult {
	obj, _ := decodeResponse(raw)
	if obj == nil {
		return FinalResult{}
	}
	obj = unwrap(obj, "final_policy", "finalPolicy", "policy", "title")

	d := lookupMap(obj, "final_policy", "finalPolicy", "finalized_policy", "policy", "document")
	if d == nil {
		d = obj
	}
	return FinalResult{
		Title:   lookupString(d, "title", "policy_title", "policyTitle"),
		Content: lookupString(d, "formatted_content", "formattedContent", "formatted_policy", "formattedPolicy", "final_content", "content", "policy_text"),
	}
}

// ParseCompliance reads a compliance research response.
func ParseCompliance(raw json.RawMessage) []policy.ComplianceItem {
	obj, _ := decodeResponse(raw)
	if obj == nil {
		var list []any
		if err := json.Unmarshal(raw, &list); err == nil {
			return parseCompliance(list)
		}
		return nil
	}
	obj = unwrap(obj, complianceKeys...)
	if items, ok := lookupSlice(obj, complianceKeys...); ok {
		return parseCompliance(items)
	}
	return nil
}
