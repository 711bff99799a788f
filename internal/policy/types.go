// Package policy defines the data shared by the wizard screens: sessions,
// conversation messages, gathered requirements, drafts and compliance items.
package policy

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle label shown for a policy session.
type SessionStatus string

const (
	StatusInterviewing SessionStatus = "interviewing"
	StatusDrafting     SessionStatus = "drafting"
	StatusReviewing    SessionStatus = "reviewing"
	StatusCompleted    SessionStatus = "completed"
)

// Session is one entry of the dashboard listing.
type Session struct {
	ID          string        `json:"id"`
	Type        string        `json:"type"`
	Status      SessionStatus `json:"status"`
	LastUpdated string        `json:"last_updated"`
	Title       string        `json:"title"`
}

// Sender identifies who wrote a conversation message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is a single entry in the interview transcript.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// TimestampLayout is the clock format displayed next to messages.
const TimestampLayout = "03:04 PM"

// NewMessage returns a message stamped with now.
func NewMessage(sender Sender, content string, now time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Sender:    sender,
		Content:   content,
		Timestamp: now.Format(TimestampLayout),
	}
}

// GatheredInfo is the structured record the interview agent fills in.
// Every field is optional.
type GatheredInfo struct {
	PolicyType           string `json:"policy_type,omitempty"`
	Departments          string `json:"departments,omitempty"`
	EmployeeLevels       string `json:"employee_levels,omitempty"`
	Jurisdiction         string `json:"jurisdiction,omitempty"`
	EffectiveDate        string `json:"effective_date,omitempty"`
	SpecificRequirements string `json:"specific_requirements,omitempty"`
	WorkHours            string `json:"work_hours,omitempty"`
	Equipment            string `json:"equipment,omitempty"`
	OtherDetails         string `json:"other_details,omitempty"`
}

// Merge returns g with every non-empty field of other written over it.
// Fields that other leaves empty keep their current value.
func (g GatheredInfo) Merge(other GatheredInfo) GatheredInfo {
	set := func(dst *string, src string) {
		if strings.TrimSpace(src) != "" {
			*dst = src
		}
	}
	set(&g.PolicyType, other.PolicyType)
	set(&g.Departments, other.Departments)
	set(&g.EmployeeLevels, other.EmployeeLevels)
	set(&g.Jurisdiction, other.Jurisdiction)
	set(&g.EffectiveDate, other.EffectiveDate)
	set(&g.SpecificRequirements, other.SpecificRequirements)
	set(&g.WorkHours, other.WorkHours)
	set(&g.Equipment, other.Equipment)
	set(&g.OtherDetails, other.OtherDetails)
	return g
}

// Field is a labelled gathered value.
type Field struct {
	Label string
	Value string
}

// Fields lists the populated fields in display order.
func (g GatheredInfo) Fields() []Field {
	all := []Field{
		{"Policy Type", g.PolicyType},
		{"Departments", g.Departments},
		{"Employee Levels", g.EmployeeLevels},
		{"Jurisdiction", g.Jurisdiction},
		{"Effective Date", g.EffectiveDate},
		{"Requirements", g.SpecificRequirements},
		{"Work Hours", g.WorkHours},
		{"Equipment", g.Equipment},
		{"Other Details", g.OtherDetails},
	}
	out := all[:0]
	for _, f := range all {
		if strings.TrimSpace(f.Value) != "" {
			out = append(out, f)
		}
	}
	return out
}

// IsZero reports whether no field is set.
func (g GatheredInfo) IsZero() bool {
	return len(g.Fields()) == 0
}

// ComplianceStatus is the verdict attached to a compliance item.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "compliant"
	NeedsReview  ComplianceStatus = "needs-review"
	NonCompliant ComplianceStatus = "non-compliant"
)

// RiskLevel grades a compliance item.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ComplianceItem is one regulation annotation attached to a draft.
type ComplianceItem struct {
	Regulation   string           `json:"regulation"`
	Requirement  string           `json:"requirement"`
	Jurisdiction string           `json:"jurisdiction"`
	Status       ComplianceStatus `json:"status"`
	RiskLevel    RiskLevel        `json:"risk_level"`
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}

// ParseComplianceStatus maps loosely formatted labels onto a known status.
// Unrecognised labels map to NeedsReview.
func ParseComplianceStatus(s string) ComplianceStatus {
	switch normalizeLabel(s) {
	case "compliant", "pass", "passed", "ok":
		return Compliant
	case "non-compliant", "noncompliant", "fail", "failed", "violation":
		return NonCompliant
	default:
		return NeedsReview
	}
}

// ParseRiskLevel maps loosely formatted labels onto a known risk level.
// Unrecognised labels map to RiskMedium.
func ParseRiskLevel(s string) RiskLevel {
	switch normalizeLabel(s) {
	case "low", "minimal":
		return RiskLow
	case "high", "critical", "severe":
		return RiskHigh
	default:
		return RiskMedium
	}
}

// DraftMetadata is the summary card shown beside a draft.
type DraftMetadata struct {
	EffectiveDate string `json:"effective_date"`
	Departments   string `json:"departments"`
	Status        string `json:"status"`
}

// Draft is the policy document under review.
type Draft struct {
	Title      string           `json:"title"`
	Type       string           `json:"type"`
	Content    string           `json:"content"`
	Sections   []string         `json:"sections,omitempty"`
	Metadata   DraftMetadata    `json:"metadata"`
	Compliance []ComplianceItem `json:"compliance,omitempty"`
	WordCount  int              `json:"word_count"`
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	d.Sections = append([]string(nil), d.Sections...)
	d.Compliance = append([]ComplianceItem(nil), d.Compliance...)
	return d
}

// ComplianceSummary counts items per status.
func (d Draft) ComplianceSummary() map[ComplianceStatus]int {
	counts := make(map[ComplianceStatus]int, 3)
	for _, c := range d.Compliance {
		counts[c.Status]++
	}
	return counts
}
