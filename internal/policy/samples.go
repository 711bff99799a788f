package policy

// PolicyType is an entry of the policy library.
type PolicyType struct {
	Name        string
	Icon        string
	Description string
}

// PolicyTypes is the catalogue offered by the library screen.
var PolicyTypes = []PolicyType{
	{Name: "Remote Work Policy", Icon: "💼", Description: "Eligibility, work hours, equipment and data security for remote staff"},
	{Name: "PTO Policy", Icon: "🏖️", Description: "Accrual, carry-over and request rules for paid time off"},
	{Name: "Code of Conduct", Icon: "📋", Description: "Expected behaviour, reporting channels and disciplinary process"},
}

// SampleSessions seeds the dashboard listing.
func SampleSessions() []Session {
	return []Session{
		{ID: "1", Type: "PTO Policy", Status: StatusReviewing, LastUpdated: "2 hours ago", Title: "Paid Time Off Policy"},
		{ID: "2", Type: "Expense Policy", Status: StatusDrafting, LastUpdated: "30 minutes ago", Title: "Employee Expense Reimbursement"},
	}
}

const sampleDraftContent = `REMOTE WORK POLICY

1. PURPOSE
This policy establishes guidelines for remote work arrangements to ensure organizational productivity while supporting work-life balance for eligible employees.

2. SCOPE & APPLICABILITY
This policy applies to full-time employees in the Engineering and Product departments who meet eligibility requirements and have received prior approval.

3. ELIGIBILITY
- Full-time employees with minimum 6 months tenure
- Satisfactory performance review
- Roles suitable for remote work
- Manager approval required

4. GUIDELINES & REQUIREMENTS
Work Hours: Flexible hours with core collaboration time 10 AM - 3 PM
Communication: Daily standups and responsive communication expected
Equipment: Company-provided laptop and peripherals
Data Security: All work conducted with VPN and encrypted connections
Work Location: Must be professional, quiet environment

5. COMPLIANCE
This policy complies with California Labor Code §512, FLSA overtime requirements, and industry best practices for remote work arrangements.

EFFECTIVE DATE: January 1, 2025
APPROVED BY: Human Resources Department`

// SampleDraft is the placeholder document shown until the drafting agent
// replies with a usable draft.
func SampleDraft() Draft {
	return Draft{
		Title:    "Remote Work Policy",
		Type:     "Remote Work",
		Sections: []string{"Purpose", "Scope", "Eligibility", "Guidelines", "Compliance"},
		Metadata: DraftMetadata{
			EffectiveDate: "2025-01-01",
			Departments:   "Engineering, Product",
			Status:        "Draft - Pending Approval",
		},
		Content:   sampleDraftContent,
		WordCount: 1850,
		Compliance: []ComplianceItem{
			{
				Regulation:   "California Labor Code §512",
				Requirement:  "Meal breaks for shifts over 6 hours",
				Jurisdiction: "California",
				Status:       Compliant,
				RiskLevel:    RiskLow,
			},
			{
				Regulation:   "FLSA - Fair Labor Standards Act",
				Requirement:  "Overtime pay requirements",
				Jurisdiction: "Federal",
				Status:       Compliant,
				RiskLevel:    RiskLow,
			},
			{
				Regulation:   "Data Protection Guidelines",
				Requirement:  "Secure work environment and VPN usage",
				Jurisdiction: "Industry Standard",
				Status:       Compliant,
				RiskLevel:    RiskLow,
			},
			{
				Regulation:   "Communication Standards",
				Requirement:  "Core hours and availability expectations",
				Jurisdiction: "Organizational",
				Status:       NeedsReview,
				RiskLevel:    RiskMedium,
			},
		},
	}
}

// SampleConversation is the transcript an interview opens with.
func SampleConversation() []Message {
	return []Message{
		{
			ID:        "1",
			Sender:    SenderAgent,
			Content:   "Hi! I'll help you create a comprehensive, compliant HR policy. Let's start with the basics. What type of policy are you looking to create?",
			Timestamp: "10:00 AM",
		},
		{
			ID:        "2",
			Sender:    SenderUser,
			Content:   "I want to create a Remote Work Policy for our company.",
			Timestamp: "10:01 AM",
		},
		{
			ID:        "3",
			Sender:    SenderAgent,
			Content:   "Great! Remote work policies need to address eligibility, work hours, and equipment. Which departments or employee levels will this policy apply to?",
			Timestamp: "10:02 AM",
		},
		{
			ID:        "4",
			Sender:    SenderUser,
			Content:   "All full-time employees in Engineering and Product teams.",
			Timestamp: "10:03 AM",
		},
	}
}

// InitialGatheredInfo matches what SampleConversation has already covered.
func InitialGatheredInfo() GatheredInfo {
	return GatheredInfo{
		PolicyType:     "Remote Work",
		Departments:    "Engineering, Product",
		EmployeeLevels: "Full-time employees",
	}
}

// InitialProgress is the interview progress shown before the first reply.
const InitialProgress = 50
