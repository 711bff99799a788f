package policy

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// ReadyThreshold is the interview progress at which a draft may be generated.
const ReadyThreshold = 80

// DefaultProgress is used when the interview agent does not report progress.
const DefaultProgress = 50

// ClampProgress bounds p to [0, 100].
func ClampProgress(p int) int {
	return max(0, min(100, p))
}

// QuestionsRemaining estimates how many interview questions are left.
func QuestionsRemaining(progress int) int {
	n := int(math.Ceil(8 - float64(progress)/12.5))
	return max(0, n)
}

// CountWords returns the number of whitespace separated words in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// DraftTitle names a freshly generated draft, e.g. "Remote Work - 2026".
func DraftTitle(info GatheredInfo, year int) string {
	t := strings.TrimSpace(info.PolicyType)
	if t == "" {
		t = "Policy"
	}
	return fmt.Sprintf("%s - %d", t, year)
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewDocumentID returns a display-only identifier such as "POL-K3F9ZQ1AB".
// It is not unique and must not be used as a key.
func NewDocumentID(r *rand.Rand) string {
	var b strings.Builder
	b.WriteString("POL-")
	for range 9 {
		var n int
		if r != nil {
			n = r.IntN(len(base36))
		} else {
			n = rand.IntN(len(base36))
		}
		b.WriteByte(base36[n])
	}
	return b.String()
}

// Markdown renders a finalized draft for export.
func (d Draft) Markdown(documentID, generated string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "- Document ID: %s\n", documentID)
	fmt.Fprintf(&b, "- Version: 1.0\n")
	fmt.Fprintf(&b, "- Generated: %s\n", generated)
	if d.Type != "" {
		fmt.Fprintf(&b, "- Policy Type: %s\n", d.Type)
	}
	if d.Metadata.EffectiveDate != "" {
		fmt.Fprintf(&b, "- Effective Date: %s\n", d.Metadata.EffectiveDate)
	}
	if d.Metadata.Departments != "" {
		fmt.Fprintf(&b, "- Departments: %s\n", d.Metadata.Departments)
	}
	b.WriteString("\n```\n")
	b.WriteString(strings.TrimRight(d.Content, "\n"))
	b.WriteString("\n```\n")
	if len(d.Compliance) > 0 {
		b.WriteString("\n## Compliance\n\n")
		b.WriteString("| Regulation | Requirement | Jurisdiction | Status | Risk |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, c := range d.Compliance {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				c.Regulation, c.Requirement, c.Jurisdiction, c.Status, c.RiskLevel)
		}
	}
	return b.String()
}
