package flow

import (
	"math/rand/v2"
	"time"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/policy"
)

// Final is the finalization state: one request per screen mount.
type Final struct {
	Draft       policy.Draft
	Gen         Generation
	DocumentID  string
	GeneratedAt time.Time
	// ExportedTo is the path of the last export, if any.
	ExportedTo string
}

// NewFinal prepares finalization of an approved draft.
func NewFinal(draft policy.Draft, now time.Time) *Final {
	return &Final{
		Draft:       draft,
		DocumentID:  policy.NewDocumentID(rand.New(rand.NewPCG(uint64(now.UnixNano()), 0x504f4c))),
		GeneratedAt: now,
	}
}

// Apply overwrites title and content with the fields the finalization agent
// returned.
func (f *Final) Apply(tok Token, res *agent.FinalResult) bool {
	if !f.Gen.Succeed(tok) {
		return false
	}
	if res == nil {
		return true
	}
	if res.Title != "" {
		f.Draft.Title = res.Title
	}
	if res.Content != "" {
		f.Draft.Content = res.Content
	}
	return true
}

// Markdown renders the document for export.
func (f *Final) Markdown() string {
	return f.Draft.Markdown(f.DocumentID, f.GeneratedAt.Format("January 2, 2006"))
}
