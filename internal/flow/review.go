package flow

import (
	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/policy"
)

// Review is the draft review state: one coordinator request per screen
// mount plus local editing before approval.
type Review struct {
	Draft    policy.Draft
	Gathered policy.GatheredInfo
	Gen      Generation

	// Editing is true while the content is open for editing.
	Editing bool
	// Edited is the working copy of the content. Approval forwards it.
	Edited string
	// Replaced is true when the coordinator's draft replaced the initial one.
	Replaced bool
}

// NewReview prepares a review of draft built from gathered.
func NewReview(draft policy.Draft, gathered policy.GatheredInfo) *Review {
	return &Review{
		Draft:    draft,
		Gathered: gathered,
		Edited:   draft.Content,
	}
}

// Apply replaces title, content and compliance with the coordinator's
// draft when ok is true. Otherwise the current draft is kept as it is.
func (r *Review) Apply(tok Token, res *agent.DraftResult, ok bool) bool {
	if !r.Gen.Succeed(tok) {
		return false
	}
	if !ok || res == nil {
		return true
	}
	r.Draft.Title = res.Title
	r.Draft.Content = res.Content
	r.Draft.WordCount = policy.CountWords(res.Content)
	if res.HasCompliance {
		r.Draft.Compliance = res.Compliance
	}
	if len(res.Sections) > 0 {
		r.Draft.Sections = res.Sections
	}
	r.Edited = res.Content
	r.Replaced = true
	return true
}

// ToggleEdit switches between read-only and edit mode.
func (r *Review) ToggleEdit() {
	r.Editing = !r.Editing
}

// SetEdited updates the working copy of the content.
func (r *Review) SetEdited(content string) {
	r.Edited = content
}

// Approved returns the draft to hand to finalization, carrying the edited
// content.
func (r *Review) Approved() policy.Draft {
	d := r.Draft.Clone()
	if d.Content != r.Edited {
		d.Content = r.Edited
		d.WordCount = policy.CountWords(r.Edited)
	}
	return d
}
