package flow

import (
	"context"
	"strings"
	"time"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/policy"
)

// Interview is the conversational requirements gathering state.
type Interview struct {
	Messages []policy.Message
	Gathered policy.GatheredInfo
	Progress int
	// Err is the banner text of the last failed request.
	Err string

	slot Slot
	now  func() time.Time
}

// NewInterview starts from the sample conversation, matching what an
// interview screen shows when it opens.
func NewInterview() *Interview {
	return &Interview{
		Messages: policy.SampleConversation(),
		Gathered: policy.InitialGatheredInfo(),
		Progress: policy.InitialProgress,
		now:      time.Now,
	}
}

// NewInterviewFor starts an interview for a policy type picked from the
// library.
func NewInterviewFor(policyType string) *Interview {
	iv := &Interview{
		Messages: []policy.Message{
			policy.NewMessage(policy.SenderAgent,
				"Hi! I'll help you create a comprehensive, compliant "+policyType+". Which departments or employee levels will this policy apply to?",
				time.Now()),
		},
		Gathered: policy.GatheredInfo{PolicyType: strings.TrimSuffix(policyType, " Policy")},
		Progress: policy.InitialProgress,
		now:      time.Now,
	}
	return iv
}

// Pending is a submitted message waiting for the interview agent.
type Pending struct {
	Ctx   context.Context
	Token Token
	Input agent.InterviewInput
}

// Submit appends text as a user message and claims the request slot.
// ok is false, and nothing changes, when text is blank or a request is
// already pending.
func (iv *Interview) Submit(parent context.Context, text string) (Pending, bool) {
	text = strings.TrimSpace(text)
	if text == "" || iv.slot.Busy() {
		return Pending{}, false
	}
	ctx, tok, ok := iv.slot.Begin(parent)
	if !ok {
		return Pending{}, false
	}

	iv.Err = ""
	iv.Messages = append(iv.Messages, policy.NewMessage(policy.SenderUser, text, iv.clock()))

	return Pending{
		Ctx:   ctx,
		Token: tok,
		Input: agent.InterviewInput{
			Message:  text,
			History:  append([]policy.Message(nil), iv.Messages...),
			Gathered: iv.Gathered,
		},
	}, true
}

// Resolve applies a successful reply. It returns false for a stale token.
func (iv *Interview) Resolve(tok Token, reply agent.InterviewReply) bool {
	if !iv.slot.Finish(tok) {
		return false
	}
	text := strings.TrimSpace(reply.Text)
	if text == "" {
		text = agent.AcknowledgeText
	}
	iv.Messages = append(iv.Messages, policy.NewMessage(policy.SenderAgent, text, iv.clock()))
	iv.Gathered = iv.Gathered.Merge(reply.Gathered)
	if reply.HasProgress {
		iv.Progress = policy.ClampProgress(reply.Progress)
	} else {
		iv.Progress = policy.DefaultProgress
	}
	return true
}

// Fail records a failed request. The user's message stays in the log.
// It returns false for a stale token.
func (iv *Interview) Fail(tok Token, err error) bool {
	if !iv.slot.Finish(tok) {
		return false
	}
	iv.Err = agent.Message(err)
	return true
}

// Abort drops the pending request, if any.
func (iv *Interview) Abort() {
	iv.slot.Abort()
}

// Busy reports whether a reply is awaited.
func (iv *Interview) Busy() bool {
	return iv.slot.Busy()
}

// CanGenerateDraft reports whether enough has been gathered for a draft.
func (iv *Interview) CanGenerateDraft() bool {
	return iv.Progress >= policy.ReadyThreshold
}

// QuestionsRemaining estimates the remaining interview questions.
func (iv *Interview) QuestionsRemaining() int {
	return policy.QuestionsRemaining(iv.Progress)
}

func (iv *Interview) clock() time.Time {
	if iv.now == nil {
		return time.Now()
	}
	return iv.now()
}
