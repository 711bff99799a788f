package flow

import (
	"context"

	"github.com/policydesk/policydesk/internal/agent"
)

// Phase is the state of a one-shot generation request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Generation runs idle -> generating -> success|error exactly once. There
// is no retry; a fresh Generation is needed for another attempt.
type Generation struct {
	Phase Phase
	Err   string

	slot Slot
}

// Start moves an idle generation to generating and returns the request
// context. ok is false when the generation has already started.
func (g *Generation) Start(parent context.Context) (context.Context, Token, bool) {
	if g.Phase != PhaseIdle {
		return nil, 0, false
	}
	ctx, tok, ok := g.slot.Begin(parent)
	if !ok {
		return nil, 0, false
	}
	g.Phase = PhaseGenerating
	return ctx, tok, true
}

// Succeed completes the generation. It returns false for a stale token.
func (g *Generation) Succeed(tok Token) bool {
	if !g.slot.Finish(tok) {
		return false
	}
	g.Phase = PhaseSuccess
	return true
}

// Fail completes the generation with err. It returns false for a stale
// token.
func (g *Generation) Fail(tok Token, err error) bool {
	if !g.slot.Finish(tok) {
		return false
	}
	g.Phase = PhaseError
	g.Err = agent.Message(err)
	return true
}

// Abort cancels a running generation. The phase stays generating and no
// result will be accepted.
func (g *Generation) Abort() {
	g.slot.Abort()
}

// Busy reports whether the request is in flight.
func (g *Generation) Busy() bool {
	return g.slot.Busy()
}
