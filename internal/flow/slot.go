// Package flow holds the screen-independent state machines of the policy
// wizard: the interview conversation, the one-shot draft and finalization
// requests, and the single-slot handle that guards each of them.
//
// Nothing here is safe for concurrent use. All methods are called from the
// UI update loop; only the context handed out by a Slot crosses goroutines.
package flow

import "context"

// Token identifies one request issued through a Slot.
type Token uint64

// Slot allows at most one in-flight request. Aborting cancels the request's
// context and invalidates its token so a late result can be recognized and
// dropped.
type Slot struct {
	seq     Token
	active  Token
	cancel  context.CancelFunc
	pending bool
}

// Begin claims the slot. ok is false while another request is pending.
func (s *Slot) Begin(parent context.Context) (ctx context.Context, tok Token, ok bool) {
	if s.pending {
		return nil, 0, false
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, s.cancel = context.WithCancel(parent)
	s.seq++
	s.active = s.seq
	s.pending = true
	return ctx, s.active, true
}

// Finish releases the slot for tok. It returns false when tok is stale,
// meaning the request was aborted or superseded and its result must be
// ignored.
func (s *Slot) Finish(tok Token) bool {
	if !s.pending || tok != s.active {
		return false
	}
	s.release()
	return true
}

// Abort cancels the pending request, if any.
func (s *Slot) Abort() {
	if s.pending {
		s.release()
	}
}

// Busy reports whether a request is pending.
func (s *Slot) Busy() bool {
	return s.pending
}

func (s *Slot) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.active = 0
	s.pending = false
}
