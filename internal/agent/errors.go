package agent

import (
	"context"
	"errors"
)

// ErrAgentFailed matches every failed agent call via errors.Is.
var ErrAgentFailed = errors.New("agent request failed")

// CallError describes a failed agent call. Its message is shown to the user
// verbatim.
type CallError struct {
	AgentID    string
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return ErrAgentFailed.Error()
	}
	return e.Message
}

// Is reports whether target is ErrAgentFailed.
func (e *CallError) Is(target error) bool {
	return target == ErrAgentFailed
}

// IsCanceled reports whether err came from an aborted request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Message returns the text to display for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return ErrAgentFailed.Error()
}
