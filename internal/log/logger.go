// Package log provides structured event logging.
// This file appends wizard events to .policydesk/log.jsonl.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventWizardStarted    = "wizard_started"
	EventInterviewMessage = "interview_message"
	EventInterviewReply   = "interview_reply"
	EventAgentCallFailed  = "agent_call_failed"
	EventDraftGenerated   = "draft_generated"
	EventDraftApproved    = "draft_approved"
	EventPolicyFinalized  = "policy_finalized"
	EventPolicyExported   = "policy_exported"
)

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time       time.Time              `json:"time"`
	Event      string                 `json:"event"`
	SessionID  string                 `json:"session,omitempty"`
	AgentID    string                 `json:"agent,omitempty"`
	PolicyType string                 `json:"policy_type,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Progress   int                    `json:"progress,omitempty"`
	WordCount  int                    `json:"word_count,omitempty"`
	DocumentID string                 `json:"document_id,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Error      string                 `json:"error,omitempty"`
	DurationMs int64                  `json:"duration_ms,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .policydesk/log.jsonl inside dir.
// Creates the .policydesk/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	stateDir := filepath.Join(dir, ".policydesk")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .policydesk directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(stateDir, "log.jsonl"),
	}, nil
}

// Append writes a single LogEvent as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// Thread-safe via mutex. A nil Logger discards events.
func (l *Logger) Append(event LogEvent) error {
	if l == nil {
		return nil
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// Recent returns the last n events in the log, oldest first. n <= 0
// returns every event. A missing log has no events.
func (l *Logger) Recent(n int) ([]LogEvent, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []LogEvent
	dec := json.NewDecoder(bufio.NewReader(f))
	for i := 1; dec.More(); i++ {
		var event LogEvent
		if err := dec.Decode(&event); err != nil {
			return nil, fmt.Errorf("parse log event %d: %w", i, err)
		}
		events = append(events, event)
		if n > 0 && len(events) > n {
			events = events[1:]
		}
	}
	return events, nil
}
