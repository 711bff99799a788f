// Package testutil provides test helper utilities for policydesk tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TempProject creates a temporary directory with the given files and returns its path.
// Files is a map of relative path -> content. Directories are created as needed.
// The directory is automatically cleaned up when the test finishes.
func TempProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for relPath, content := range files {
		absPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", relPath, err)
		}
		if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", relPath, err)
		}
	}

	return dir
}

// ConfigProject returns files for a project with the given config.yaml body.
func ConfigProject(configYAML string) map[string]string {
	return map[string]string{
		".policydesk/config.yaml": configYAML,
	}
}

// Envelope mirrors the request body posted to /api/agent.
type Envelope struct {
	Message   string `json:"message"`
	AgentID   string `json:"agent_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// Payload decodes the serialized message into v.
func (e Envelope) Payload(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(e.Message), v); err != nil {
		t.Fatalf("decoding envelope message %q: %v", e.Message, err)
	}
}

// AgentReply is what a fake agent endpoint answers with.
type AgentReply struct {
	Status int
	Body   string
}

// AgentServer is a fake /api/agent endpoint that records every envelope.
type AgentServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Envelope
}

// NewAgentServer starts a fake agent endpoint. reply decides the answer for
// each decoded envelope. The server is closed when the test finishes.
func NewAgentServer(t *testing.T, reply func(Envelope) AgentReply) *AgentServer {
	t.Helper()
	s := &AgentServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var env Envelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			http.Error(w, `{"success":false,"error":"bad envelope"}`, http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, env)
		s.mu.Unlock()

		out := reply(env)
		if out.Status == 0 {
			out.Status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(out.Status)
		_, _ = w.Write([]byte(out.Body))
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns a copy of the envelopes received so far.
func (s *AgentServer) Requests() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Envelope(nil), s.requests...)
}
