package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/policydesk/policydesk/internal/agent"
	"github.com/policydesk/policydesk/internal/testutil"
)

func newTestServer(t *testing.T, caller agent.Caller) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv := NewServer(Options{
		AllowedOrigins: []string{"http://app.test"},
		Caller:         caller,
		Logger:         zerolog.Nop(),
		Registry:       reg,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, reg
}

func postEnvelope(t *testing.T, url, body string) (int, agent.Response) {
	t.Helper()
	resp, err := http.Post(url+"/api/agent", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	var env agent.Response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func TestProxyForwardsToUpstream(t *testing.T) {
	var gotKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		var env testutil.Envelope
		_ = json.NewDecoder(r.Body).Decode(&env)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":{"response":"Which states?","progress":65},"module_outputs":{}}`)
	}))
	defer upstream.Close()

	ts, _ := newTestServer(t, NewUpstream(upstream.URL, "k-123", 5*time.Second))
	status, env := postEnvelope(t, ts.URL,
		`{"message":"{\"user_message\":\"hi\"}","agent_id":"interview-agent","user_id":"u","session_id":"s"}`)

	if status != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", status, env)
	}
	if string(env.Response) != `{"response":"Which states?","progress":65}` {
		t.Errorf("response = %s", env.Response)
	}
	if gotKey != "k-123" {
		t.Errorf("x-api-key = %q", gotKey)
	}

	reply := agent.ParseInterviewReply(env.Response)
	if reply.Text != "Which states?" || reply.Progress != 65 {
		t.Errorf("envelope response did not parse: %+v", reply)
	}
}

func TestProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"detail":"rate limited"}`)
	}))
	defer upstream.Close()

	ts, reg := newTestServer(t, NewUpstream(upstream.URL, "", 0))
	status, env := postEnvelope(t, ts.URL, `{"message":"{}","agent_id":"a1"}`)

	if status != http.StatusBadGateway || env.Success || env.Error != "rate limited" {
		t.Errorf("status=%d env=%+v", status, env)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "policydesk_proxy_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcomeError && m.GetCounter().GetValue() == 1 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected one error outcome in policydesk_proxy_requests_total")
	}
}

func TestProxyUpstreamReportedFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":false,"error":"rate limited"}`)
	}))
	defer upstream.Close()

	ts, _ := newTestServer(t, NewUpstream(upstream.URL, "", 0))
	status, env := postEnvelope(t, ts.URL, `{"message":"{}","agent_id":"a1"}`)

	if status != http.StatusBadGateway || env.Success || env.Error != "rate limited" {
		t.Errorf("status=%d env=%+v", status, env)
	}
}

func TestReportedFailure(t *testing.T) {
	tests := []struct {
		body    string
		wantMsg string
		wantOK  bool
	}{
		{`{"success":false,"error":"rate limited"}`, "rate limited", true},
		{`{"success":false}`, "upstream reported failure", true},
		{`{"success":true,"response":"hi"}`, "", false},
		{`{"response":"hi"}`, "", false},
		{`[false]`, "", false},
		{`plain text`, "", false},
	}
	for _, tt := range tests {
		msg, ok := reportedFailure([]byte(tt.body))
		if msg != tt.wantMsg || ok != tt.wantOK {
			t.Errorf("reportedFailure(%s) = %q, %v", tt.body, msg, ok)
		}
	}
}

func TestProxyRejectsBadEnvelopes(t *testing.T) {
	ts, _ := newTestServer(t, agent.NewMockClient(agent.Agents{Interview: "a1"}, 0))
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"message":`},
		{"missing agent id", `{"message":"{}"}`},
		{"missing message", `{"agent_id":"a1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := postEnvelope(t, ts.URL, tt.body)
			if status != http.StatusBadRequest || env.Success || env.Error == "" {
				t.Errorf("status=%d env=%+v", status, env)
			}
		})
	}
}

func TestProxyWithMockCaller(t *testing.T) {
	agents := agent.Agents{Interview: "iv", DraftCoordinator: "dc", Finalizer: "fz", ComplianceResearch: "cr"}
	ts, _ := newTestServer(t, agent.NewMockClient(agents, 0))

	status, env := postEnvelope(t, ts.URL, `{"message":"{\"policy_type\":\"PTO\",\"jurisdiction\":\"California\"}","agent_id":"cr"}`)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("status=%d env=%+v", status, env)
	}
	if items := agent.ParseCompliance(env.Response); len(items) != 3 {
		t.Errorf("compliance items = %+v", items)
	}
}

func TestProxyHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, agent.NewMockClient(agent.Agents{}, 0))

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "policydesk_proxy_in_flight_requests") {
		t.Errorf("metrics output missing gauge:\n%s", body)
	}
}

func TestProxyCORS(t *testing.T) {
	ts, _ := newTestServer(t, agent.NewMockClient(agent.Agents{}, 0))

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/agent", nil)
	req.Header.Set("Origin", "http://app.test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req, _ = http.NewRequest(http.MethodOptions, ts.URL+"/api/agent", nil)
	req.Header.Set("Origin", "http://evil.test")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got Allow-Origin %q", got)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := NewServer(Options{Caller: agent.NewMockClient(agent.Agents{}, 0), Logger: zerolog.Nop()})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestResponseField(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"response":"hi"}`, `"hi"`},
		{`{"other":1}`, `{"other":1}`},
		{`[1,2]`, `[1,2]`},
		{`plain text reply`, `"plain text reply"`},
	}
	for _, tt := range tests {
		got, err := responseField([]byte(tt.body))
		if err != nil {
			t.Fatalf("responseField(%s): %v", tt.body, err)
		}
		if string(got) != tt.want {
			t.Errorf("responseField(%s) = %s, want %s", tt.body, got, tt.want)
		}
	}
}
