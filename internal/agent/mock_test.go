package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/policydesk/policydesk/internal/policy"
)

func newMockService() *Service {
	return NewService(NewMockClient(testAgents, 0), testAgents, "user", zerolog.Nop())
}

func TestMockInterviewProgression(t *testing.T) {
	svc := newMockService()
	ctx := context.Background()
	history := policy.SampleConversation()

	first, err := svc.Interview(ctx, "run-1", InterviewInput{
		Message: "Engineering and Product only",
		History: history,
	})
	if err != nil {
		t.Fatalf("Interview: %v", err)
	}
	if !first.HasProgress || first.Progress != 65 {
		t.Errorf("first progress = %d, want 65", first.Progress)
	}
	if first.Gathered.Departments != "Engineering and Product only" {
		t.Errorf("answer to the departments question should fill Departments, got %+v", first.Gathered)
	}
	if !strings.Contains(first.Text, "work hour") {
		t.Errorf("unexpected first question %q", first.Text)
	}

	history = append(history,
		policy.Message{Sender: policy.SenderUser, Content: "Engineering and Product only"},
		policy.Message{Sender: policy.SenderAgent, Content: first.Text},
	)
	second, err := svc.Interview(ctx, "run-1", InterviewInput{Message: "Core hours 10 to 3", History: history})
	if err != nil {
		t.Fatalf("Interview: %v", err)
	}
	if second.Progress != 80 {
		t.Errorf("second progress = %d, want 80", second.Progress)
	}
	if second.Gathered.WorkHours != "Core hours 10 to 3" {
		t.Errorf("WorkHours = %q", second.Gathered.WorkHours)
	}

	other, _ := svc.Interview(ctx, "run-2", InterviewInput{Message: "hi"})
	if other.Progress != 65 {
		t.Errorf("sessions should progress independently, got %d", other.Progress)
	}
}

func TestMockDraftAndFinalize(t *testing.T) {
	svc := newMockService()
	ctx := context.Background()

	res, ok, err := svc.GenerateDraft(ctx, "run", policy.GatheredInfo{
		PolicyType:   "Remote Work",
		Jurisdiction: "California",
	})
	if err != nil || !ok {
		t.Fatalf("GenerateDraft: ok=%v err=%v", ok, err)
	}
	if res.Title != "Remote Work Policy" {
		t.Errorf("Title = %q", res.Title)
	}
	if !strings.HasPrefix(res.Content, "REMOTE WORK POLICY") {
		t.Errorf("Content starts with %q", strings.SplitN(res.Content, "\n", 2)[0])
	}
	if len(res.Compliance) != 3 || res.Compliance[2].Jurisdiction != "California" {
		t.Errorf("Compliance = %+v", res.Compliance)
	}

	draft := policy.SampleDraft()
	draft.Content = "EDITED CONTENT"
	final, err := svc.Finalize(ctx, "run", draft, Organization{Name: "Acme"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if final.Title != draft.Title {
		t.Errorf("Title = %q", final.Title)
	}
	if !strings.Contains(final.Content, "EDITED CONTENT") || !strings.HasPrefix(final.Content, "ACME") {
		t.Errorf("Content = %q", final.Content)
	}
}

func TestMockResearchCompliance(t *testing.T) {
	items, err := newMockService().ResearchCompliance(context.Background(), "", ComplianceQuery{
		PolicyType:   "PTO Policy",
		Jurisdiction: "Texas",
	})
	if err != nil {
		t.Fatalf("ResearchCompliance: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	if items[2].Status != policy.NeedsReview || items[2].Jurisdiction != "Texas" {
		t.Errorf("state item = %+v", items[2])
	}
}

func TestMockUnknownAgent(t *testing.T) {
	_, err := NewMockClient(testAgents, 0).Call(context.Background(), Request{AgentID: "nope"})
	if !errors.Is(err, ErrAgentFailed) {
		t.Errorf("expected agent failure, got %v", err)
	}
}

func TestMockHonoursCancel(t *testing.T) {
	client := NewMockClient(testAgents, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Call(ctx, Request{AgentID: testAgents.Interview}); !IsCanceled(err) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
