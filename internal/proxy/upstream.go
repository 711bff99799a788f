package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/policydesk/policydesk/internal/agent"
)

// Upstream forwards envelopes to the agent platform's inference endpoint.
// It implements agent.Caller.
type Upstream struct {
	client *resty.Client
	url    string
}

// NewUpstream creates an Upstream for url authenticated with apiKey.
func NewUpstream(url, apiKey string, timeout time.Duration) *Upstream {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("x-api-key", apiKey)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Upstream{client: client, url: url}
}

// Call implements agent.Caller.
func (u *Upstream) Call(ctx context.Context, req agent.Request) (json.RawMessage, error) {
	httpResp, err := u.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(u.url)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &agent.CallError{AgentID: req.AgentID, Message: fmt.Sprintf("upstream unreachable: %v", err)}
	}

	if httpResp.IsError() {
		msg := upstreamMessage(httpResp.Body())
		if msg == "" {
			msg = fmt.Sprintf("upstream returned HTTP %d %s", httpResp.StatusCode(), http.StatusText(httpResp.StatusCode()))
		}
		return nil, &agent.CallError{AgentID: req.AgentID, StatusCode: httpResp.StatusCode(), Message: msg}
	}

	if msg, failed := reportedFailure(httpResp.Body()); failed {
		return nil, &agent.CallError{AgentID: req.AgentID, StatusCode: httpResp.StatusCode(), Message: msg}
	}
	return responseField(httpResp.Body())
}

// reportedFailure detects a 2xx reply whose body says "success": false.
func reportedFailure(body []byte) (string, bool) {
	var obj struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || obj.Success == nil || *obj.Success {
		return "", false
	}
	if msg := upstreamMessage(body); msg != "" {
		return msg, true
	}
	return "upstream reported failure", true
}

// responseField picks the "response" member of an upstream reply. Replies
// without one are passed through whole; non-JSON replies become a string.
func responseField(body []byte) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if r, ok := obj["response"]; ok {
			return r, nil
		}
		return json.RawMessage(body), nil
	}
	if json.Valid(body) {
		return json.RawMessage(body), nil
	}
	return json.Marshal(strings.TrimSpace(string(body)))
}

func upstreamMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	for _, k := range []string{"error", "detail", "message"} {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
