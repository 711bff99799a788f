package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Caller delivers one envelope to an agent and returns the raw response
// field of a successful reply.
type Caller interface {
	Call(ctx context.Context, req Request) (json.RawMessage, error)
}

// HTTPClient posts envelopes to an /api/agent endpoint.
type HTTPClient struct {
	client   *resty.Client
	endpoint string
}

// NewHTTPClient creates a client for endpoint. A zero timeout leaves
// requests unbounded; they still end when their context is cancelled.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPClient{client: client, endpoint: endpoint}
}

// Call implements Caller. A non-2xx status or success:false is reported as
// a *CallError.
func (c *HTTPClient) Call(ctx context.Context, req Request) (json.RawMessage, error) {
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &CallError{AgentID: req.AgentID, Message: err.Error()}
	}

	var env Response
	decodeErr := json.Unmarshal(httpResp.Body(), &env)

	if httpResp.IsError() {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("agent returned HTTP %d %s", httpResp.StatusCode(), http.StatusText(httpResp.StatusCode()))
		}
		return nil, &CallError{AgentID: req.AgentID, StatusCode: httpResp.StatusCode(), Message: msg}
	}
	if decodeErr != nil {
		return nil, &CallError{
			AgentID:    req.AgentID,
			StatusCode: httpResp.StatusCode(),
			Message:    fmt.Sprintf("invalid agent response: %v", decodeErr),
		}
	}
	if !env.Success {
		return nil, &CallError{AgentID: req.AgentID, StatusCode: httpResp.StatusCode(), Message: env.Error}
	}
	return env.Response, nil
}
