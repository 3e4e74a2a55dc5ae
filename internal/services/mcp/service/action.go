package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	stream "github.com/drifthall/gamewire/internal/services/stream/app"
)

// ActionArgs carries the tool arguments handed to the domain-action handler.
type ActionArgs struct {
	SessionID string         `json:"sessionId"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ActionResult is what a domain-action handler returns. The bridge reads only
// Events and the session identifier; everything else is passed back to the
// tool caller untouched.
type ActionResult struct {
	Success bool                 `json:"success"`
	Data    map[string]any       `json:"data,omitempty"`
	Error   string               `json:"error,omitempty"`
	Events  []stream.DomainEvent `json:"events,omitempty"`
}

// ActionHandler performs a mutation against a shared session and returns the
// domain events it produced. Its internal logic is opaque to the bridge.
type ActionHandler interface {
	HandleAction(ctx context.Context, tool string, args ActionArgs) (ActionResult, error)
}

type actionRequest struct {
	Tool      string         `json:"tool"`
	SessionID string         `json:"sessionId"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// httpActionHandler forwards actions to an external game backend over HTTP,
// keeping game rules out of this process.
type httpActionHandler struct {
	endpoint   string
	httpClient *http.Client
}

func newHTTPActionHandler(endpoint string, httpClient *http.Client) (*httpActionHandler, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("action endpoint is required")
	}
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	return &httpActionHandler{endpoint: endpoint, httpClient: httpClient}, nil
}

func (h *httpActionHandler) HandleAction(ctx context.Context, tool string, args ActionArgs) (ActionResult, error) {
	body, err := json.Marshal(actionRequest{
		Tool:      tool,
		SessionID: args.SessionID,
		Arguments: args.Arguments,
	})
	if err != nil {
		return ActionResult{}, fmt.Errorf("encode action request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return ActionResult{}, fmt.Errorf("build action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return ActionResult{}, fmt.Errorf("call action endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ActionResult{}, fmt.Errorf("action endpoint status %d", resp.StatusCode)
	}

	var result ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ActionResult{}, fmt.Errorf("decode action response: %w", err)
	}
	return result, nil
}

// dispatchSessionID resolves where the produced events should be routed: the
// explicit argument wins, then the first event's session.
func dispatchSessionID(args ActionArgs, events []stream.DomainEvent) string {
	if sessionID := strings.TrimSpace(args.SessionID); sessionID != "" {
		return sessionID
	}
	if len(events) > 0 {
		return strings.TrimSpace(events[0].SessionID)
	}
	return ""
}
