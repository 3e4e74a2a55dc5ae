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

// EventForwarder hands a batch of domain events to the stream service's
// dispatch entry point. The contract there is append then best-effort push.
type EventForwarder interface {
	Forward(ctx context.Context, sessionID string, events []stream.DomainEvent) error
}

type dispatchRequest struct {
	SessionID string               `json:"sessionId"`
	Events    []stream.DomainEvent `json:"events"`
}

// httpForwarder posts dispatch batches to the stream service.
type httpForwarder struct {
	endpoint   string
	httpClient *http.Client
}

func newHTTPForwarder(endpoint string, httpClient *http.Client) (*httpForwarder, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("dispatch endpoint is required")
	}
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	return &httpForwarder{endpoint: endpoint, httpClient: httpClient}, nil
}

func (f *httpForwarder) Forward(ctx context.Context, sessionID string, events []stream.DomainEvent) error {
	body, err := json.Marshal(dispatchRequest{SessionID: sessionID, Events: events})
	if err != nil {
		return fmt.Errorf("encode dispatch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call dispatch endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispatch endpoint status %d", resp.StatusCode)
	}
	return nil
}
