package agentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"watchtower/internals/modules/agentwire"

	"github.com/rs/zerolog"
)

// Client sends check requests to regional agent processes. The per-call
// deadline comes from the caller's context; a hanging agent only occupies
// the calling worker slot up to that deadline.
type Client struct {
	httpClient *http.Client
	sharedKey  string
	logger     *zerolog.Logger
}

func New(httpClient *http.Client, sharedKey string, logger *zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		sharedKey:  sharedKey,
		logger:     logger,
	}
}

func (c *Client) Execute(ctx context.Context, endpointURL string, req agentwire.ExecuteRequest) (agentwire.ExecuteResponse, error) {

	body, err := json.Marshal(req)
	if err != nil {
		return agentwire.ExecuteResponse{}, fmt.Errorf("marshal execute request: %w", err)
	}

	executeURL := strings.TrimSuffix(endpointURL, "/") + "/execute"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, executeURL, bytes.NewReader(body))
	if err != nil {
		return agentwire.ExecuteResponse{}, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(agentwire.AuthHeader, c.sharedKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return agentwire.ExecuteResponse{}, fmt.Errorf("call agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return agentwire.ExecuteResponse{}, fmt.Errorf("agent returned HTTP %d", resp.StatusCode)
	}

	var execResp agentwire.ExecuteResponse
	if err := json.NewDecoder(resp.Body).Decode(&execResp); err != nil {
		return agentwire.ExecuteResponse{}, fmt.Errorf("decode agent response: %w", err)
	}

	return execResp, nil
}
