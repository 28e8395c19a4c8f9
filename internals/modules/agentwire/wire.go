// Package agentwire holds the wire contract between the core dispatcher and
// the regional execution agents. Both sides import it, nothing else does.
package agentwire

import (
	"encoding/json"
	"time"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/rules"

	"github.com/google/uuid"
)

// AuthHeader carries the shared key, exchanged out of band per region.
// /health is intentionally unauthenticated.
const AuthHeader = "X-Watchtower-Key"

const (
	// ErrAgentUnreachable classifies a region agent the core could not reach
	// or that answered outside the contract.
	ErrAgentUnreachable = "agent_unreachable"
)

type ExecuteRequest struct {
	JobID           uuid.UUID       `json:"jobId"`
	MonitorID       uuid.UUID       `json:"monitorId"`
	MonitorType     string          `json:"monitorType"`
	Config          json.RawMessage `json:"config"`
	ValidationRules []rules.Rule    `json:"validationRules,omitempty"`
	TimeoutMs       int64           `json:"timeoutMs,omitempty"`
}

type WireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type ExecuteResponse struct {
	JobID            uuid.UUID         `json:"jobId"`
	Region           string            `json:"region"`
	Status           string            `json:"status"`
	ResponseTimeMs   int64             `json:"responseTimeMs"`
	StatusCode       *int              `json:"statusCode,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	Timing           *probe.Timing     `json:"timing,omitempty"`
	BodySizeBytes    int64             `json:"bodySizeBytes,omitempty"`
	ValidationErrors []string          `json:"validationErrors,omitempty"`
	Error            *WireError        `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Region    string    `json:"region"`
	Timestamp time.Time `json:"timestamp"`
}

// FromProbeResult flattens a local probe result into the wire shape.
func FromProbeResult(jobID uuid.UUID, region string, res probe.Result, violations []string) ExecuteResponse {
	resp := ExecuteResponse{
		JobID:            jobID,
		Region:           region,
		Status:           string(res.Status),
		ResponseTimeMs:   res.Timing.TotalMs,
		BodySizeBytes:    res.BodySizeBytes,
		ValidationErrors: violations,
	}

	timing := res.Timing
	resp.Timing = &timing

	if res.StatusCode != 0 {
		code := res.StatusCode
		resp.StatusCode = &code
	}

	if len(res.Headers) > 0 {
		resp.Headers = make(map[string]string, len(res.Headers))
		for k := range res.Headers {
			resp.Headers[k] = res.Headers.Get(k)
		}
	}

	if res.Err != nil {
		resp.Error = &WireError{Message: res.Err.Message, Type: res.Err.Type}
	}

	return resp
}

// ToProbeResult rebuilds a probe result from a wire response. The body never
// travels back, so BodyCaptured stays false; body rules were already
// evaluated agent-side.
func ToProbeResult(resp ExecuteResponse) probe.Result {
	res := probe.Result{
		Status:        probe.Status(resp.Status),
		BodySizeBytes: resp.BodySizeBytes,
	}

	if resp.StatusCode != nil {
		res.StatusCode = *resp.StatusCode
	}
	if resp.Timing != nil {
		res.Timing = *resp.Timing
	} else {
		res.Timing = probe.Timing{TotalMs: resp.ResponseTimeMs}
	}
	if resp.Error != nil {
		res.Err = &probe.CheckError{Type: resp.Error.Type, Message: resp.Error.Message}
	}

	return res
}
