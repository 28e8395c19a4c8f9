// Package agent is the server side of the regional execution agent: it
// receives check requests from the core dispatcher, runs them with the local
// probe engine and reports the result over the wire contract.
package agent

import (
	"encoding/json"
	"net/http"
	"time"
	"watchtower/internals/modules/agentwire"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/rules"
	"watchtower/pkg/apperror"
	"watchtower/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Handler struct {
	engine     *probe.Engine
	regionCode string
	maxTimeout time.Duration
	logger     *zerolog.Logger
}

func NewHandler(engine *probe.Engine, regionCode string, maxTimeout time.Duration, logger *zerolog.Logger) *Handler {
	return &Handler{
		engine:     engine,
		regionCode: regionCode,
		maxTimeout: maxTimeout,
		logger:     logger,
	}
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	var req agentwire.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed execute request")
		return
	}

	// rules come off the wire here, not from creation-time validation
	if err := rules.ValidateAll(req.ValidationRules); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid validation rules: "+err.Error())
		return
	}

	timeout := h.maxTimeout
	if req.TimeoutMs > 0 {
		if t := time.Duration(req.TimeoutMs) * time.Millisecond; t < timeout {
			timeout = t
		}
	}

	var res probe.Result

	switch req.MonitorType {
	case "http":
		var cfg probe.HTTPConfig
		if err := json.Unmarshal(req.Config, &cfg); err != nil || cfg.URL == "" {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid http check config")
			return
		}
		res = h.engine.ExecuteHTTP(ctx, &cfg, timeout)

	case "tcp":
		var cfg probe.TCPConfig
		if err := json.Unmarshal(req.Config, &cfg); err != nil || cfg.Host == "" {
			utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid tcp check config")
			return
		}
		res = h.engine.ExecuteTCP(ctx, &cfg, timeout)

	default:
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "unknown monitor type")
		return
	}

	// body rules must run here, the body never travels back to the core
	violations := rules.Evaluate(req.ValidationRules, res)
	if len(violations) > 0 && res.Status == probe.StatusSuccess {
		res.Status = probe.StatusFailure
	}

	resp := agentwire.FromProbeResult(req.JobID, h.regionCode, res, violations)

	h.logger.Debug().
		Str("job_id", req.JobID.String()).
		Str("monitor_id", req.MonitorID.String()).
		Str("status", resp.Status).
		Int64("response_time_ms", resp.ResponseTimeMs).
		Msg("check executed")

	writeWire(w, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeWire(w, http.StatusOK, agentwire.HealthResponse{
		Status:    "ok",
		Region:    h.regionCode,
		Timestamp: time.Now().UTC(),
	})
}

func writeWire(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
