package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// handleStatus handles GET /v1/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StatusResponse{
		Status:            "ok",
		Version:           s.config.Version,
		UptimeSeconds:     int64(time.Since(s.startedAt).Seconds()),
		ConfigFingerprint: s.config.ConfigFingerprint,
		Dispatching:       s.dispatch.Running(),
		EventsSeen:        s.dispatch.EventCount(),
	})
}

// handleAction handles POST /v1/action. The action is forwarded to the
// compositor as-is; a rejected action comes back as 200 with ok=false since
// the HTTP exchange itself succeeded.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if s.request == nil {
		s.writeError(w, http.StatusServiceUnavailable, "compositor not reachable")
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Action = strings.TrimSpace(req.Action)
	if req.Action == "" {
		s.writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	requestID := uuid.NewString()

	var action any = req.Action
	if len(req.Params) > 0 {
		action = map[string]json.RawMessage{req.Action: req.Params}
	}

	reply, err := s.request(map[string]any{"Action": action})
	if err != nil {
		s.logger.Error("action forward failed",
			"request_id", requestID, "action", req.Action, "error", err)
		s.writeError(w, http.StatusBadGateway, "compositor request failed: "+err.Error())
		return
	}

	s.logger.Info("action forwarded",
		"request_id", requestID, "action", req.Action, "ok", reply.OK)

	resp := ActionResponse{RequestID: requestID, OK: reply.OK}
	if reply.OK {
		resp.Result = reply.Payload
	} else {
		resp.Error = reply.Payload
	}
	s.writeJSON(w, http.StatusOK, resp)
}
