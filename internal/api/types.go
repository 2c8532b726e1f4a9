package api

import "encoding/json"

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StatusResponse is returned by GET /v1/status.
type StatusResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ConfigFingerprint string `json:"config_fingerprint"`
	Dispatching       bool   `json:"dispatching"`
	EventsSeen        int64  `json:"events_seen"`
}

// ActionRequest is the JSON body for POST /v1/action.
type ActionRequest struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ActionResponse is returned once the compositor has acknowledged an action.
type ActionResponse struct {
	RequestID string          `json:"request_id"`
	OK        bool            `json:"ok"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
