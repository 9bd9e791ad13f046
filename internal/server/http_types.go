package server

import (
	"github.com/sanonone/pbg/pkg/core"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
)

// NeighborsResponse is returned by GET /v1/vertices/{id}/out/{label}.
type NeighborsResponse struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Vertices []string `json:"vertices"`
	Degree   int      `json:"degree"`
}

// PredicatesResponse is returned by GET /v1/vertices/{id}/predicates.
type PredicatesResponse struct {
	ID     string   `json:"id"`
	Labels []string `json:"labels"`
}

// TypeResponse is returned by GET /v1/types/{id}.
type TypeResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// HotspotResponse is returned by GET /v1/reports/hotspot.
type HotspotResponse struct {
	SessionID string          `json:"session_id"`
	Result    *hotspot.Result `json:"result"`
	Report    []string        `json:"report"`
}

// VariablesResponse is returned by GET /v1/reports/variables/{function}.
type VariablesResponse struct {
	SessionID string               `json:"session_id"`
	Function  string               `json:"function"`
	Variables []debuginfo.Variable `json:"variables"`
	Report    []string             `json:"report"`
}

// StatsResponse is returned by GET /v1/stats.
type StatsResponse struct {
	core.Stats
	Frozen bool `json:"frozen"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}
