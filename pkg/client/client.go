// Package client provides a Go client for the pbg HTTP API.
//
// It covers the graph read endpoints (neighbours, predicates, stats), type
// resolution and the two reports (miss hotspot, variables). The client
// handles HTTP communication, JSON decoding and standardized error handling.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sanonone/pbg/pkg/core"
	"github.com/sanonone/pbg/pkg/debuginfo"
	"github.com/sanonone/pbg/pkg/hotspot"
)

// --- Custom Errors ---

// APIError represents an error returned by the pbg API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

// Neighbors is the answer of OutNeighbors.
type Neighbors struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Vertices []string `json:"vertices"`
	Degree   int      `json:"degree"`
}

// HotspotReport is the answer of Hotspot.
type HotspotReport struct {
	SessionID string          `json:"session_id"`
	Result    *hotspot.Result `json:"result"`
	Report    []string        `json:"report"`
}

// VariableReport is the answer of Variables.
type VariableReport struct {
	SessionID string               `json:"session_id"`
	Function  string               `json:"function"`
	Variables []debuginfo.Variable `json:"variables"`
	Report    []string             `json:"report"`
}

// GraphStats is the answer of Stats.
type GraphStats struct {
	core.Stats
	Frozen bool `json:"frozen"`
}

type predicatesResponse struct {
	Labels []string `json:"labels"`
}

type typeResponse struct {
	Type string `json:"type"`
}

// --- Client ---

// Client is the Go client for a pbg server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:9191").
// An empty token sends no Authorization header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// getJSON executes a GET request and decodes the JSON answer into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Stats returns the size of the served graph.
func (c *Client) Stats(ctx context.Context) (*GraphStats, error) {
	var out GraphStats
	if err := c.getJSON(ctx, "/v1/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OutNeighbors follows the outgoing edges of id labelled label. A positive
// limit caps the number of returned vertices.
func (c *Client) OutNeighbors(ctx context.Context, id, label string, limit int) (*Neighbors, error) {
	endpoint := "/v1/vertices/" + url.PathEscape(id) + "/out/" + url.PathEscape(label)
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	var out Neighbors
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predicates lists the outgoing edge labels of id.
func (c *Client) Predicates(ctx context.Context, id string) ([]string, error) {
	var out predicatesResponse
	if err := c.getJSON(ctx, "/v1/vertices/"+url.PathEscape(id)+"/predicates", &out); err != nil {
		return nil, err
	}
	return out.Labels, nil
}

// ResolveType renders a type id as a C type string.
func (c *Client) ResolveType(ctx context.Context, typeID string) (string, error) {
	var out typeResponse
	if err := c.getJSON(ctx, "/v1/types/"+url.PathEscape(typeID), &out); err != nil {
		return "", err
	}
	return out.Type, nil
}

// Hotspot runs the miss hotspot report.
func (c *Client) Hotspot(ctx context.Context) (*HotspotReport, error) {
	var out HotspotReport
	if err := c.getJSON(ctx, "/v1/reports/hotspot", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Variables runs the variable report for function.
func (c *Client) Variables(ctx context.Context, function string) (*VariableReport, error) {
	var out VariableReport
	if err := c.getJSON(ctx, "/v1/reports/variables/"+url.PathEscape(function), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
