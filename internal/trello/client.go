// Package trello wraps the Trello REST API for the development workflow board:
// lanes, labels, and card operations, with the workflow transition rules
// enforced locally before any move hits the API.
package trello

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/cexll/solar2d-mcp/internal/config"
)

const defaultBaseURL = "https://api.trello.com/1"

// ErrNotConfigured means the API key/token pair is missing from config.
var ErrNotConfigured = errors.New("Trello not configured; use configure_trello to set your API key and token")

// Lane is a workflow role mapped onto a Trello list.
type Lane string

const (
	LaneIdeas       Lane = "ideas"
	LanePlanning    Lane = "planning"
	LaneBlockedPlan Lane = "blocked_plan"
	LaneBacklog     Lane = "backlog"
	LaneInProgress  Lane = "in_progress"
	LaneBlockedWork Lane = "blocked_work"
	LaneDone        Lane = "done"
)

// LaneOrder is the canonical presentation order for the workflow lanes.
var LaneOrder = []Lane{
	LaneIdeas, LanePlanning, LaneBlockedPlan, LaneBacklog,
	LaneInProgress, LaneBlockedWork, LaneDone,
}

// LaneNames maps workflow roles to the Trello list names expected on the board.
var LaneNames = map[Lane]string{
	LaneIdeas:       "Ideas",
	LanePlanning:    "Planning",
	LaneBlockedPlan: "Blocked:Plan",
	LaneBacklog:     "Backlog",
	LaneInProgress:  "In Progress",
	LaneBlockedWork: "Blocked:Work",
	LaneDone:        "Done",
}

// ValidTransitions lists, per lane, where a card may move next. Cards advance
// one step or bounce to/from a blocked lane; done is terminal.
var ValidTransitions = map[Lane][]Lane{
	LaneIdeas:       {LanePlanning},
	LanePlanning:    {LaneBlockedPlan, LaneBacklog},
	LaneBlockedPlan: {LanePlanning},
	LaneBacklog:     {LaneInProgress},
	LaneInProgress:  {LaneBlockedWork, LaneDone},
	LaneBlockedWork: {LaneInProgress},
	LaneDone:        {},
}

// LabelDefs maps workflow label names to their Trello colors.
var LabelDefs = map[string]string{
	"bug":              "red",
	"priority":         "yellow",
	"ai-created":       "purple",
	"needs-screenshot": "orange",
	"shareable":        "pink",
}

// IsLane reports whether name is a known workflow role.
func IsLane(name string) bool {
	_, ok := LaneNames[Lane(name)]
	return ok
}

// LaneList returns the valid role names in canonical order, for error messages.
func LaneList() []string {
	names := make([]string, len(LaneOrder))
	for i, l := range LaneOrder {
		names[i] = string(l)
	}
	return names
}

// Client is an authenticated Trello API client. Auth travels as key/token
// query parameters on every request.
type Client struct {
	BaseURL    string
	Key        string
	Token      string
	HTTPClient *http.Client

	cfg *config.TrelloConfig
}

// NewClient builds a client from the persisted Trello config.
func NewClient(tc *config.TrelloConfig) (*Client, error) {
	if tc.APIKey == "" || tc.APIToken == "" {
		return nil, ErrNotConfigured
	}
	return &Client{
		BaseURL:    defaultBaseURL,
		Key:        tc.APIKey,
		Token:      tc.APIToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        tc,
	}, nil
}

// Config exposes the lane/label mappings the client was built from.
func (c *Client) Config() *config.TrelloConfig { return c.cfg }

// ResolveLaneID maps a workflow role to its Trello list ID.
func (c *Client) ResolveLaneID(lane Lane) string {
	return c.cfg.LaneMap[string(lane)]
}

// ResolveLaneRole maps a Trello list ID back to its workflow role.
func (c *Client) ResolveLaneRole(listID string) (Lane, bool) {
	for role, id := range c.cfg.LaneMap {
		if id == listID {
			return Lane(role), true
		}
	}
	return "", false
}

// apiError carries the upstream status and body so callers can show the user
// exactly what Trello rejected.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("Trello API returned %d: %s", e.Status, e.Body)
}

// request performs an authenticated call. params is either nil, url.Values,
// or a struct with `url` tags encoded via go-querystring. The JSON response is
// decoded into out when out is non-nil.
func (c *Client) request(method, path string, params any, out any) error {
	values, err := toValues(params)
	if err != nil {
		return err
	}
	values.Set("key", c.Key)
	values.Set("token", c.Token)

	req, err := http.NewRequest(method, c.BaseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build Trello request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("Trello request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode Trello response: %w", err)
	}
	return nil
}

// upload POSTs a file as multipart form data (card attachments).
func (c *Client) upload(path, filename string, data []byte, out any) error {
	values := url.Values{}
	values.Set("key", c.Key)
	values.Set("token", c.Token)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+path+"?"+values.Encode(), &buf)
	if err != nil {
		return fmt.Errorf("build Trello upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("Trello upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode Trello response: %w", err)
		}
	}
	return nil
}

func toValues(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		return p, nil
	default:
		values, err := query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("encode Trello params: %w", err)
		}
		return values, nil
	}
}
