package social

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const defaultLateBaseURL = "https://getlate.dev/api/v1"

// ErrNoAPIKey means the Late API key is missing from config.
var ErrNoAPIKey = errors.New("no Late API key configured; use configure_social_media to set your key")

// LateClient talks to the Late social-scheduling API with bearer auth.
type LateClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewLateClient builds a client for the given API key.
func NewLateClient(apiKey string) (*LateClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &LateClient{
		BaseURL:    defaultLateBaseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Account is a social account connected in Late.
type Account struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// lateError carries the upstream status and body so the caller can retry with
// full context; partial local state (the draft) is left intact on failure.
type lateError struct {
	Op     string
	Status int
	Body   string
}

func (e *lateError) Error() string {
	return fmt.Sprintf("%s: Late API returned %d: %s", e.Op, e.Status, e.Body)
}

// Accounts fetches the connected accounts. Late has returned both a bare
// array and a wrapped object across versions; both shapes are accepted.
func (c *LateClient) Accounts() ([]Account, error) {
	body, err := c.do("GET", "/accounts", "", nil, "fetch accounts")
	if err != nil {
		return nil, err
	}

	var accounts []Account
	if err := json.Unmarshal(body, &accounts); err == nil {
		return accounts, nil
	}

	var wrapped struct {
		Data     []Account `json:"data"`
		Accounts []Account `json:"accounts"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode Late accounts: %w", err)
	}
	if len(wrapped.Data) > 0 {
		return wrapped.Data, nil
	}
	return wrapped.Accounts, nil
}

// UploadMedia posts a local file and returns the media ID.
func (c *LateClient) UploadMedia(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read media: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("build media upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build media upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build media upload: %w", err)
	}

	body, err := c.do("POST", "/utilities/media", mw.FormDataContentType(), &buf, "upload media")
	if err != nil {
		return "", err
	}

	var result struct {
		ID      string `json:"id"`
		MediaID string `json:"mediaId"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode media upload response: %w", err)
	}
	if result.ID != "" {
		return result.ID, nil
	}
	return result.MediaID, nil
}

// PostRequest is the create-post payload.
type PostRequest struct {
	Content      string   `json:"content"`
	AccountIDs   []string `json:"accountIds"`
	MediaIDs     []string `json:"mediaIds,omitempty"`
	Title        string   `json:"title,omitempty"`
	Subreddit    string   `json:"subreddit,omitempty"`
	ScheduledFor string   `json:"scheduledFor,omitempty"`
	Timezone     string   `json:"timezone,omitempty"`
	PublishNow   bool     `json:"publishNow,omitempty"`
}

// CreatePost publishes or schedules the post and returns the post ID.
func (c *LateClient) CreatePost(req *PostRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	body, err := c.do("POST", "/posts", "application/json", bytes.NewReader(payload), "create post")
	if err != nil {
		return "", err
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"postId"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", nil
	}
	if result.ID != "" {
		return result.ID, nil
	}
	return result.PostID, nil
}

func (c *LateClient) do(method, path, contentType string, body io.Reader, op string) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build Late request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: connecting to Late API: %w", op, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &lateError{Op: op, Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return data, nil
}
