package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"agentwatch/internal/config"
	"agentwatch/internal/types"
)

const (
	defaultTimeout  = 10 * time.Second
	headerRequestID = "X-Request-ID"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	newID   func() string
}

func New(cfg config.Config) *Client {
	c := NewWithBaseURL(cfg.BaseURL(), cfg.Token())
	c.http.Timeout = cfg.RequestTimeout()
	return c
}

func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		newID: uuid.NewString,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSession submits a new session for agentType.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*types.Session, error) {
	if strings.TrimSpace(req.AgentType) == "" {
		return nil, errors.New("agent type is required")
	}
	var session types.Session
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches the session snapshot with messages, embedded workflow,
// sources and logs.
func (c *Client) GetSession(ctx context.Context, id string) (*types.Session, error) {
	path, err := sessionPath(id)
	if err != nil {
		return nil, err
	}
	var session types.Session
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetWorkflow fetches the workflow for a session. A session that never had a
// task submitted has no workflow; that case returns nil without an error.
func (c *Client) GetWorkflow(ctx context.Context, sessionID string) (*types.Workflow, error) {
	path, err := sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	var workflow types.Workflow
	if err := c.doJSON(ctx, http.MethodGet, path+"/workflow", nil, &workflow); err != nil {
		if apiErr := AsAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	workflow.Status = types.NormalizeWorkflowStatus(string(workflow.Status))
	return &workflow, nil
}

// SendMessage submits task content for a session.
func (c *Client) SendMessage(ctx context.Context, sessionID string, req SendMessageRequest) (*SendMessageResponse, error) {
	path, err := sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.New("content is required")
	}
	var resp SendMessageResponse
	if err := c.doJSON(ctx, http.MethodPost, path+"/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func sessionPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("session id is required")
	}
	return "/v1/sessions/" + url.PathEscape(id), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.newID != nil {
		req.Header.Set(headerRequestID, c.newID())
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
