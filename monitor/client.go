package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/artifact"
	"github.com/devadoot/devadoot/rules"
)

// APIError represents an error response from the backend API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Backend is the slice of the backend API the monitor runtime uses.
type Backend interface {
	PostVisit(ctx context.Context, pageURL string) ([]agent.Match, error)
	EvaluateUI(ctx context.Context, textSample, ruleNL string, structured *rules.Structured) (rules.Result, error)
	EvaluateAPI(ctx context.Context, req rules.APIRequest, resp rules.APIResponse, ruleNL string, structured *rules.Structured) (rules.Result, error)
	CreateCase(ctx context.Context, agentID uuid.UUID, pageURL, site string, rule agent.RuleSnapshot) (uuid.UUID, error)
	CloseCase(ctx context.Context, caseID uuid.UUID) error
	UploadArtifact(ctx context.Context, caseID uuid.UUID, kind artifact.Kind, data []byte, contentType string) error
}

// Client is an HTTP client for the DevaDoot backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a backend API client. The token may be empty when the
// backend runs with authentication disabled.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	return body, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// PostVisit reports a page visit and returns the matching agents.
func (c *Client) PostVisit(ctx context.Context, pageURL string) ([]agent.Match, error) {
	payload := map[string]string{"url": pageURL}
	var resp struct {
		Matches []agent.Match `json:"matches"`
	}
	if err := c.postJSON(ctx, "/api/events/visit", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// EvaluateUI asks the backend to score a UI text sample against a rule.
func (c *Client) EvaluateUI(ctx context.Context, textSample, ruleNL string, structured *rules.Structured) (rules.Result, error) {
	payload := map[string]interface{}{
		"textSample": textSample,
		"ruleNL":     ruleNL,
	}
	if structured != nil {
		payload["ruleStructured"] = structured
	}

	var result rules.Result
	if err := c.postJSON(ctx, "/api/rules/evaluate/ui", payload, &result); err != nil {
		return rules.Result{}, err
	}
	return result, nil
}

// EvaluateAPI asks the backend to score observed API activity against a rule.
func (c *Client) EvaluateAPI(ctx context.Context, req rules.APIRequest, resp rules.APIResponse, ruleNL string, structured *rules.Structured) (rules.Result, error) {
	payload := map[string]interface{}{
		"request":  req,
		"response": resp,
		"ruleNL":   ruleNL,
	}
	if structured != nil {
		payload["ruleStructured"] = structured
	}

	var result rules.Result
	if err := c.postJSON(ctx, "/api/rules/evaluate/api", payload, &result); err != nil {
		return rules.Result{}, err
	}
	return result, nil
}

// CreateCase opens a new case for a fired rule and returns its id.
func (c *Client) CreateCase(ctx context.Context, agentID uuid.UUID, pageURL, site string, rule agent.RuleSnapshot) (uuid.UUID, error) {
	payload := map[string]interface{}{
		"agentId":      agentID,
		"url":          pageURL,
		"site":         site,
		"ruleSnapshot": rule,
	}

	var created struct {
		CaseID uuid.UUID `json:"caseId"`
	}
	if err := c.postJSON(ctx, "/api/cases", payload, &created); err != nil {
		return uuid.Nil, err
	}
	return created.CaseID, nil
}

// CloseCase closes a case on the backend.
func (c *Client) CloseCase(ctx context.Context, caseID uuid.UUID) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/cases/%s/close", caseID), map[string]string{}, nil)
}

// UploadArtifact uploads collected artifact data for a case as a
// multipart form.
func (c *Client) UploadArtifact(ctx context.Context, caseID uuid.UUID, kind artifact.Kind, data []byte, contentType string) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("kind", string(kind)); err != nil {
		return fmt.Errorf("failed to write kind field: %w", err)
	}

	filename := fmt.Sprintf("%s%s", kind, artifact.ExtensionForKind(kind))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	url := fmt.Sprintf("%s/api/cases/%s/upload", c.baseURL, caseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, err = c.do(req)
	return err
}
