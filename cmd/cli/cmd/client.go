package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"statusboard/pkg/api"
)

// JobClient handles API calls to the statusboard controller.
type JobClient struct {
	BaseURL    string
	APIPrefix  string
	Token      string
	HTTPClient *http.Client
}

// NewJobClient creates a new client with the given base URL, route prefix and API key.
// An empty prefix means the controller default, /api/.
func NewJobClient(baseURL, prefix, token string) *JobClient {
	if prefix == "" {
		prefix = "/api/"
	}
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	if prefix == "//" {
		prefix = "/"
	}
	return &JobClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIPrefix: prefix,
		Token:     token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *JobClient) endpoint(path string) string {
	return c.BaseURL + c.APIPrefix + path
}

// do sends the request and decodes a successful JSON body into out.
func (c *JobClient) do(req *http.Request, authenticated bool, out any) error {
	if authenticated {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := strings.TrimSpace(string(respBody))
		var apiErr api.ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// SubmitJob sends POST secure/jobs to start a new job.
func (c *JobClient) SubmitJob(req api.SubmitJobRequest) (*api.SubmitJobResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.endpoint("secure/jobs"), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result api.SubmitJobResponse
	if err := c.do(httpReq, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListJobs sends GET secure/status/jobs. Finished jobs in the result are
// removed on the server by this call.
func (c *JobClient) ListJobs() ([]api.JobResponse, error) {
	httpReq, err := http.NewRequest(http.MethodGet, c.endpoint("secure/status/jobs"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result []api.JobResponse
	if err := c.do(httpReq, true, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListAllJobs sends GET secure/status/jobs/all, optionally filtered by type.
func (c *JobClient) ListAllJobs(types []string) ([]api.JobResponse, error) {
	endpoint := c.endpoint("secure/status/jobs/all")
	if len(types) > 0 {
		endpoint += "?type=" + url.QueryEscape(strings.Join(types, ","))
	}
	httpReq, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result []api.JobResponse
	if err := c.do(httpReq, true, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetJob sends GET secure/status/jobs/{id}.
func (c *JobClient) GetJob(jobID string) (*api.JobResponse, error) {
	httpReq, err := http.NewRequest(http.MethodGet, c.endpoint("secure/status/jobs/"+url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result api.JobResponse
	if err := c.do(httpReq, true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportStatus sends POST public/status/jobs/{id} the way a provisioned
// instance does: owner and job token in the query, no API key. It returns
// whether the server applied the update.
func (c *JobClient) ReportStatus(jobID, user, jobToken, update string, success bool) (bool, error) {
	query := fmt.Sprintf("%s=%s&%s=%s&%s=%t",
		api.ParamUser, url.QueryEscape(user),
		api.ParamToken, url.QueryEscape(jobToken),
		url.QueryEscape(update), success)
	endpoint := c.endpoint("public/status/jobs/"+url.PathEscape(jobID)) + "?" + query

	httpReq, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	var applied bool
	if err := c.do(httpReq, false, &applied); err != nil {
		return false, err
	}
	return applied, nil
}
