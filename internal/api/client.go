package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/printstash/printstash/internal/config"
	"github.com/printstash/printstash/internal/httpclient"
	"github.com/printstash/printstash/internal/logging"
	"github.com/printstash/printstash/internal/models"
	"github.com/printstash/printstash/internal/ratelimit"
)

// Client is the printstash server API client.
//
// JSON calls go through a retrying HTTP client; the batched file upload
// uses a separate non-retrying client because its multipart body is not
// replayable (see UploadFiles).
type Client struct {
	httpClient   *nethttp.Client
	uploadClient *nethttp.Client
	baseURL      string
	apiKey       string
	limiter      *ratelimit.Limiter
	log          *logging.Logger
}

// NewClient creates an API client from the given configuration.
func NewClient(cfg *config.Config, log *logging.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		httpClient:   httpclient.NewRetryingClient(cfg.RequestTimeout(), log),
		uploadClient: httpclient.NewUploadClient(),
		baseURL:      strings.TrimSuffix(cfg.ServerURL, "/"),
		apiKey:       cfg.APIKey,
		limiter:      ratelimit.NewAPILimiter(),
		log:          log,
	}, nil
}

// doRequest performs an HTTP request with authentication and rate limiting.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("method", method).Str("path", path).Msg("api call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// doJSON performs a request and decodes a 2xx JSON response into out.
// A nil out discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, method, path)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *nethttp.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Token "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

// ListProjects returns all projects in the library.
func (c *Client) ListProjects(ctx context.Context) (*models.ProjectListResponse, error) {
	var out models.ProjectListResponse
	if err := c.doJSON(ctx, nethttp.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject returns one project's metadata.
func (c *Client) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var out models.Project
	path := "/api/projects/" + url.PathEscape(projectID)
	if err := c.doJSON(ctx, nethttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject creates a new project and returns it.
func (c *Client) CreateProject(ctx context.Context, req models.ProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.doJSON(ctx, nethttp.MethodPost, "/api/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject updates a project's name or description.
func (c *Client) UpdateProject(ctx context.Context, projectID string, req models.ProjectRequest) (*models.Project, error) {
	var out models.Project
	path := "/api/projects/" + url.PathEscape(projectID)
	if err := c.doJSON(ctx, nethttp.MethodPatch, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project and its files.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	path := "/api/projects/" + url.PathEscape(projectID)
	return c.doJSON(ctx, nethttp.MethodDelete, path, nil, nil)
}

// ListFiles returns the files stored in a project. The upload workflow
// uses this only as a refresh trigger after a batch completes.
func (c *Client) ListFiles(ctx context.Context, projectID string) (*models.FileListResponse, error) {
	var out models.FileListResponse
	path := "/api/projects/" + url.PathEscape(projectID) + "/files"
	if err := c.doJSON(ctx, nethttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenameFile renames a stored file within a project.
func (c *Client) RenameFile(ctx context.Context, projectID, name, newName string) error {
	path := "/api/projects/" + url.PathEscape(projectID) + "/files/" + url.PathEscape(name)
	return c.doJSON(ctx, nethttp.MethodPatch, path, models.RenameRequest{NewName: newName}, nil)
}

// DeleteFile removes a stored file from a project.
func (c *Client) DeleteFile(ctx context.Context, projectID, name string) error {
	path := "/api/projects/" + url.PathEscape(projectID) + "/files/" + url.PathEscape(name)
	return c.doJSON(ctx, nethttp.MethodDelete, path, nil, nil)
}

// TriggerScan asks the server to rescan the library filesystem for
// projects. The scan algorithm is server-side; the client only reports
// the summary.
func (c *Client) TriggerScan(ctx context.Context) (*models.ScanResult, error) {
	var out models.ScanResult
	if err := c.doJSON(ctx, nethttp.MethodPost, "/api/scan", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReadme returns the server-rendered README HTML for a project.
// Rendering is opaque to the client.
func (c *Client) GetReadme(ctx context.Context, projectID string) (string, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/readme"
	resp, err := c.doRequest(ctx, nethttp.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp, nethttp.MethodGet, path)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read readme: %w", err)
	}
	return string(body), nil
}

// CheckConflicts reports which of the candidate filenames collide with
// files already stored in the project. Returned conflicts are a subset
// of the input; a failure here must block submission, never be treated
// as "no conflicts".
func (c *Client) CheckConflicts(ctx context.Context, projectID string, filenames []string) ([]models.FileConflict, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/files/check-conflicts"
	var out models.ConflictCheckResponse
	req := models.ConflictCheckRequest{Filenames: filenames}
	if err := c.doJSON(ctx, nethttp.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return out.Conflicts, nil
}
