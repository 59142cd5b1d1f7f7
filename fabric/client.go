// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Endpoint is the base URL of the fabric API (e.g.,
	// "https://fabric.example.com").
	Endpoint string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is the HTTP client for the provisioning fabric API. It
// implements Provisioner.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a fabric API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("fabric: Endpoint is required")
	}
	if _, err := url.Parse(config.Endpoint); err != nil {
		return nil, fmt.Errorf("fabric: invalid Endpoint %q: %w", config.Endpoint, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.Endpoint, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// apiError is the fabric API's JSON error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// submitResponse is the body of a successful job submission.
type submitResponse struct {
	JobID  JobID  `json:"job_id"`
	Handle Handle `json:"handle"`
}

// jobStatusResponse is the body of a job status query.
type jobStatusResponse struct {
	Status JobStatus `json:"status"`
}

// clusterResponse is the body of a cluster lookup.
type clusterResponse struct {
	State  string `json:"state"` // "up", "stopped", or "absent"
	Handle Handle `json:"handle"`
}

// Submit implements Provisioner. With RetryUntilUp set, the fabric
// holds the request open until a cluster is reachable, so this call
// can block for the whole provisioning time.
func (c *Client) Submit(ctx context.Context, spec BootstrapSpec, options SubmitOptions) (JobID, Handle, error) {
	body := struct {
		Spec    BootstrapSpec `json:"spec"`
		Options SubmitOptions `json:"options"`
	}{Spec: spec, Options: options}

	var response submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/jobs", body, &response); err != nil {
		return 0, Handle{}, fmt.Errorf("submitting bootstrap job for cluster %q: %w", spec.ClusterName, err)
	}

	c.logger.Info("bootstrap job submitted",
		"cluster", spec.ClusterName,
		"service", spec.ServiceName,
		"job_id", response.JobID)
	return response.JobID, response.Handle, nil
}

// JobStatus implements Provisioner.
func (c *Client) JobStatus(ctx context.Context, handle Handle, id JobID) (JobStatus, error) {
	path := fmt.Sprintf("/api/v1/clusters/%s/jobs/%d/status", url.PathEscape(handle.ClusterName), id)
	var response jobStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return "", fmt.Errorf("querying job %d status: %w", id, err)
	}
	return response.Status, nil
}

// CancelJob implements Provisioner.
func (c *Client) CancelJob(ctx context.Context, handle Handle, id JobID) error {
	path := fmt.Sprintf("/api/v1/clusters/%s/jobs/%d/cancel", url.PathEscape(handle.ClusterName), id)
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("cancelling job %d: %w", id, err)
	}
	c.logger.Info("job cancelled", "cluster", handle.ClusterName, "job_id", id)
	return nil
}

// LookupController implements Provisioner.
func (c *Client) LookupController(ctx context.Context, clusterName string) (Handle, error) {
	path := "/api/v1/clusters/" + url.PathEscape(clusterName)
	var response clusterResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return Handle{}, fmt.Errorf("looking up controller cluster %q: %w", clusterName, err)
	}

	switch response.State {
	case "up":
		return response.Handle, nil
	case "stopped":
		return Handle{}, ErrControllerStopped
	default:
		return Handle{}, ErrControllerNotFound
	}
}

// CheckNetwork implements Provisioner.
func (c *Client) CheckNetwork(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/health", nil, nil); err != nil {
		return fmt.Errorf("fabric API unreachable: %w", err)
	}
	return nil
}

// doJSON performs one JSON round trip against the fabric API. A nil
// out discards the response body; a nil in sends no body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var bodyReader io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		var fabricErr apiError
		data, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		if json.Unmarshal(data, &fabricErr) == nil && fabricErr.Message != "" {
			return fmt.Errorf("fabric API %s (%d): %s", fabricErr.Code, response.StatusCode, fabricErr.Message)
		}
		return fmt.Errorf("fabric API returned %d for %s %s", response.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
