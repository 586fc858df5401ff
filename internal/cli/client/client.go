// Package client talks to the ProductCurator admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ProductCurator/internal/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// APIClient wraps net/http with the admin secret and JSON decoding.
type APIClient struct {
	server string
	secret string
	http   *http.Client
}

// New normalises server and returns a client. A missing scheme defaults to http.
func New(server, secret string) (*APIClient, error) {
	normalized, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	return &APIClient{server: normalized, secret: secret, http: &http.Client{Timeout: 10 * time.Minute}}, nil
}

func normalizeServerURL(server string) (string, error) {
	server = strings.TrimSpace(server)
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%q has no host", server)
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// Status fetches the system snapshot.
func (c *APIClient) Status(ctx context.Context) (domain.SystemStatus, error) {
	var out domain.SystemStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &out)
	return out, err
}

// TriggerJob runs a job synchronously on the server. A failed run still returns its state.
func (c *APIClient) TriggerJob(ctx context.Context, name string) (domain.JobState, error) {
	var out struct {
		domain.JobState
		Job *domain.JobState `json:"job"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/jobs/"+url.PathEscape(name)+"/trigger", nil, &out)
	if out.Job != nil {
		return *out.Job, err
	}
	return out.JobState, err
}

// SetJobEnabled toggles a job's schedule.
func (c *APIClient) SetJobEnabled(ctx context.Context, name string, enabled bool) (domain.JobState, error) {
	var out domain.JobState
	err := c.do(ctx, http.MethodPatch, "/api/v1/jobs/"+url.PathEscape(name), map[string]bool{"enabled": enabled}, &out)
	return out, err
}

// Thresholds lists routing thresholds in evaluation order.
func (c *APIClient) Thresholds(ctx context.Context) ([]domain.QualityThreshold, error) {
	var out []domain.QualityThreshold
	err := c.do(ctx, http.MethodGet, "/api/v1/thresholds", nil, &out)
	return out, err
}

// UpdateThreshold replaces one threshold.
func (c *APIClient) UpdateThreshold(ctx context.Context, th domain.QualityThreshold) (domain.QualityThreshold, error) {
	var out domain.QualityThreshold
	err := c.do(ctx, http.MethodPut, "/api/v1/thresholds/"+url.PathEscape(th.ID), th, &out)
	return out, err
}

// ReviewQueue lists pending items by priority.
func (c *APIClient) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewQueueItem, error) {
	var out []domain.ReviewQueueItem
	err := c.do(ctx, http.MethodGet, "/api/v1/review-queue"+limitQuery(url.Values{}, limit), nil, &out)
	return out, err
}

// Approve resolves a queue item as a manual override.
func (c *APIClient) Approve(ctx context.Context, itemID, reviewer, notes string) (domain.CuratedProduct, error) {
	var out domain.CuratedProduct
	body := map[string]string{"reviewerId": reviewer, "notes": notes}
	err := c.do(ctx, http.MethodPost, "/api/v1/review-queue/"+url.PathEscape(itemID)+"/approve", body, &out)
	return out, err
}

// Reject resolves a queue item as rejected.
func (c *APIClient) Reject(ctx context.Context, itemID, reviewer, reason string) (domain.CuratedProduct, error) {
	var out domain.CuratedProduct
	body := map[string]string{"reviewerId": reviewer, "reason": reason}
	err := c.do(ctx, http.MethodPost, "/api/v1/review-queue/"+url.PathEscape(itemID)+"/reject", body, &out)
	return out, err
}

// LatestReport fetches the newest curation report.
func (c *APIClient) LatestReport(ctx context.Context) (domain.CurationReport, error) {
	var out domain.CurationReport
	err := c.do(ctx, http.MethodGet, "/api/v1/reports/latest", nil, &out)
	return out, err
}

// Products lists curated products with the given status.
func (c *APIClient) Products(ctx context.Context, status string, limit int) ([]domain.CuratedProduct, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out []domain.CuratedProduct
	err := c.do(ctx, http.MethodGet, "/api/v1/products"+limitQuery(q, limit), nil, &out)
	return out, err
}

// Rejections lists the most recent rejections.
func (c *APIClient) Rejections(ctx context.Context, limit int) ([]domain.Rejection, error) {
	var out []domain.Rejection
	err := c.do(ctx, http.MethodGet, "/api/v1/rejections"+limitQuery(url.Values{}, limit), nil, &out)
	return out, err
}

func limitQuery(q url.Values, limit int) string {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.server+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		req.Header.Set("X-Admin-Secret", c.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiErr error
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		apiErr = &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && apiErr == nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return apiErr
}
