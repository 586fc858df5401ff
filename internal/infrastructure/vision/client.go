// Package vision asks an external image service which supplier photos are fit for the storefront.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ProductCurator/internal/domain"
	"ProductCurator/internal/ports"
)

// Client talks to the image assessment service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.ImageAssessor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type assessRequest struct {
	ProductID string   `json:"productId"`
	Title     string   `json:"title"`
	Images    []string `json:"images"`
}

type assessment struct {
	URL    string  `json:"url"`
	Usable bool    `json:"usable"`
	Score  float64 `json:"score"`
}

type assessResponse struct {
	Images []assessment `json:"images"`
}

// UsableImages returns the candidate's images the service marked usable,
// in the supplier's original order.
func (c *Client) UsableImages(ctx context.Context, candidate domain.Candidate) ([]string, error) {
	if len(candidate.Images) == 0 {
		return nil, nil
	}

	payload := assessRequest{ProductID: candidate.Key(), Title: candidate.Title, Images: candidate.Images}
	var resp assessResponse
	if err := c.post(ctx, "/images/assess", payload, &resp); err != nil {
		return nil, err
	}

	usable := make(map[string]bool, len(resp.Images))
	for _, a := range resp.Images {
		if a.Usable {
			usable[a.URL] = true
		}
	}
	out := make([]string, 0, len(usable))
	for _, img := range candidate.Images {
		if usable[img] {
			out = append(out, img)
		}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
