// Package badge talks to the external badge-render service, which turns
// (name, barcode) pairs into printable badge documents. Rendering itself is
// out of scope here; this is only the client boundary.
package badge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RenderResult describes the rendered badge artifact.
type RenderResult struct {
	DocumentURL string `json:"document_url"`
	Bytes       int    `json:"bytes"`
}

// Client calls the badge-render microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, Render fabricates a result so dev
// environments work without the service.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Render requests a badge document for a student.
func (c *Client) Render(ctx context.Context, name, barcode string) (*RenderResult, error) {
	if c.Skip {
		return &RenderResult{
			DocumentURL: "about:blank#badge-" + barcode,
			Bytes:       0,
		}, nil
	}
	if barcode == "" {
		return nil, fmt.Errorf("barcode required")
	}

	body, _ := json.Marshal(map[string]string{"name": name, "barcode": barcode})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("badge service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("badge service returned %d", resp.StatusCode)
	}
	var result RenderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode badge response: %w", err)
	}
	return &result, nil
}

// Health probes the badge service.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("badge service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
