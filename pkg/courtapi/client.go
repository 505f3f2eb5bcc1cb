// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package courtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/httpclient"
)

// APIError is a non-2xx response from the court-search service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("court API error: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client talks to the external court-search service. Page fetches are
// never retried: a failed fetch is fatal to the calling run.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *httpclient.Client
}

func NewClient(cfg config.CourtAPIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("court API base URL is not configured")
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		),
	}, nil
}

// PageSize returns the per-request result cap the service accepts.
func (c *Client) PageSize() int {
	if c.pageSize <= 0 {
		return 1000
	}
	return c.pageSize
}

// Search fetches one page of full-text search results.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchPage, error) {
	if req.Limit <= 0 || req.Limit > c.PageSize() {
		req.Limit = c.PageSize()
	}

	var page SearchPage
	if err := c.post(ctx, "/api/search", req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchByTitle fetches title-indexed matches for a query. The title
// index over-matches on partial text; callers post-filter by the
// document's own case-number field.
func (c *Client) SearchByTitle(ctx context.Context, query string, limit int) ([]CaseDocument, error) {
	req := SearchRequest{Query: query, Limit: limit, TitleOnly: true}
	if req.Limit <= 0 || req.Limit > c.PageSize() {
		req.Limit = c.PageSize()
	}

	var page SearchPage
	if err := c.post(ctx, "/api/search/title", req, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// DocumentText fetches the full text of one document.
func (c *Client) DocumentText(ctx context.Context, docID int64) (string, error) {
	url := fmt.Sprintf("%s/api/documents/%d/text", c.baseURL, docID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("document text request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Text != "" {
		return payload.Text, nil
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, path string, req interface{}, out interface{}) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// ParseDate parses the date formats the search service emits.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}
