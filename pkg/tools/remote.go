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

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/httpclient"
)

// ErrProviderNotConfigured signals a missing base URL or API key for a
// remote provider. Operators need to tell "forgot to configure" apart
// from "service is down", so this never masquerades as a transport
// failure.
var ErrProviderNotConfigured = errors.New("provider not configured")

// RemoteCallError wraps a transport or service failure with provider
// and operation context.
type RemoteCallError struct {
	Provider   string
	Operation  string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote tool call failed [%s:%s]: HTTP %d: %v",
			e.Provider, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote tool call failed [%s:%s]: %v", e.Provider, e.Operation, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// RemoteClient executes operations against remote tool-serving
// endpoints and fetches their capability catalogs. Calls are never
// retried automatically.
type RemoteClient struct {
	providers  map[string]*config.ProviderConfig
	httpClient *httpclient.Client
}

func NewRemoteClient(providers map[string]*config.ProviderConfig) *RemoteClient {
	return &RemoteClient{
		providers: providers,
		// Per-call deadlines come from each provider's configured
		// timeouts via context, so the underlying client has none.
		httpClient: httpclient.New(httpclient.WithHTTPClient(&http.Client{})),
	}
}

// ProviderNames returns the known provider names in sorted order,
// configured or not.
func (c *RemoteClient) ProviderNames() []string {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configured reports whether the named provider has both a base URL
// and an API key.
func (c *RemoteClient) Configured(provider string) bool {
	return c.providers[provider].Configured()
}

// Call executes one operation on a remote provider:
// POST {base}/api/tools/{operation} with {"arguments": args}.
func (c *RemoteClient) Call(ctx context.Context, provider, operation string, args map[string]any) (*Result, error) {
	cfg := c.providers[provider]
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: %s (set %s_BASE_URL and %s_API_KEY)",
			ErrProviderNotConfigured, provider,
			strings.ToUpper(provider), strings.ToUpper(provider))
	}

	payload, err := json.Marshal(map[string]any{"arguments": args})
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: operation, Err: err}
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/tools/%s", strings.TrimSuffix(cfg.BaseURL, "/"), operation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: operation, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteCallError{
			Provider:   provider,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	return decodeRemoteResult(body), nil
}

// decodeRemoteResult unwraps a {"result": ...} envelope when present,
// otherwise treats the raw body as the result.
func decodeRemoteResult(body []byte) *Result {
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	payload := body
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Result) > 0 {
		payload = envelope.Result
	}

	// A payload already shaped like a tool result passes through.
	var result Result
	if err := json.Unmarshal(payload, &result); err == nil && len(result.Content) > 0 {
		return &result
	}

	var text string
	if err := json.Unmarshal(payload, &text); err == nil {
		return TextResult(text)
	}
	return TextResult(string(payload))
}

// Catalog fetches the provider's capability list:
// GET {base}/api/tools. Runs under the short catalog timeout so a slow
// or absent service cannot block introspection. Capability names come
// back prefixed with the provider name to keep the aggregate namespace
// collision-free.
func (c *RemoteClient) Catalog(ctx context.Context, provider string) ([]CapabilityDescriptor, error) {
	cfg := c.providers[provider]
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	timeout := cfg.CatalogTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimSuffix(cfg.BaseURL, "/") + "/api/tools"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: "catalog", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: "catalog", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: "catalog", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteCallError{
			Provider:   provider,
			Operation:  "catalog",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var catalog struct {
		Tools []CapabilityDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, &RemoteCallError{Provider: provider, Operation: "catalog", Err: err}
	}

	descriptors := make([]CapabilityDescriptor, 0, len(catalog.Tools))
	for _, tool := range catalog.Tools {
		if tool.Name == "" {
			continue
		}
		tool.Name = PrefixedName(provider, tool.Name)
		descriptors = append(descriptors, tool)
	}
	return descriptors, nil
}

// PrefixedName namespaces a provider-local operation name into the
// aggregate catalog, e.g. ("openreyestr", "search_entities") ->
// "openreyestr_search_entities".
func PrefixedName(provider, operation string) string {
	return provider + "_" + operation
}

// StripPrefix recovers the provider-local operation name from an
// aggregate name. Names without the prefix pass through unchanged.
func StripPrefix(provider, operation string) string {
	return strings.TrimPrefix(operation, provider+"_")
}
