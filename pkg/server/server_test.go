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

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/tools"
)

type echoHandler struct{}

func (echoHandler) Capabilities() []tools.CapabilityDescriptor {
	return []tools.CapabilityDescriptor{
		{Name: "echo", Description: "Echo the query argument back"},
	}
}

func (echoHandler) Execute(ctx context.Context, operation string, args map[string]any) (*tools.Result, error) {
	query, _ := args["query"].(string)
	return tools.TextResult("echo: " + query), nil
}

func newTestServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	registry := tools.NewRegistry(tools.NewRemoteClient(nil))
	registry.MustRegisterHandler(echoHandler{})

	srv := New(registry, config.ServerConfig{APIKey: apiKey}, config.MetricsConfig{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Catalog(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog struct {
		Tools []tools.CapabilityDescriptor `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))
	require.Len(t, catalog.Tools, 1)
	assert.Equal(t, "echo", catalog.Tools[0].Name)
}

func TestServer_Call(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/tools/echo", "application/json",
		strings.NewReader(`{"arguments": {"query": "привіт"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Result tools.Result `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "echo: привіт", envelope.Result.Text())
}

func TestServer_CallUnknownTool(t *testing.T) {
	ts := newTestServer(t, "")

	resp, err := http.Post(ts.URL+"/api/tools/no_such_tool", "application/json",
		strings.NewReader(`{"arguments": {}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BearerAuth(t *testing.T) {
	ts := newTestServer(t, "secret-key")

	resp, err := http.Get(ts.URL + "/api/tools")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret-key")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Healthz(t *testing.T) {
	ts := newTestServer(t, "secret-key")

	// Health stays open even when tool routes require auth.
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestServer_RemoteClientRoundTrip proves a lexgate process is a valid
// remote provider for another: the remote client consumes the server's
// catalog and call surface directly.
func TestServer_RemoteClientRoundTrip(t *testing.T) {
	ts := newTestServer(t, "secret-key")

	remote := tools.NewRemoteClient(map[string]*config.ProviderConfig{
		"peer": {
			BaseURL:        ts.URL,
			APIKey:         "secret-key",
			CallTimeout:    5 * time.Second,
			CatalogTimeout: 2 * time.Second,
		},
	})

	descriptors, err := remote.Catalog(context.Background(), "peer")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "peer_echo", descriptors[0].Name)

	result, err := remote.Call(context.Background(), "peer", "echo", map[string]any{"query": "ланцюг"})
	require.NoError(t, err)
	assert.Equal(t, "echo: ланцюг", result.Text())
}
