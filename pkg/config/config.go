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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, built once at startup and passed
// by reference. Call sites never read the environment directly.
type Config struct {
	Log       LogConfig                  `yaml:"log,omitempty"`
	Server    ServerConfig               `yaml:"server,omitempty"`
	Providers map[string]*ProviderConfig `yaml:"providers,omitempty"`
	CourtAPI  CourtAPIConfig             `yaml:"court_api,omitempty"`
	Ingest    IngestConfig               `yaml:"ingest,omitempty"`
	Database  DatabaseConfig             `yaml:"database,omitempty"`
	Tracing   TracingConfig              `yaml:"tracing,omitempty"`
	Metrics   MetricsConfig              `yaml:"metrics,omitempty"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// ServerConfig configures the HTTP tool-serving surface.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// APIKey, when set, is required as a bearer token on tool calls.
	APIKey string `yaml:"api_key,omitempty"`
}

// ProviderConfig describes one remote tool provider. A provider with a
// missing base URL or API key is not configured; its routes are disabled
// without crashing the process.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`

	// CallTimeout bounds a single tool call. Default 60s.
	CallTimeout time.Duration `yaml:"call_timeout,omitempty"`

	// CatalogTimeout bounds capability discovery. Kept short so catalog
	// fetches at startup or first introspection fail fast. Default 5s.
	CatalogTimeout time.Duration `yaml:"catalog_timeout,omitempty"`
}

// Configured reports whether both the base URL and the API key are set.
func (p *ProviderConfig) Configured() bool {
	return p != nil && p.BaseURL != "" && p.APIKey != ""
}

func (p *ProviderConfig) SetDefaults() {
	if p.CallTimeout <= 0 {
		p.CallTimeout = 60 * time.Second
	}
	if p.CatalogTimeout <= 0 {
		p.CatalogTimeout = 5 * time.Second
	}
}

// CourtAPIConfig configures the external court-search service.
type CourtAPIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	APIKey  string        `yaml:"api_key,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// PageSize is the per-request result cap accepted by the search API.
	PageSize int `yaml:"page_size,omitempty"`
}

func (c *CourtAPIConfig) SetDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.PageSize <= 0 || c.PageSize > 1000 {
		c.PageSize = 1000
	}
}

// IngestConfig holds the ingestion pipeline defaults. The lookback and
// page ceilings are pragmatic limits tied to the external API's
// performance characteristics; they stay configurable but the defaults
// are load-bearing for downstream cost estimates.
type IngestConfig struct {
	// DefaultLookback bounds historical crawls when the caller supplies
	// no dateFrom. Default: 3 years.
	DefaultLookback time.Duration `yaml:"default_lookback,omitempty"`

	// MaxDocs and MaxPages are the per-run defaults.
	MaxDocs  int `yaml:"max_docs,omitempty"`
	MaxPages int `yaml:"max_pages,omitempty"`

	// CostPerPage is the external API's pay-per-call price used in run
	// cost estimates.
	CostPerPage float64 `yaml:"cost_per_page,omitempty"`

	// CountHardCeiling caps count-by-party scans regardless of
	// caller-supplied limits.
	CountHardCeiling int `yaml:"count_hard_ceiling,omitempty"`

	// CountDatePagesCeiling is the tighter page ceiling applied when a
	// date filter forces local-only filtering.
	CountDatePagesCeiling int `yaml:"count_date_pages_ceiling,omitempty"`
}

func (c *IngestConfig) SetDefaults() {
	if c.DefaultLookback <= 0 {
		c.DefaultLookback = 3 * 365 * 24 * time.Hour
	}
	if c.MaxDocs <= 0 {
		c.MaxDocs = 500
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.CostPerPage <= 0 {
		c.CostPerPage = 5.0
	}
	if c.CountHardCeiling <= 0 {
		c.CountHardCeiling = 100000
	}
	if c.CountDatePagesCeiling <= 0 {
		c.CountDatePagesCeiling = 100
	}
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty"`
	Endpoint     string  `yaml:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty"`
	ServiceName  string  `yaml:"service_name,omitempty"`
}

func (c *TracingConfig) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.SamplingRate <= 0 || c.SamplingRate > 1 {
		c.SamplingRate = 1.0
	}
	if c.ServiceName == "" {
		c.ServiceName = "lexgate"
	}
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "simple"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	for _, p := range c.Providers {
		if p != nil {
			p.SetDefaults()
		}
	}
	c.CourtAPI.SetDefaults()
	c.Ingest.SetDefaults()
	c.Database.SetDefaults()
	c.Tracing.SetDefaults()
	c.Metrics.SetDefaults()
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// Provider returns the named provider config, or nil when absent.
func (c *Config) Provider(name string) *ProviderConfig {
	if c.Providers == nil {
		return nil
	}
	return c.Providers[name]
}

// Load reads a YAML config file, expands ${VAR} references against the
// environment, applies defaults and validates. Path "" yields a default
// config with providers resolved from the environment.
func Load(path string) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		var raw map[string]interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}

		expanded := ExpandEnvVarsInData(raw)
		out, err := yaml.Marshal(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to re-encode config: %w", err)
		}
		if err := yaml.Unmarshal(out, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	cfg.resolveProvidersFromEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveProvidersFromEnv fills provider and court API credentials from
// well-known environment variables when the config file left them empty.
func (c *Config) resolveProvidersFromEnv() {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}

	for _, name := range []string{ProviderRada, ProviderOpenReyestr} {
		p := c.Providers[name]
		if p == nil {
			p = &ProviderConfig{}
			c.Providers[name] = p
		}
		if p.BaseURL == "" {
			p.BaseURL = os.Getenv(providerEnvVar(name, "BASE_URL"))
		}
		if p.APIKey == "" {
			p.APIKey = os.Getenv(providerEnvVar(name, "API_KEY"))
		}
	}

	if c.CourtAPI.BaseURL == "" {
		c.CourtAPI.BaseURL = os.Getenv("COURT_API_BASE_URL")
	}
	if c.CourtAPI.APIKey == "" {
		c.CourtAPI.APIKey = os.Getenv("COURT_API_KEY")
	}
}

// Well-known remote providers.
const (
	// ProviderRada is the parliamentary-data service.
	ProviderRada = "rada"

	// ProviderOpenReyestr is the business-registry service.
	ProviderOpenReyestr = "openreyestr"
)
