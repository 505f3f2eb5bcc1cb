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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEXGATE_TEST_URL", "https://api.example.com")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"braced", "${LEXGATE_TEST_URL}", "https://api.example.com"},
		{"simple", "$LEXGATE_TEST_URL", "https://api.example.com"},
		{"with default, unset", "${LEXGATE_TEST_UNSET:-fallback}", "fallback"},
		{"with default, set", "${LEXGATE_TEST_URL:-fallback}", "https://api.example.com"},
		{"no reference", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestExpandEnvVarsInData_Reparses(t *testing.T) {
	t.Setenv("LEXGATE_TEST_PORT", "9090")

	data := map[string]interface{}{
		"port":    "${LEXGATE_TEST_PORT}",
		"enabled": "${LEXGATE_TEST_ON:-true}",
		"nested":  []interface{}{"${LEXGATE_TEST_PORT}"},
	}

	out := ExpandEnvVarsInData(data).(map[string]interface{})
	assert.Equal(t, 9090, out["port"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, 9090, out["nested"].([]interface{})[0])
}

func TestLoad_FileWithExpansion(t *testing.T) {
	t.Setenv("RADA_API_KEY", "secret-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9191
providers:
  rada:
    base_url: https://rada.example.com
    api_key: ${RADA_API_KEY}
ingest:
  max_docs: 250
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "secret-key", cfg.Provider(ProviderRada).APIKey)
	assert.True(t, cfg.Provider(ProviderRada).Configured())
	assert.Equal(t, 250, cfg.Ingest.MaxDocs)

	// Defaults still applied around the file values.
	assert.Equal(t, 60*time.Second, cfg.Provider(ProviderRada).CallTimeout)
	assert.Equal(t, 5*time.Second, cfg.Provider(ProviderRada).CatalogTimeout)
	assert.Equal(t, 100000, cfg.Ingest.CountHardCeiling)
	assert.Equal(t, 100, cfg.Ingest.CountDatePagesCeiling)
}

func TestLoad_ProvidersFromEnv(t *testing.T) {
	t.Setenv("OPENREYESTR_BASE_URL", "https://reyestr.example.com")
	t.Setenv("OPENREYESTR_API_KEY", "reyestr-key")

	cfg, err := Load("")
	require.NoError(t, err)

	p := cfg.Provider(ProviderOpenReyestr)
	require.NotNil(t, p)
	assert.True(t, p.Configured())
	assert.Equal(t, "https://reyestr.example.com", p.BaseURL)
}

func TestLoad_UnconfiguredProviderDoesNotFail(t *testing.T) {
	t.Setenv("RADA_BASE_URL", "")
	t.Setenv("RADA_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	// Providers exist but are not configured; the process still starts.
	p := cfg.Provider(ProviderRada)
	require.NotNil(t, p)
	assert.False(t, p.Configured())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Database: "lex", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=lex sslmode=disable", pg.DSN())
	assert.Equal(t, "postgres", pg.DriverName())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", Database: "lex"}
	assert.Equal(t, "u:p@tcp(db:3306)/lex?parseTime=true", my.DSN())

	sq := DatabaseConfig{Driver: "sqlite", Path: "/tmp/x.db"}
	assert.Equal(t, "/tmp/x.db", sq.DSN())
	assert.Equal(t, "sqlite3", sq.DriverName())
}

func TestDatabaseConfig_Validate(t *testing.T) {
	bad := DatabaseConfig{Driver: "oracle"}
	assert.Error(t, bad.Validate())

	missingHost := DatabaseConfig{Driver: "postgres", Database: "lex"}
	assert.Error(t, missingHost.Validate())

	ok := DatabaseConfig{Driver: "sqlite", Path: "x.db"}
	assert.NoError(t, ok.Validate())
}
