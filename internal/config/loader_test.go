package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  host: 127.0.0.1
  port: 8000
  workers: 4
logging:
  level: info
  format: json
routes:
  - path: /svc/*
    method: GET
    upstream: http://localhost:9001
    timeout: 2
  - name: users
    path: /users
    method: "GET|POST"
    upstream: http://localhost:9002
    timeout: 5
`

const sampleTOML = `
[server]
host = "127.0.0.1"
port = 8000
workers = 4
shutdown_timeout = "10s"

[logging]
level = "debug"
format = "console"

[[routes]]
path = "/svc/*"
method = "*"
upstream = "http://localhost:9001"
timeout = 2

[health]
cpu_sample_interval = "50ms"
`

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Format
	}{
		{"gateway.yaml", FormatYAML},
		{"gateway.yml", FormatYAML},
		{"gateway.toml", FormatTOML},
		{"GATEWAY.TOML", FormatTOML},
		{"gateway", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatFromPath(tt.path))
		})
	}
}

func TestLoader_Load_YAML(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleYAML), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Server.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Routes, 2)

	// Declaration order is preserved.
	assert.Equal(t, "/svc/*", cfg.Routes[0].Path)
	assert.Equal(t, "route-0", cfg.Routes[0].Name)
	assert.Equal(t, 2*time.Second, cfg.Routes[0].TimeoutDuration())
	assert.True(t, cfg.Routes[0].IsWildcard())
	assert.Equal(t, "users", cfg.Routes[1].Name)
	assert.Equal(t, "GET|POST", cfg.Routes[1].Method)
	assert.False(t, cfg.Routes[1].IsWildcard())

	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoader_Load_TOML(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "gateway.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleTOML), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "console", cfg.Logging.Format)
	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "*", cfg.Routes[0].Method)
	assert.Equal(t, 50*time.Millisecond, cfg.Health.CPUSampleInterval.Duration())

	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoader_Load_TOMLUnknownField(t *testing.T) {
	t.Parallel()

	content := sampleTOML + "\n[bogus]\nkey = 1\n"
	_, err := NewLoader(FormatTOML).LoadFromReader(strings.NewReader(content))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestLoader_Load_YAMLUnknownField(t *testing.T) {
	t.Parallel()

	content := sampleYAML + "bogus: true\n"
	_, err := NewLoader(FormatYAML).LoadFromReader(strings.NewReader(content))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/gateway.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := NewLoader(FormatYAML).LoadFromReader(strings.NewReader("server: [unclosed"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoader_EmptyDocumentAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(FormatYAML).LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, DefaultShutdownTimeout, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, DefaultMaxIdleConns, cfg.Upstream.MaxIdleConns)
	assert.Equal(t, DefaultMetricsPath, cfg.Observability.Metrics.Path)

	// Required fields are not defaulted.
	assert.Error(t, ValidateConfig(cfg))
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("AVAROUTE_TEST_UPSTREAM", "http://backend:8080")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "upstream: ${AVAROUTE_TEST_UPSTREAM}", "upstream: http://backend:8080"},
		{"default ignored when set", "upstream: ${AVAROUTE_TEST_UPSTREAM:-http://x}", "upstream: http://backend:8080"},
		{"default used when unset", "port: ${AVAROUTE_TEST_UNSET:-8000}", "port: 8000"},
		{"unset without default", "host: ${AVAROUTE_TEST_UNSET}", "host: "},
		{"escaped dollar", "price: $$5", "price: $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteEnvVars(tt.input))
		})
	}
}

func TestLoader_EnvSubstitutionBeforeParsing(t *testing.T) {
	t.Setenv("AVAROUTE_TEST_PORT", "9100")

	content := strings.Replace(sampleYAML, "port: 8000", "port: ${AVAROUTE_TEST_PORT}", 1)
	cfg, err := NewLoader(FormatYAML).LoadFromReader(strings.NewReader(content))

	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}
