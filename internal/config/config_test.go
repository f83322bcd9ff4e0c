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

const testSecret = "0123456789abcdef0123456789abcdef"

func envMap(values map[string]string) envReader {
	return func(key string) string { return values[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadClient_Defaults(t *testing.T) {
	cfg, err := loadClient("", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultClientConfig(), cfg)
}

func TestLoadClient_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadClient(filepath.Join(t.TempDir(), "absent.yaml"), envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Document)
}

func TestLoadClient_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
server: https://dash.example.com
document: team
request_timeout: 3s
max_retries: 5
reconnect:
  attempts: 2
  delay: 250ms
log:
  level: debug
  format: json
`)

	cfg, err := loadClient(path, envMap(map[string]string{
		"GOPHDASH_DOCUMENT":             "override",
		"GOPHDASH_MAX_RETRIES":          "not-a-number",
		"GOPHDASH_RECONNECT_MULTIPLIER": "1.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://dash.example.com", cfg.Server)
	assert.Equal(t, "override", cfg.Document, "env wins over file")
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.MaxRetries, "unparsable env value is ignored")
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, ReconnectConfig{
		Attempts:   2,
		Delay:      250 * time.Millisecond,
		Multiplier: 1.5,
		MaxDelay:   30 * time.Second,
	}, cfg.Reconnect)
}

func TestReconnectConfig_DisabledSkipsChecks(t *testing.T) {
	assert.NoError(t, ReconnectConfig{}.Validate())
}

func TestLoadClient_UnknownKey(t *testing.T) {
	path := writeConfig(t, "servr: http://localhost\n")

	_, err := loadClient(path, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "servr")
}

func TestLoadClient_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := loadClient(path, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultClientConfig(), cfg)
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		modify func(*ClientConfig)
		name   string
		errMsg string
	}{
		{name: "ws scheme", modify: func(c *ClientConfig) { c.Server = "ws://localhost" }, errMsg: "http(s) URL"},
		{name: "empty document", modify: func(c *ClientConfig) { c.Document = "" }, errMsg: "document"},
		{name: "zero timeout", modify: func(c *ClientConfig) { c.RequestTimeout = 0 }, errMsg: "request_timeout"},
		{name: "negative retries", modify: func(c *ClientConfig) { c.MaxRetries = -1 }, errMsg: "max_retries"},
		{name: "bad level", modify: func(c *ClientConfig) { c.Log.Level = "trace" }, errMsg: "log.level"},
		{name: "negative attempts", modify: func(c *ClientConfig) { c.Reconnect.Attempts = -1 }, errMsg: "reconnect.attempts"},
		{name: "zero delay", modify: func(c *ClientConfig) { c.Reconnect.Delay = 0 }, errMsg: "reconnect.delay"},
		{name: "shrinking backoff", modify: func(c *ClientConfig) { c.Reconnect.Multiplier = 0.5 }, errMsg: "reconnect.multiplier"},
		{
			name:   "max below delay",
			modify: func(c *ClientConfig) { c.Reconnect.MaxDelay = time.Millisecond },
			errMsg: "reconnect.max_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadServer(t *testing.T) {
	path := writeConfig(t, `
addr: 127.0.0.1:9000
jwt_secret: `+testSecret+`
mutation_rate_limit:
  rps: 5
  burst: 5
`)

	cfg, err := loadServer(path, envMap(map[string]string{
		"GOPHDASH_TOKEN_TTL":      "1h",
		"GOPHDASH_RATE_LIMIT_RPS": "2.5",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.InDelta(t, 2.5, cfg.HTTPRateLimit.RPS, 1e-9)
	assert.Equal(t, RateLimitConfig{RPS: 5, Burst: 5}, cfg.MutationLimit)
}

func TestLoadServer_RequiresSecret(t *testing.T) {
	_, err := loadServer("", envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	cfg, err := loadServer("", envMap(map[string]string{"GOPHDASH_JWT_SECRET": strings.Repeat("s", MinSecretLen)}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestServerConfig_ValidateRateLimit(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.JWTSecret = testSecret
	cfg.MutationLimit.Burst = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutation_rate_limit")
}
