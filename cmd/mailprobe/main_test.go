package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mailprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
sender_address: verify@myapp.example
helo_domain: probe.myapp.example
port: "2525"
nameservers: [127.0.0.1, "10.0.0.1:5353"]
command_timeout: 15s
workers: 8
mx_cache_ttl: 5m
mailgun:
  api_key: key-123
  url: http://localhost:8080
blacklist:
  domains: [spam.example]
  disposable: true
  redis_key: lists:blocked
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "verify@myapp.example", cfg.SenderAddress)
	assert.Equal(t, "probe.myapp.example", cfg.HeloDomain)
	assert.Equal(t, "2525", cfg.Port)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.1:5353"}, cfg.Nameservers)
	assert.Equal(t, 15*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Minute, cfg.MXCacheTTL)
	assert.Equal(t, "key-123", cfg.Mailgun.APIKey)
	assert.Equal(t, "http://localhost:8080", cfg.Mailgun.URL)
	assert.Equal(t, []string{"spam.example"}, cfg.Blacklist.Domains)
	assert.True(t, cfg.Blacklist.Disposable)
	assert.Equal(t, "lists:blocked", cfg.Blacklist.RedisKey)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = loadConfig(writeConfig(t, "workers: [not, a, number]"))
	assert.ErrorContains(t, err, "parse config")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.SenderAddress)
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "usage: mailprobe")
	assert.Empty(t, stdout.String())

	code = run(context.Background(), []string{"-no-such-flag", "a@example.com"}, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
}

func TestRun_InvalidSender(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-from", "nobody", "user@example.com"}, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, stdout.String())
}

func TestRun_BadRedisURL(t *testing.T) {
	path := writeConfig(t, "blacklist:\n  redis_url: \"not a url\"\n")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "user@example.com"}, &stdout, &stderr)
	assert.Equal(t, exitUsage, code)
}

// Addresses stopped by the validator or the blacklist never reach the
// network, so these run offline.
func TestRun_PrintsResults(t *testing.T) {
	path := writeConfig(t, `
sender_address: verify@myapp.example
blacklist:
  domains: [spam.example]
  disposable: true
`)
	var stdout, stderr bytes.Buffer
	args := []string{"-config", path, "-workers", "2", "bad address", "x@spam.example", "y@mailinator.com"}
	code := run(context.Background(), args, &stdout, &stderr)
	assert.Equal(t, exitFailed, code)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)

	type line struct {
		Email   string `json:"email"`
		Verdict string `json:"verdict"`
		Error   string `json:"error"`
	}
	var got []line
	for _, l := range lines {
		var res line
		require.NoError(t, json.Unmarshal([]byte(l), &res))
		got = append(got, res)
	}

	assert.Equal(t, "bad address", got[0].Email)
	assert.Equal(t, "unknown", got[0].Verdict)
	assert.Equal(t, "mailprobe: invalid address: bad address", got[0].Error)
	assert.Equal(t, "mailprobe: domain is blacklisted: spam.example", got[1].Error)
	assert.Equal(t, "mailprobe: domain is blacklisted: mailinator.com", got[2].Error)
}
