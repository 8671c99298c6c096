package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points the loader at a file that does not exist.
func noEnvFile(t *testing.T) string {
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Zero(t, cfg.Auth.TokenTTL)
	assert.Equal(t, int64(10<<20), cfg.Media.MaxUploadBytes)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvVars(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TOKEN_TTL", "24h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, filepath.Join(dir, "recipebook.db"), cfg.Data.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "media"), cfg.Data.MediaPath())
	assert.Equal(t, filepath.Join(dir, "search"), cfg.Data.SearchPath())
}

func TestLoad_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load([]string{noEnvFile(t), "--port=7070", "--log-level=warn", "--token-ttl=1h"})
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := "# comment\nRB_TEST_FROM_FILE=\"quoted\"\nSERVER_PORT=6060\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("SERVER_PORT", "5050")
	t.Setenv("RB_TEST_FROM_FILE", "")
	os.Unsetenv("RB_TEST_FROM_FILE")

	cfg, err := Load([]string{"--env-file=" + envPath})
	require.NoError(t, err)

	assert.Equal(t, "5050", cfg.Server.Port, "process env wins over .env")
	assert.Equal(t, "quoted", os.Getenv("RB_TEST_FROM_FILE"))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "bad environment", env: map[string]string{"ENV": "moon"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad duration env", env: map[string]string{"TOKEN_TTL": "soon"}},
		{name: "bad duration flag", args: []string{"--token-ttl=soon"}},
		{name: "negative ttl", env: map[string]string{"TOKEN_TTL": "-1h"}},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "short token key", env: map[string]string{"TOKEN_KEY": "abcd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(append([]string{noEnvFile(t)}, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/recipes", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "recipes"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestLoadArgs_ReturnsRemaining(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	cfg, rest, err := LoadArgs([]string{noEnvFile(t), "--port=9000", "createsuperuser", "-email", "a@b.co"})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"createsuperuser", "-email", "a@b.co"}, rest)
}
