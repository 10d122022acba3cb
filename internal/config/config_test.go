package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every REVTRIAGE_ env var that Load() reads.
var allConfigKeys = []string{
	"REVTRIAGE_GITHUB_TOKEN",
	"REVTRIAGE_BOT_USERNAMES",
	"REVTRIAGE_LISTEN_ADDR",
	"REVTRIAGE_DB_PATH",
	"REVTRIAGE_RUN_LIST_LIMIT",
}

// isolateConfigEnv saves and unsets all REVTRIAGE_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REVTRIAGE_GITHUB_TOKEN", "ghp_test123")
	t.Setenv("REVTRIAGE_BOT_USERNAMES", "coderabbitai[bot], reviewdog[bot]")
	t.Setenv("REVTRIAGE_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("REVTRIAGE_DB_PATH", "/tmp/test.db")
	t.Setenv("REVTRIAGE_RUN_LIST_LIMIT", "25")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "ghp_test123", cfg.GitHubToken)
	assert.Equal(t, []string{"coderabbitai[bot]", "reviewdog[bot]"}, cfg.BotUsernames)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 25, cfg.RunListLimit)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REVTRIAGE_GITHUB_TOKEN", "ghp_test123")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"coderabbitai[bot]"}, cfg.BotUsernames)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "revtriage.db", cfg.DBPath)
	assert.Equal(t, 50, cfg.RunListLimit)
}

// TestLoad_MissingToken verifies that a missing GITHUB_TOKEN does not cause
// an error — the server starts read-only with an empty token.
func TestLoad_MissingToken(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.GitHubToken)
	assert.False(t, cfg.HasGitHubToken())
}

func TestLoad_HasGitHubToken(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REVTRIAGE_GITHUB_TOKEN", "ghp_test123")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.HasGitHubToken())
}

func TestLoad_BotUsernames_WhitespaceOnly(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("REVTRIAGE_BOT_USERNAMES", " , ,")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVTRIAGE_BOT_USERNAMES")
}

func TestLoad_InvalidRunListLimit(t *testing.T) {
	for _, v := range []string{"not-a-number", "0", "-5"} {
		t.Run(v, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv("REVTRIAGE_RUN_LIST_LIMIT", v)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "REVTRIAGE_RUN_LIST_LIMIT")
		})
	}
}
