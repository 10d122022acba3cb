// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	GitHubToken  string
	BotUsernames []string
	ListenAddr   string
	DBPath       string
	RunListLimit int
}

// HasGitHubToken returns true when a GitHub token is configured. Without one
// the triage endpoint cannot fetch review history, but stored runs remain
// readable through the API.
func (c *Config) HasGitHubToken() bool {
	return c.GitHubToken != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// REVTRIAGE_GITHUB_TOKEN is optional; if absent, the server starts read-only and
// triage requests fail until a token is provided. Optional variables with defaults:
// REVTRIAGE_BOT_USERNAMES (comma-separated, default "coderabbitai[bot]"),
// REVTRIAGE_LISTEN_ADDR (127.0.0.1:8080), REVTRIAGE_DB_PATH (revtriage.db),
// REVTRIAGE_RUN_LIST_LIMIT (50).
func Load() (*Config, error) {
	token := os.Getenv("REVTRIAGE_GITHUB_TOKEN")

	botUsernames := []string{"coderabbitai[bot]"}
	if v, ok := os.LookupEnv("REVTRIAGE_BOT_USERNAMES"); ok && v != "" {
		botUsernames = nil
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				botUsernames = append(botUsernames, name)
			}
		}
		if botUsernames == nil {
			return nil, fmt.Errorf("REVTRIAGE_BOT_USERNAMES is set but contains no usernames")
		}
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("REVTRIAGE_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "revtriage.db"
	if v, ok := os.LookupEnv("REVTRIAGE_DB_PATH"); ok {
		dbPath = v
	}

	runListLimit := 50
	if v, ok := os.LookupEnv("REVTRIAGE_RUN_LIST_LIMIT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("REVTRIAGE_RUN_LIST_LIMIT has invalid value %q: expected a positive integer", v)
		}
		runListLimit = parsed
	}

	return &Config{
		GitHubToken:  token,
		BotUsernames: botUsernames,
		ListenAddr:   listenAddr,
		DBPath:       dbPath,
		RunListLimit: runListLimit,
	}, nil
}
