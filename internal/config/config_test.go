package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amosov/newsroom/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("REPO_NAME", "octocat/newsroom-data")
	t.Setenv("GEMINI_API_KEY", "gm_test")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
}

func TestLoadWebDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("WEB_BIND_ADDR", "")
	t.Setenv("WEB_SESSION_TTL", "")
	t.Setenv("WEB_SESSION_CAPACITY", "")
	t.Setenv("FETCH_WINDOW", "")

	cfg, err := config.LoadWeb()
	require.NoError(t, err)

	require.Equal(t, "ghp_test", cfg.GitHubToken)
	require.Equal(t, "octocat/newsroom-data", cfg.GitHubRepo)
	require.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Equal(t, "hunter2", cfg.AdminPassword)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10000, cfg.SessionCapacity)
	require.Equal(t, 72*time.Hour, cfg.FetchWindow)
}

func TestLoadWebOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("WEB_BIND_ADDR", ":9090")
	t.Setenv("WEB_SESSION_TTL", "1h")
	t.Setenv("WEB_SESSION_CAPACITY", "50")
	t.Setenv("FETCH_WINDOW", "24h")

	cfg, err := config.LoadWeb()
	require.NoError(t, err)

	require.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, 50, cfg.SessionCapacity)
	require.Equal(t, 24*time.Hour, cfg.FetchWindow)
}

func TestLoadWebMissingToken(t *testing.T) {
	setRequired(t)
	t.Setenv("GITHUB_TOKEN", "")

	_, err := config.LoadWeb()
	require.Error(t, err)
	require.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestLoadWebMalformedRepo(t *testing.T) {
	setRequired(t)
	t.Setenv("REPO_NAME", "just-a-name")

	_, err := config.LoadWeb()
	require.Error(t, err)
	require.Contains(t, err.Error(), "REPO_NAME")
}

func TestLoadWebMissingPassword(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := config.LoadWeb()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ADMIN_PASSWORD")
}

func TestLoadAnalyze(t *testing.T) {
	setRequired(t)
	t.Setenv("SYNTH_TIMEOUT", "90s")

	cfg, err := config.LoadAnalyze()
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.SynthTimeout)
	require.Equal(t, "octocat/newsroom-data", cfg.GitHubRepo)
}
