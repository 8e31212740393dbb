package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains the remote-service settings shared by every binary: the
// GitHub repository used as document storage and the Gemini API used for
// briefing synthesis.
type Common struct {
	GitHubToken string
	GitHubRepo  string // owner/name
	GeminiKey   string
	GeminiModel string
	FetchWindow time.Duration
}

// Web holds configuration for the dashboard server.
type Web struct {
	Common
	BindAddr        string
	AdminPassword   string
	SessionTTL      time.Duration
	SessionCapacity int
}

// Analyze configures the one-shot analysis run.
type Analyze struct {
	Common
	SynthTimeout time.Duration
}

func loadCommon() (Common, error) {
	c := Common{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:  os.Getenv("REPO_NAME"),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel: getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		FetchWindow: getDuration("FETCH_WINDOW", "72h"),
	}

	if c.GitHubToken == "" {
		return c, fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if owner, name, ok := strings.Cut(c.GitHubRepo, "/"); !ok || owner == "" || name == "" {
		return c, fmt.Errorf("REPO_NAME must look like owner/name, got %q", c.GitHubRepo)
	}
	if c.FetchWindow <= 0 {
		return c, fmt.Errorf("FETCH_WINDOW must be positive")
	}

	return c, nil
}

// LoadWeb builds a Web config from environment variables.
func LoadWeb() (*Web, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Web{
		Common:          common,
		BindAddr:        getEnv("WEB_BIND_ADDR", "0.0.0.0:8080"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		SessionTTL:      getDuration("WEB_SESSION_TTL", "12h"),
		SessionCapacity: getInt("WEB_SESSION_CAPACITY", 10000),
	}

	if c.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD must be set")
	}
	if c.SessionCapacity <= 0 {
		return nil, fmt.Errorf("WEB_SESSION_CAPACITY must be positive")
	}
	if c.SessionTTL <= 0 {
		return nil, fmt.Errorf("WEB_SESSION_TTL must be positive")
	}

	return c, nil
}

// LoadAnalyze builds an Analyze config from environment variables.
func LoadAnalyze() (*Analyze, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Analyze{
		Common:       common,
		SynthTimeout: getDuration("SYNTH_TIMEOUT", "3m"),
	}

	if c.SynthTimeout <= 0 {
		return nil, fmt.Errorf("SYNTH_TIMEOUT must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}
