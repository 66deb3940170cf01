// Package config provides configuration management for the clipmark server.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".clipmark"

	// Environment variable names
	EnvPort     = "CLIPMARK_PORT"
	EnvLogLevel = "CLIPMARK_LOG_LEVEL"
	EnvDataDir  = "CLIPMARK_DATA_DIR"

	// Platform credential environment variable names. The YouTube keys and
	// Twitch tokens are comma-separated pools; a missing value is not an
	// error, the matching adapter degrades to ConfigurationMissing.
	EnvYouTubeAPIKeys = "CLIPMARK_YOUTUBE_API_KEYS"
	EnvTwitchClientID = "CLIPMARK_TWITCH_CLIENT_ID"
	EnvTwitchTokens   = "CLIPMARK_TWITCH_TOKENS"

	// Upstream base URL overrides, used by integration tests and proxies.
	EnvChzzkBaseURL  = "CLIPMARK_CHZZK_BASE_URL"
	EnvTwitchBaseURL = "CLIPMARK_TWITCH_BASE_URL"

	// Database filename
	DBFilename = "clipmark.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	YouTubeAPIKeys() []string
	TwitchClientID() string
	TwitchTokens() []string
	ChzzkBaseURL() string
	TwitchBaseURL() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string

	youtubeAPIKeys []string
	twitchClientID string
	twitchTokens   []string
	chzzkBaseURL   string
	twitchBaseURL  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.youtubeAPIKeys = splitList(os.Getenv(EnvYouTubeAPIKeys))
	cfg.twitchClientID = os.Getenv(EnvTwitchClientID)
	cfg.twitchTokens = splitList(os.Getenv(EnvTwitchTokens))
	cfg.chzzkBaseURL = os.Getenv(EnvChzzkBaseURL)
	cfg.twitchBaseURL = os.Getenv(EnvTwitchBaseURL)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// YouTubeAPIKeys returns the pooled YouTube Data API keys, possibly empty.
func (c *EnvConfig) YouTubeAPIKeys() []string {
	return c.youtubeAPIKeys
}

func (c *EnvConfig) TwitchClientID() string {
	return c.twitchClientID
}

// TwitchTokens returns the pooled Twitch bearer tokens, possibly empty.
func (c *EnvConfig) TwitchTokens() []string {
	return c.twitchTokens
}

func (c *EnvConfig) ChzzkBaseURL() string {
	return c.chzzkBaseURL
}

func (c *EnvConfig) TwitchBaseURL() string {
	return c.twitchBaseURL
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
