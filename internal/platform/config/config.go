// Package config loads application configuration from environment variables.
// All variables use the QUIZ_ prefix. An optional YAML quiz profile can
// override the quiz settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Quiz     QuizConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// finished attempts in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL
// disables document caching.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// QuizConfig describes the quiz every new attempt is drawn from.
type QuizConfig struct {
	Title         string
	Source        string // file, directory or http(s) URL of the question document
	QuestionCount int
	Duration      time.Duration // zero disables the countdown
	StrictCount   bool          // fail instead of clamping when the bank is too small
	ProfilePath   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with QUIZ_ prefix and
// applies the quiz profile when QUIZ_PROFILE_PATH is set.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("QUIZ_SERVER_PORT", 8080),
			Host: envStr("QUIZ_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("QUIZ_DATABASE_URL", ""),
			MaxConns: envInt("QUIZ_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("QUIZ_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("QUIZ_CACHE_URL", ""),
			TTL: envDuration("QUIZ_CACHE_TTL", 10*time.Minute),
		},
		Quiz: QuizConfig{
			Title:         envStr("QUIZ_TITLE", "OCA Practice Exam"),
			Source:        envStr("QUIZ_SOURCE", "./ocaQuestions.adoc"),
			QuestionCount: envInt("QUIZ_QUESTION_COUNT", 15),
			Duration:      envDuration("QUIZ_DURATION", 45*time.Minute),
			StrictCount:   envBool("QUIZ_STRICT_COUNT", false),
			ProfilePath:   envStr("QUIZ_PROFILE_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("QUIZ_LOG_LEVEL", "info"),
			Format: envStr("QUIZ_LOG_FORMAT", "json"),
		},
	}

	if cfg.Quiz.ProfilePath != "" {
		p, err := LoadProfile(cfg.Quiz.ProfilePath)
		if err != nil {
			return nil, err
		}
		p.Apply(&cfg.Quiz)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Quiz.Source == "" {
		return fmt.Errorf("QUIZ_SOURCE is required")
	}

	if c.Quiz.QuestionCount <= 0 {
		return fmt.Errorf("QUIZ_QUESTION_COUNT must be positive, got %d", c.Quiz.QuestionCount)
	}

	if c.Quiz.Duration < 0 {
		return fmt.Errorf("QUIZ_DURATION must not be negative, got %s", c.Quiz.Duration)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("QUIZ_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
