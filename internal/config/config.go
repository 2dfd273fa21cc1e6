// Package config loads server settings and game rules from a YAML file,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/blackmarket/internal/engine"
)

type Config struct {
	Rules       engine.Rules `yaml:"rules" json:"rules"`
	Server      Server       `yaml:"server" json:"server"`
	Storage     Storage      `yaml:"storage" json:"storage"`
	Leaderboard Leaderboard  `yaml:"leaderboard" json:"leaderboard"`
	Entropy     Entropy      `yaml:"entropy" json:"entropy"`
	Log         Log          `yaml:"log" json:"log"`
}

type Server struct {
	Port           int      `yaml:"port" json:"port"`
	TokenSecret    string   `yaml:"token_secret" json:"-"`
	CORSOrigins    []string `yaml:"cors_origins" json:"cors_origins"`
	ScoreRateLimit int      `yaml:"score_rate_limit" json:"score_rate_limit"` // submissions per IP per minute
	MaxGames       int      `yaml:"max_games" json:"max_games"`
	TrustProxy     bool     `yaml:"trust_proxy" json:"trust_proxy"` // only behind a proxy that sets X-Forwarded-For
}

type Storage struct {
	DBPath string `yaml:"db_path" json:"db_path"` // empty disables local persistence
}

// Leaderboard points at a remote PostgREST-style table. When URL is empty the
// local SQLite store serves the board instead.
type Leaderboard struct {
	URL             string        `yaml:"url" json:"url"`
	APIKey          string        `yaml:"api_key" json:"-"`
	Table           string        `yaml:"table" json:"table"`
	Limit           int           `yaml:"limit" json:"limit"`
	RefreshAttempts int           `yaml:"refresh_attempts" json:"refresh_attempts"`
	RefreshBackoff  time.Duration `yaml:"refresh_backoff" json:"refresh_backoff"`
}

type Entropy struct {
	RandomOrgKey string `yaml:"random_org_key" json:"-"`
	Seed         uint64 `yaml:"seed" json:"seed"` // 0 means unseeded
}

type Log struct {
	Level string `yaml:"level" json:"level"`
}

// Default returns a config that runs a local server with the standard rules.
func Default() *Config {
	return &Config{
		Rules: engine.DefaultRules(),
		Server: Server{
			Port:           8080,
			CORSOrigins:    []string{"*"},
			ScoreRateLimit: 5,
			MaxGames:       1000,
		},
		Storage: Storage{DBPath: "data/blackmarket.db"},
		Leaderboard: Leaderboard{
			Table:           "leaderboard",
			Limit:           10,
			RefreshAttempts: 3,
			RefreshBackoff:  500 * time.Millisecond,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path skips the
// file. Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadDotEnv populates the environment from a .env file if one exists.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}
}

// ApplyEnv overrides file settings with environment variables.
func (c *Config) ApplyEnv() {
	c.Server.Port = envIntOrDefault("BLACKMARKET_PORT", c.Server.Port)
	c.Server.TokenSecret = envOrDefault("BLACKMARKET_TOKEN_SECRET", c.Server.TokenSecret)
	c.Storage.DBPath = envOrDefault("BLACKMARKET_DB", c.Storage.DBPath)
	c.Leaderboard.URL = envOrDefault("LEADERBOARD_URL", c.Leaderboard.URL)
	c.Leaderboard.APIKey = envOrDefault("LEADERBOARD_KEY", c.Leaderboard.APIKey)
	c.Entropy.RandomOrgKey = envOrDefault("RANDOM_ORG_API_KEY", c.Entropy.RandomOrgKey)
	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("BLACKMARKET_TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Server.TrustProxy = b
		}
	}
	if v := os.Getenv("BLACKMARKET_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Entropy.Seed = n
		}
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ScoreRateLimit < 1 {
		return fmt.Errorf("server.score_rate_limit must be positive")
	}
	if c.Leaderboard.Limit < 1 {
		return fmt.Errorf("leaderboard.limit must be positive")
	}
	if c.Leaderboard.RefreshAttempts < 1 {
		return fmt.Errorf("leaderboard.refresh_attempts must be at least 1")
	}
	if c.Leaderboard.URL != "" && c.Leaderboard.APIKey == "" {
		return fmt.Errorf("leaderboard.api_key is required with leaderboard.url")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
