package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/blackmarket/internal/economy"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2500, c.Rules.StartCash)
	assert.Equal(t, 30, c.Rules.Days)
	assert.Equal(t, economy.Biased, c.Rules.PriceModel)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 3, c.Leaderboard.RefreshAttempts)
	assert.Equal(t, 500*time.Millisecond, c.Leaderboard.RefreshBackoff)
}

func TestLoad_FileOverridesOnlyGivenKeys(t *testing.T) {
	path := writeFile(t, "game.yaml", `
rules:
  days: 10
  price_model: uniform
server:
  port: 9000
leaderboard:
  refresh_backoff: 2s
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Rules.Days)
	assert.Equal(t, economy.Uniform, c.Rules.PriceModel)
	assert.Equal(t, 2500, c.Rules.StartCash, "unset keys keep defaults")
	assert.Equal(t, 9000, c.Server.Port)
	assert.Equal(t, 2*time.Second, c.Leaderboard.RefreshBackoff)
}

func TestLoad_SampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "blackmarket.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Rules, c.Rules)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "rules: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "invalid.yaml", "rules:\n  days: 1\n"))
	assert.ErrorContains(t, err, "days")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLACKMARKET_PORT", "7070")
	t.Setenv("BLACKMARKET_DB", "/tmp/bm.db")
	t.Setenv("BLACKMARKET_TOKEN_SECRET", "s3cret")
	t.Setenv("LEADERBOARD_URL", "https://board.example")
	t.Setenv("LEADERBOARD_KEY", "anon")
	t.Setenv("RANDOM_ORG_API_KEY", "rnd")
	t.Setenv("BLACKMARKET_SEED", "42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BLACKMARKET_TRUST_PROXY", "true")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "/tmp/bm.db", c.Storage.DBPath)
	assert.Equal(t, "s3cret", c.Server.TokenSecret)
	assert.Equal(t, "https://board.example", c.Leaderboard.URL)
	assert.Equal(t, "anon", c.Leaderboard.APIKey)
	assert.Equal(t, "rnd", c.Entropy.RandomOrgKey)
	assert.Equal(t, uint64(42), c.Entropy.Seed)
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Server.TrustProxy)
}

func TestApplyEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BLACKMARKET_PORT", "eighty")
	t.Setenv("BLACKMARKET_SEED", "-1")
	t.Setenv("BLACKMARKET_TRUST_PROXY", "maybe")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Zero(t, c.Entropy.Seed)
	assert.False(t, c.Server.TrustProxy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad rules", func(c *Config) { c.Rules.EventChance = 2 }},
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"rate limit", func(c *Config) { c.Server.ScoreRateLimit = 0 }},
		{"board limit", func(c *Config) { c.Leaderboard.Limit = 0 }},
		{"attempts", func(c *Config) { c.Leaderboard.RefreshAttempts = 0 }},
		{"remote without key", func(c *Config) { c.Leaderboard.URL = "https://x" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "BLACKMARKET_TEST_DOTENV=from-file\n")
	t.Setenv("BLACKMARKET_TEST_DOTENV", "")
	os.Unsetenv("BLACKMARKET_TEST_DOTENV")

	LoadDotEnv(path)
	assert.Equal(t, "from-file", os.Getenv("BLACKMARKET_TEST_DOTENV"))

	LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
}
