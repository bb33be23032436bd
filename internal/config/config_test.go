package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/lanesim/internal/analysis"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	opts := cfg.Simulator.Options()
	assert.Equal(t, 20, opts.MaxTurns)
	assert.Equal(t, 2, opts.MaxBranch)
	assert.Equal(t, 1000, opts.CircuitBreaker)
	assert.True(t, opts.CheckDuplicateStates)
	assert.True(t, opts.AlwaysDrawCreature)
	assert.True(t, opts.AlwaysDrawSacrifice)

	d, err := cfg.GetRateLimit()
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, d)

	assert.Equal(t, analysis.DefaultThresholds(), cfg.Analysis.Thresholds())
	assert.Equal(t, lanenet.Limits{MaxTurns: 50, MaxBranch: 4, IterationCap: 200000}, cfg.Server.Limits())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanesim.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[simulator]
max_turns = 30
check_duplicate_states = false

[log]
level = "debug"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Simulator.MaxTurns)
	assert.False(t, cfg.Simulator.CheckDuplicateStates)
	assert.Equal(t, 2, cfg.Simulator.MaxBranch, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lanesim.toml")
	cfg := DefaultConfig()
	cfg.Analysis.Workers = 8
	cfg.Server.Port = 9000
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero branch", func(c *Config) { c.Simulator.MaxBranch = 0 }},
		{"zero turns", func(c *Config) { c.Simulator.MaxTurns = 0 }},
		{"negative breaker", func(c *Config) { c.Simulator.CircuitBreaker = -1 }},
		{"win rate above one", func(c *Config) { c.Analysis.MaxWinRate = 1.5 }},
		{"medium above easy", func(c *Config) { c.Analysis.MediumWinRate = 0.9 }},
		{"bad rate limit", func(c *Config) { c.Server.RateLimit = "soon" }},
		{"zero branch limit", func(c *Config) { c.Server.MaxBranchLimit = 0 }},
		{"zero iteration cap limit", func(c *Config) { c.Server.IterationCapLimit = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulator]\nmax_branch = 0\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Development = true
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("config test")
}
