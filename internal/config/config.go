package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/peterkuimelis/lanesim/internal/analysis"
	lanenet "github.com/peterkuimelis/lanesim/internal/net"
	"github.com/peterkuimelis/lanesim/internal/sim"
)

// Config represents the application configuration.
type Config struct {
	Simulator SimulatorConfig `toml:"simulator"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Storage   StorageConfig   `toml:"storage"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// SimulatorConfig contains search settings.
type SimulatorConfig struct {
	MaxTurns               int  `toml:"max_turns"`
	MaxBranch              int  `toml:"max_branch"`
	MinActionScore         int  `toml:"min_action_score"`
	CircuitBreaker         int  `toml:"circuit_breaker"` // queue length; 0 disables
	IterationCap           int  `toml:"iteration_cap"`   // dequeued states; 0 disables
	CheckDuplicateStates   bool `toml:"check_duplicate_states"`
	AlwaysDrawCreature     bool `toml:"always_draw_creature"`
	AlwaysDrawSacrifice    bool `toml:"always_draw_sacrifice"`
	OneActionPerCard       bool `toml:"one_action_per_card"`
	LookaheadTurns         int  `toml:"lookahead_turns"`
	PreferCreatureFallback bool `toml:"prefer_creature_fallback"`
	StartingHandSize       int  `toml:"starting_hand_size"`
}

// AnalysisConfig contains calibration and batch settings.
type AnalysisConfig struct {
	Workers        int     `toml:"workers"`
	Games          int     `toml:"games"` // games per level in a batch
	MinWinRate     float64 `toml:"min_win_rate"`
	MaxWinRate     float64 `toml:"max_win_rate"`
	MinEnemyDamage int     `toml:"min_enemy_damage"`
	EasyWinRate    float64 `toml:"easy_win_rate"`
	MediumWinRate  float64 `toml:"medium_win_rate"`
}

// StorageConfig contains run store settings.
type StorageConfig struct {
	Path        string `toml:"path"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

// ServerConfig contains HTTP and TCP server settings.
type ServerConfig struct {
	Port      int    `toml:"port"`
	RateLimit string `toml:"rate_limit"` // minimum spacing of simulate requests (e.g. "200ms")
	Burst     int    `toml:"burst"`

	// Ceilings on what a served request may ask for.
	MaxTurnsLimit     int `toml:"max_turns_limit"`
	MaxBranchLimit    int `toml:"max_branch_limit"`
	IterationCapLimit int `toml:"iteration_cap_limit"`
}

// LogConfig contains process logging settings.
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulator: SimulatorConfig{
			MaxTurns:             20,
			MaxBranch:            2,
			MinActionScore:       1,
			CircuitBreaker:       1000,
			IterationCap:         0,
			CheckDuplicateStates: true,
			AlwaysDrawCreature:   true,
			AlwaysDrawSacrifice:  true,
			OneActionPerCard:     true,
			LookaheadTurns:       sim.DefaultLookahead,
			StartingHandSize:     sim.StartingHandSize,
		},
		Analysis: AnalysisConfig{
			Workers:        4,
			Games:          10,
			MinWinRate:     0.01,
			MaxWinRate:     0.99,
			MinEnemyDamage: 3,
			EasyWinRate:    0.80,
			MediumWinRate:  0.45,
		},
		Storage: StorageConfig{
			Path:        "lanesim.db",
			AutoMigrate: true,
		},
		Server: ServerConfig{
			Port:      8080,
			RateLimit: "200ms",
			Burst:     4,

			MaxTurnsLimit:     50,
			MaxBranchLimit:    4,
			IterationCapLimit: 200000,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// Load loads the configuration from path. Returns the default config if the
// file doesn't exist. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	s := c.Simulator
	if s.MaxTurns < 1 {
		return fmt.Errorf("max turns must be positive: %d", s.MaxTurns)
	}
	if s.MaxBranch < 1 {
		return fmt.Errorf("max branch must be positive: %d", s.MaxBranch)
	}
	if s.CircuitBreaker < 0 {
		return fmt.Errorf("circuit breaker cannot be negative: %d", s.CircuitBreaker)
	}
	if s.IterationCap < 0 {
		return fmt.Errorf("iteration cap cannot be negative: %d", s.IterationCap)
	}
	if s.LookaheadTurns < 1 {
		return fmt.Errorf("lookahead turns must be positive: %d", s.LookaheadTurns)
	}
	if s.StartingHandSize < 0 {
		return fmt.Errorf("starting hand size cannot be negative: %d", s.StartingHandSize)
	}

	a := c.Analysis
	if a.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", a.Workers)
	}
	if a.Games < 1 {
		return fmt.Errorf("games must be positive: %d", a.Games)
	}
	for name, rate := range map[string]float64{
		"min win rate":    a.MinWinRate,
		"max win rate":    a.MaxWinRate,
		"easy win rate":   a.EasyWinRate,
		"medium win rate": a.MediumWinRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be within [0,1]: %v", name, rate)
		}
	}
	if a.MediumWinRate > a.EasyWinRate {
		return fmt.Errorf("medium win rate %v exceeds easy win rate %v", a.MediumWinRate, a.EasyWinRate)
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, err := time.ParseDuration(c.Server.RateLimit); err != nil {
		return fmt.Errorf("invalid rate limit %q: %w", c.Server.RateLimit, err)
	}
	if c.Server.Burst < 1 {
		return fmt.Errorf("burst must be positive: %d", c.Server.Burst)
	}
	if c.Server.MaxTurnsLimit < 1 || c.Server.MaxBranchLimit < 1 || c.Server.IterationCapLimit < 1 {
		return fmt.Errorf("server request limits must be positive")
	}

	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// GetRateLimit returns the simulate request spacing as a duration.
func (c *Config) GetRateLimit() (time.Duration, error) {
	return time.ParseDuration(c.Server.RateLimit)
}

// Options converts the simulator section to engine settings.
func (s SimulatorConfig) Options() sim.Config {
	return sim.Config{
		MaxTurns:               s.MaxTurns,
		MaxBranch:              s.MaxBranch,
		MinActionScore:         s.MinActionScore,
		CircuitBreaker:         s.CircuitBreaker,
		IterationCap:           s.IterationCap,
		CheckDuplicateStates:   s.CheckDuplicateStates,
		AlwaysDrawCreature:     s.AlwaysDrawCreature,
		AlwaysDrawSacrifice:    s.AlwaysDrawSacrifice,
		OneActionPerCard:       s.OneActionPerCard,
		LookaheadTurns:         s.LookaheadTurns,
		PreferCreatureFallback: s.PreferCreatureFallback,
	}
}

// Thresholds converts the analysis section to calibration bands.
func (a AnalysisConfig) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		MinWinRate:     a.MinWinRate,
		MaxWinRate:     a.MaxWinRate,
		MinEnemyDamage: a.MinEnemyDamage,
		Easy:           a.EasyWinRate,
		Medium:         a.MediumWinRate,
	}
}

// Limits returns the request ceilings served runners enforce.
func (s ServerConfig) Limits() lanenet.Limits {
	return lanenet.Limits{
		MaxTurns:     s.MaxTurnsLimit,
		MaxBranch:    s.MaxBranchLimit,
		IterationCap: s.IterationCapLimit,
	}
}

// NewLogger builds the process logger described by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
