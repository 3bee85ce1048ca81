// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings. Gameplay tuning lives in the tuning file.
type Config struct {
	Addr          string `env:"NUNCLE_ADDR" envDefault:":8080"`
	DataDir       string `env:"NUNCLE_DATA_DIR" envDefault:"./data"`
	TuningPath    string `env:"NUNCLE_TUNING"`
	MCPListen     string `env:"NUNCLE_MCP_LISTEN" envDefault:"127.0.0.1:8090"`
	OperatorToken string `env:"NUNCLE_OPERATOR_TOKEN"`

	DiscordToken   string `env:"NUNCLE_DISCORD_TOKEN"`
	DiscordChannel string `env:"NUNCLE_DISCORD_CHANNEL"`

	LogRotate time.Duration `env:"NUNCLE_LOG_ROTATE" envDefault:"1h"`
	LogKeep   int           `env:"NUNCLE_LOG_KEEP" envDefault:"0"`

	DisableDB   bool `env:"NUNCLE_DISABLE_DB" envDefault:"false"`
	EnablePprof bool `env:"NUNCLE_ENABLE_PPROF" envDefault:"false"`
}

// ParseEnv fills target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and trims string fields.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.TuningPath = strings.TrimSpace(cfg.TuningPath)
	cfg.MCPListen = strings.TrimSpace(cfg.MCPListen)
	cfg.OperatorToken = strings.TrimSpace(cfg.OperatorToken)
	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)
	cfg.DiscordChannel = strings.TrimSpace(cfg.DiscordChannel)
	if cfg.LogRotate < time.Minute {
		return Config{}, fmt.Errorf("NUNCLE_LOG_ROTATE %s: must be at least 1m", cfg.LogRotate)
	}
	if cfg.LogKeep < 0 {
		return Config{}, fmt.Errorf("NUNCLE_LOG_KEEP %d: must not be negative", cfg.LogKeep)
	}
	return cfg, nil
}

// DiscordEnabled reports whether both a bot token and channel are set.
func (c Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannel != ""
}
