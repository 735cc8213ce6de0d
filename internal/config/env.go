package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Env holds the environment overrides for Config.
type Env struct {
	DBDir     string `env:"A11YSCAN_DB_DIR"`
	UserAgent string `env:"A11YSCAN_USER_AGENT"`
}

// ApplyEnv overrides fields from the environment. Unset variables leave
// the current values alone.
func (c *Config) ApplyEnv() error {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return err
	}
	if e.DBDir != "" {
		c.DBDir = e.DBDir
	}
	if e.UserAgent != "" {
		c.UserAgent = e.UserAgent
	}
	return nil
}
