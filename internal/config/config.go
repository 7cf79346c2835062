// Package config loads the optional TOML configuration file for the CLI.
// Every value can also be given as a flag; flags win over the file.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config mirrors the fkrepair.toml layout.
type Config struct {
	DSN            string `toml:"dsn"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Format         string `toml:"format"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid config %s: timeout_seconds must not be negative", path)
	}
	return &cfg, nil
}
