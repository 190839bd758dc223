// Package config loads the example credentials/login-URI TOML file
// described in §6's "Configuration" note. It is an example-program
// concern only, not part of the core the rest of this module implements.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the flat shape the example `cmd/viewer` CLI reads at
// startup.
type Config struct {
	FirstName string `toml:"first_name"`
	LastName  string `toml:"last_name"`
	Password  string `toml:"password"`
	LoginURI  string `toml:"login_uri"`
	Start     string `toml:"start"`
}

// Load parses a TOML config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: reading %s", path)
	}
	if cfg.LoginURI == "" {
		return Config{}, errors.Errorf("config: %s: login_uri is required", path)
	}
	if cfg.FirstName == "" || cfg.LastName == "" {
		return Config{}, errors.Errorf("config: %s: first_name and last_name are required", path)
	}
	return cfg, nil
}
