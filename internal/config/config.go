// Package config loads the interpreter's optional pitlang.toml, layered
// underneath CLI flags (flags always win over file values).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds interpreter-wide settings. Zero value is the default
// configuration: info logging to stderr, no script root restriction, no
// named DSNs, sandbox off.
type Config struct {
	LogLevel string            `toml:"log_level"`
	LogFile  string            `toml:"log_file"`
	Root     string            `toml:"root"`
	DBDSN    map[string]string `toml:"db_dsn"`
	Sandbox  bool              `toml:"sandbox"`
}

func Default() *Config {
	return &Config{LogLevel: "info", DBDSN: map[string]string{}}
}

// Load reads path (if it exists) and overlays its values onto Default().
// A missing file is not an error — pitlang.toml is optional.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
