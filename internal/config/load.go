package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Load reads and unmarshals a YAML configuration file at path into a
// Config, applying defaults for any field the file leaves zero-valued.
// A malformed or unreadable configuration is the one class of error this
// module lets abort the process, per the error handling design.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("config: %s declares no servers", path)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
