package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads filePath (YAML), expands environment variables, decodes
// it into a Config, applies defaults, and validates the result. A missing
// file is not an error: it yields a fully-defaulted Config, per
// SPEC_FULL.md §6 ("an absent config file yields full defaults").
func LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return loadConfigFromBytes(nil)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return loadConfigFromBytes(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", filePath, err)
	}
	return loadConfigFromBytes(data)
}

// LoadConfigFromString parses yamlContent the same way LoadConfig parses a
// file's contents.
func LoadConfigFromString(yamlContent string) (*Config, error) {
	return loadConfigFromBytes([]byte(yamlContent))
}

func loadConfigFromBytes(data []byte) (*Config, error) {
	cfg := &Config{}

	if len(data) > 0 {
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}
