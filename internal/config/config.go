// Package config loads the optional pgrun.yaml project file. Values from
// the file sit below environment variables and above built-in defaults in
// the resolution order.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig holds physical-connection defaults.
type ConnectionConfig struct {
	SSLMode            string `yaml:"sslmode,omitempty"`
	ConnectTimeout     int    `yaml:"connect_timeout,omitempty"`     // seconds
	KeepalivesIdle     int    `yaml:"keepalives_idle,omitempty"`     // seconds
	KeepalivesInterval int    `yaml:"keepalives_interval,omitempty"` // seconds
	KeepalivesCount    int    `yaml:"keepalives_count,omitempty"`
	ApplicationName    string `yaml:"application_name,omitempty"`
}

// PoolConfig holds pooling-strategy defaults.
type PoolConfig struct {
	// UseNullPool selects the open-fresh-connection strategy when true.
	// Pointer so "unset" can be distinguished from an explicit false.
	UseNullPool *bool `yaml:"use_nullpool,omitempty"`

	Size            int `yaml:"size,omitempty"`
	MaxOverflow     int `yaml:"max_overflow,omitempty"`
	CheckoutTimeout int `yaml:"checkout_timeout,omitempty"` // seconds
	RecycleInterval int `yaml:"recycle,omitempty"`          // seconds
}

// ProjectConfig is the root of pgrun.yaml.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Pool       PoolConfig       `yaml:"pool"`
}

const ConfigFileName = "pgrun.yaml"

// Load reads pgrun.yaml from sourcePath.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := filepath.Join(sourcePath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
