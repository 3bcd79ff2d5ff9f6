package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Default knobs for the realtime server. The OT core itself (operations,
// notebook, apply, validate, transform) stays config-free; everything here
// is operational tuning for the layer that sits above it.
const (
	DefaultListenAddr          = ":8080"
	DefaultQueueDepth          = 256
	DefaultMaxPendingClientOps = 64
	DefaultPingInterval        = 30 * time.Second
)

// Config holds the realtime server's operational knobs.
type Config struct {
	// ListenAddr is the address the websocket server binds to.
	ListenAddr string `yaml:"listen_addr"`
	// QueueDepth is the per-notebook pending-operation queue depth before
	// a submitting session blocks.
	QueueDepth int `yaml:"queue_depth"`
	// MaxPendingClientOps is the cap on unacknowledged operations a single
	// client session may have in flight. It is defaulted and validated
	// here, but the server package does not read it, so no such cap is
	// enforced.
	MaxPendingClientOps int `yaml:"max_pending_client_ops"`
	// PingInterval is how often the server pings idle websocket
	// connections to detect dead peers.
	PingInterval time.Duration `yaml:"ping_interval"`
}

// Unmarshal parses YAML config bytes, applying defaults for anything left
// unset and validating the result.
func Unmarshal(config []byte) (*Config, error) {
	cfg := &Config{
		ListenAddr:          DefaultListenAddr,
		QueueDepth:          DefaultQueueDepth,
		MaxPendingClientOps: DefaultMaxPendingClientOps,
		PingInterval:        DefaultPingInterval,
	}
	if err := yaml.Unmarshal(config, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err.Error())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile loads and parses a config file from disk.
func LoadConfigFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	cfg, err := LoadConfigString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	return cfg, nil
}

// LoadConfigString loads and parses raw config bytes.
func LoadConfigString(content []byte) (*Config, error) {
	return Unmarshal(content)
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.QueueDepth <= 0 {
		return fmt.Errorf("queue_depth must be positive, got %d", c.QueueDepth)
	}
	if c.MaxPendingClientOps <= 0 {
		return fmt.Errorf("max_pending_client_ops must be positive, got %d", c.MaxPendingClientOps)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping_interval must be positive, got %v", c.PingInterval)
	}
	return nil
}
