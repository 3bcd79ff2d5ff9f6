package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := loadOrFail(t, "")
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultQueueDepth, cfg.QueueDepth)
	assert.Equal(t, DefaultMaxPendingClientOps, cfg.MaxPendingClientOps)
	assert.Equal(t, DefaultPingInterval, cfg.PingInterval)
}

func TestOverrideListenAddr(t *testing.T) {
	cfg := loadOrFail(t, `
listen_addr: ":9000"
`)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, DefaultQueueDepth, cfg.QueueDepth)
}

func TestOverridePingInterval(t *testing.T) {
	cfg := loadOrFail(t, `
ping_interval: 15s
`)
	assert.Equal(t, 15*time.Second, cfg.PingInterval)
}

func TestOverrideQueueDepthAndPending(t *testing.T) {
	cfg := loadOrFail(t, `
queue_depth: 16
max_pending_client_ops: 4
`)
	assert.Equal(t, 16, cfg.QueueDepth)
	assert.Equal(t, 4, cfg.MaxPendingClientOps)
}

func TestZeroQueueDepthRejected(t *testing.T) {
	ensureFail(t, `
queue_depth: 0
`, "queue_depth")
}

func TestNegativeMaxPendingRejected(t *testing.T) {
	ensureFail(t, `
max_pending_client_ops: -1
`, "max_pending_client_ops")
}

func TestEmptyListenAddrRejected(t *testing.T) {
	ensureFail(t, `
listen_addr: ""
`, "listen_addr")
}

func ensureFail(t *testing.T, cfgString string, desc string) {
	_, err := Unmarshal([]byte(cfgString))
	if err == nil {
		t.Fatalf("Expected config err not found: %s", desc)
	}
	t.Logf("Config err: %v", err.Error())
}

func loadOrFail(t *testing.T, cfgString string) *Config {
	cfg, err := Unmarshal([]byte(cfgString))
	if err != nil {
		t.Fatalf("Failed to read config: %v", err.Error())
	}
	return cfg
}
