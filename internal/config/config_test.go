package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Arbitrage.MinEdgePercent != 0.5 {
		t.Errorf("min_edge_percent default = %v, want 0.5", cfg.Arbitrage.MinEdgePercent)
	}
	if cfg.Arbitrage.MinEdge() != 0.005 {
		t.Errorf("MinEdge() = %v, want 0.005", cfg.Arbitrage.MinEdge())
	}
	if cfg.Impact.DirectionThreshold != 0.01 {
		t.Errorf("direction_threshold default = %v, want 0.01", cfg.Impact.DirectionThreshold)
	}
	if cfg.Kafka.QuoteTopic != "quotes.snapshots" {
		t.Errorf("quote_topic default = %q", cfg.Kafka.QuoteTopic)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
arbitrage:
  min_edge_percent: 2.5
middles:
  min_gap_total: 3.0
lag:
  max_lag_seconds: 120
redis:
  enabled: true
  addr: localhost:6379
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Arbitrage.MinEdgePercent != 2.5 {
		t.Errorf("min_edge_percent = %v, want 2.5", cfg.Arbitrage.MinEdgePercent)
	}
	if cfg.Middles.MinGapTotal != 3.0 {
		t.Errorf("min_gap_total = %v, want 3.0", cfg.Middles.MinGapTotal)
	}
	if cfg.Lag.MaxLagSeconds != 120 {
		t.Errorf("max_lag_seconds = %v, want 120", cfg.Lag.MaxLagSeconds)
	}
	// Untouched keys keep their defaults.
	if cfg.Middles.MinGapPoints != 1.0 {
		t.Errorf("min_gap_points = %v, want default 1.0", cfg.Middles.MinGapPoints)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config must validate: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, _ := Load("")
		return cfg
	}

	cfg := base()
	cfg.Arbitrage.MinEdgePercent = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative min_edge_percent must fail validation")
	}

	cfg = base()
	cfg.Lag.MaxLagSeconds = cfg.Lag.MinLagSeconds
	if err := cfg.Validate(); err == nil {
		t.Error("max lag at or below min lag must fail validation")
	}

	cfg = base()
	cfg.Impact.DirectionThreshold = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero direction threshold must fail validation")
	}

	cfg = base()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	if err := cfg.Validate(); err == nil {
		t.Error("enabled redis without an address must fail validation")
	}

	cfg = base()
	cfg.Storage.Database = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty database path must fail validation")
	}
}
