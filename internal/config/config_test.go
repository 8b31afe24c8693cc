package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()
	if cfg.SyncInterval != time.Minute {
		t.Fatalf("sync interval = %v", cfg.SyncInterval)
	}
	if cfg.MaturityThreshold != time.Hour {
		t.Fatalf("maturity threshold = %v", cfg.MaturityThreshold)
	}
	if cfg.PayoutMultiplier != 2 {
		t.Fatalf("payout multiplier = %d", cfg.PayoutMultiplier)
	}
	if cfg.StartingBalance != 1000 {
		t.Fatalf("starting balance = %d", cfg.StartingBalance)
	}
	if !cfg.FallbackOnEmptyBatch {
		t.Fatal("fallback should default on")
	}
	if cfg.SkipMatchIDPrefix != "999999" {
		t.Fatalf("skip prefix = %q", cfg.SkipMatchIDPrefix)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("SYNC_FALLBACK_ON_EMPTY", "false")
	t.Setenv("PAYOUT_MULTIPLIER", "3")
	t.Setenv("PROVIDER_TIMEOUT", "10s")

	cfg := Load()
	if cfg.SyncInterval != 30*time.Second {
		t.Fatalf("sync interval = %v", cfg.SyncInterval)
	}
	if cfg.FallbackOnEmptyBatch {
		t.Fatal("fallback should be off")
	}
	if cfg.PayoutMultiplier != 3 {
		t.Fatalf("payout multiplier = %d", cfg.PayoutMultiplier)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Fatalf("provider timeout = %v", cfg.ProviderTimeout)
	}
}
