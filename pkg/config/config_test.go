package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
tradier:
  token: test-token
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Tradier.TTL.Quote != 10*time.Second {
		t.Errorf("quote ttl = %v, want 10s", cfg.Tradier.TTL.Quote)
	}
	if cfg.Tradier.TTL.History != 5*time.Minute {
		t.Errorf("history ttl = %v, want 5m", cfg.Tradier.TTL.History)
	}
	if cfg.Scanner.MaxUniverse != 20 {
		t.Errorf("max universe = %d, want 20", cfg.Scanner.MaxUniverse)
	}
	if cfg.Broadcast.Interval != 30*time.Second {
		t.Errorf("broadcast interval = %v, want 30s", cfg.Broadcast.Interval)
	}
	if len(cfg.Scanner.DefaultTickers) == 0 {
		t.Error("default tickers should not be empty")
	}
}

func TestLoadExplicitValuesWin(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: production
server:
  port: 9000
tradier:
  token: test-token
  ttl:
    chain: 20s
scanner:
  default_tickers: [SPY]
broadcast:
  interval: 10s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Tradier.TTL.Chain != 20*time.Second {
		t.Errorf("chain ttl = %v, want 20s", cfg.Tradier.TTL.Chain)
	}
	if cfg.Broadcast.Interval != 10*time.Second {
		t.Errorf("broadcast interval = %v, want 10s", cfg.Broadcast.Interval)
	}
}

func TestLoadMissingTokenFails(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\n"))
	if err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLoadWithEnvTokenFromEnvironment(t *testing.T) {
	t.Setenv("TRADIER_API_TOKEN", "env-token")

	cfg, err := LoadWithEnv(writeConfig(t, "environment: test\n"))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Tradier.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Tradier.Token)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TRADIER_API_TOKEN", "env-token")
	t.Setenv("PORT", "3000")
	t.Setenv("DEFAULT_TICKERS", "spy, tsla")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("port = %d, want 3000", cfg.Server.Port)
	}
	if len(cfg.Scanner.DefaultTickers) != 2 || cfg.Scanner.DefaultTickers[0] != "SPY" || cfg.Scanner.DefaultTickers[1] != "TSLA" {
		t.Errorf("tickers = %v, want [SPY TSLA]", cfg.Scanner.DefaultTickers)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateUniverseMustCoverDefaults(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
tradier:
  token: test-token
scanner:
  default_tickers: [A, B, C]
  max_universe: 2
`))
	if err == nil {
		t.Fatal("expected error when max_universe < len(default_tickers)")
	}
}
