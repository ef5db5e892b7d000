package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CollateralRatioBP != 8_000 || cfg.InterestRateBP != 200 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}

	// Loading the written file round-trips.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.RPCAddress != cfg.RPCAddress || reloaded.DataDir != cfg.DataDir {
		t.Fatalf("round trip mismatch: %+v vs %+v", reloaded, cfg)
	}
}

func TestLoadRejectsBadRatios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "CollateralRatioBP = 12000\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation failure for ratio above 10000")
	}
}

func TestLoadRejectsMalformedAuthority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := "MintAuthority = \"not-an-address\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation failure for malformed authority")
	}
}
