package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
NetworkName = "testnet"
ProtocolVersion = 2
PricePerPizza = "7"
AllowMultipleTips = true
RegistryEnabled = true
OperatorAddress = "0x0101010101010101010101010101010101010101"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9000" || cfg.NetworkName != "testnet" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.ProtocolVersion != 2 || !cfg.AllowMultipleTips || !cfg.RegistryEnabled {
		t.Fatalf("unexpected ledger settings %+v", cfg)
	}
	if cfg.EventJournalPath != filepath.Join("./data", "events.db") {
		t.Fatalf("expected journal path derived from DataDir, got %q", cfg.EventJournalPath)
	}

	price, err := cfg.Price()
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("expected price 7, got %s", price)
	}
	operator, err := cfg.Operator()
	if err != nil {
		t.Fatalf("operator: %v", err)
	}
	for _, b := range operator {
		if b != 0x01 {
			t.Fatalf("unexpected operator %x", operator)
		}
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8080" || cfg.NetworkName != "pizza-local" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.RegistryEnabled {
		t.Fatal("expected registry enabled by default")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config persisted: %v", err)
	}
}

func TestLoadRejectsBadPrice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `PricePerPizza = "not-a-number"` + "\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "PricePerPizza") {
		t.Fatalf("expected price parse error, got %v", err)
	}
}

func TestLoadRejectsOversizedPrice(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	// 2^128 does not fit the 128-bit amount range.
	contents := `PricePerPizza = "340282366920938463463374607431768211456"` + "\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected oversized price rejected")
	}
}

func TestLoadRejectsShortAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `OperatorAddress = "0xabcd"` + "\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "OperatorAddress") {
		t.Fatalf("expected address parse error, got %v", err)
	}
}
