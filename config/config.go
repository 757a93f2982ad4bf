package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the node deployment settings.
type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	NetworkName          string `toml:"NetworkName"`
	EventJournalPath     string `toml:"EventJournalPath"`
	ProtocolVersion      uint   `toml:"ProtocolVersion"`
	PricePerPizza        string `toml:"PricePerPizza"`
	AllowMultipleTips    bool   `toml:"AllowMultipleTips"`
	RegistryEnabled      bool   `toml:"RegistryEnabled"`
	OperatorAddress      string `toml:"OperatorAddress"`
	OracleUpdaterAddress string `toml:"OracleUpdaterAddress"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./pizza-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "pizza-local"
	}
	if strings.TrimSpace(cfg.EventJournalPath) == "" {
		cfg.EventJournalPath = filepath.Join(cfg.DataDir, "events.db")
	}
	if strings.TrimSpace(cfg.PricePerPizza) == "" {
		cfg.PricePerPizza = "1"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:      ":8080",
		DataDir:         "./pizza-data",
		NetworkName:     "pizza-local",
		ProtocolVersion: 1,
		PricePerPizza:   "1",
		RegistryEnabled: true,
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
