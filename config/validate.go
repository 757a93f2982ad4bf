package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Validate checks the runtime settings that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.ProtocolVersion > 0xFF {
		return fmt.Errorf("config: ProtocolVersion %d exceeds one byte", c.ProtocolVersion)
	}
	if _, err := c.Price(); err != nil {
		return err
	}
	if _, err := c.Operator(); err != nil {
		return err
	}
	if _, err := c.OracleUpdater(); err != nil {
		return err
	}
	return nil
}

// Price parses the configured per-pizza price. Amounts are decimal strings
// bounded to 128 bits.
func (c *Config) Price() (*big.Int, error) {
	return parseAmount("PricePerPizza", c.PricePerPizza)
}

// Operator parses the configured operator address. An empty setting yields the
// zero address, which disables the operator-gated operations.
func (c *Config) Operator() ([20]byte, error) {
	return parseAddress("OperatorAddress", c.OperatorAddress)
}

// OracleUpdater parses the configured oracle updater address. Empty means the
// operator doubles as updater.
func (c *Config) OracleUpdater() ([20]byte, error) {
	return parseAddress("OracleUpdaterAddress", c.OracleUpdaterAddress)
}

func parseAmount(field, raw string) (*big.Int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return big.NewInt(0), nil
	}
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("config: invalid %s %q: %w", field, raw, err)
	}
	if amount.BitLen() > 128 {
		return nil, fmt.Errorf("config: %s %q exceeds the 128-bit amount range", field, raw)
	}
	return amount.ToBig(), nil
}

func parseAddress(field, raw string) ([20]byte, error) {
	var addr [20]byte
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if raw == "" {
		return addr, nil
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return addr, fmt.Errorf("config: invalid %s: %w", field, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("config: invalid %s: expected %d bytes, got %d", field, len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
