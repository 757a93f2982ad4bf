package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

type tipRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Value   string `json:"value"`
	Pizzas  uint32 `json:"pizzas"`
	Message string `json:"message"`
}

type tipResponse struct {
	ID        uint32           `json:"id"`
	Highlight *highlightResult `json:"highlight,omitempty"`
}

type highlightResult struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

type tipRecord struct {
	ID      uint32 `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Pizzas  uint32 `json:"pizzas"`
	Message string `json:"message,omitempty"`
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type creditRequest struct {
	Amount string `json:"amount"`
}

type callerRequest struct {
	Caller string `json:"caller"`
}

type contentHighlightRequest struct {
	Caller string `json:"caller"`
	Author string `json:"author"`
	ID     uint32 `json:"id"`
}

type highlightResponse struct {
	Address string `json:"address"`
	ID      uint32 `json:"id"`
}

type terminateResponse struct {
	Terminated bool `json:"terminated"`
}

type priceRequest struct {
	Caller     string `json:"caller"`
	Confidence uint64 `json:"confidence"`
	Price      string `json:"price"`
}

type priceResponse struct {
	ID         uint32 `json:"id"`
	Confidence uint64 `json:"confidence"`
	Price      string `json:"price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("invalid address %q: expected %d bytes", raw, len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount.ToBig(), nil
}
