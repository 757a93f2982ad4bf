package types

import "math/big"

// Account holds the chain-native balance and replay nonce for an identity.
// The tip ledger keeps its own per-recipient accounting on top of this; the
// account balance is what funds attached payments.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// EnsureAccount normalises a possibly-nil account into a usable value.
func EnsureAccount(acc *Account) *Account {
	if acc == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}
