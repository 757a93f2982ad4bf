package state

import (
	"math/big"

	"pizzachain/core/types"
)

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the account stored under the address, returning a fresh
// zero-balance account when none exists.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := new(storedAccount)
	found, err := m.KVGet(prefixedKey(accountPrefix, addr), stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return types.EnsureAccount(nil), nil
	}
	return types.EnsureAccount(&types.Account{Nonce: stored.Nonce, Balance: stored.Balance}), nil
}

// PutAccount persists the account under the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	account = types.EnsureAccount(account)
	return m.KVPut(prefixedKey(accountPrefix, addr), &storedAccount{
		Nonce:   account.Nonce,
		Balance: account.Balance,
	})
}
