package state

import (
	"encoding/binary"
	"math/big"

	"pizzachain/native/tipper"
)

type storedTip struct {
	From    [20]byte
	To      [20]byte
	Pizzas  uint32
	Message string
}

type storedTipperMeta struct {
	NextID     uint32
	Records    uint32
	Terminated bool
}

func tipKey(id uint32) []byte {
	var suffix [4]byte
	binary.BigEndian.PutUint32(suffix[:], id)
	return prefixedKey(tipperTipPrefix, suffix[:])
}

// TipperMetaGet loads the ledger's allocation counters, zeroed when the
// ledger has never written state.
func (m *Manager) TipperMetaGet() (*tipper.Meta, error) {
	stored := new(storedTipperMeta)
	if _, err := m.KVGet(tipperMetaKey, stored); err != nil {
		return nil, err
	}
	return &tipper.Meta{NextID: stored.NextID, Records: stored.Records, Terminated: stored.Terminated}, nil
}

// TipperMetaPut persists the ledger's allocation counters.
func (m *Manager) TipperMetaPut(meta *tipper.Meta) error {
	return m.KVPut(tipperMetaKey, &storedTipperMeta{
		NextID:     meta.NextID,
		Records:    meta.Records,
		Terminated: meta.Terminated,
	})
}

// TipperTipGet loads the record stored under the sequence id.
func (m *Manager) TipperTipGet(id uint32) (*tipper.Tip, bool, error) {
	stored := new(storedTip)
	found, err := m.KVGet(tipKey(id), stored)
	if err != nil || !found {
		return nil, false, err
	}
	return &tipper.Tip{From: stored.From, To: stored.To, Pizzas: stored.Pizzas, Message: stored.Message}, true, nil
}

// TipperTipPut persists a record under its sequence id.
func (m *Manager) TipperTipPut(id uint32, tip *tipper.Tip) error {
	return m.KVPut(tipKey(id), &storedTip{
		From:    tip.From,
		To:      tip.To,
		Pizzas:  tip.Pizzas,
		Message: tip.Message,
	})
}

// TipperSubmitterIDGet loads the active tip id for the submitter.
func (m *Manager) TipperSubmitterIDGet(addr [20]byte) (uint32, bool, error) {
	var id uint32
	found, err := m.KVGet(prefixedKey(tipperSubmitterPrefix, addr[:]), &id)
	return id, found, err
}

// TipperSubmitterIDPut indexes the submitter's active tip id.
func (m *Manager) TipperSubmitterIDPut(addr [20]byte, id uint32) error {
	return m.KVPut(prefixedKey(tipperSubmitterPrefix, addr[:]), id)
}

// TipperSubmittersGet loads the insertion-ordered audit list of submitters.
func (m *Manager) TipperSubmittersGet() ([][20]byte, error) {
	var list [][20]byte
	if _, err := m.KVGet(tipperSubmittersKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// TipperSubmittersPut persists the audit list of submitters.
func (m *Manager) TipperSubmittersPut(list [][20]byte) error {
	return m.KVPut(tipperSubmittersKey, list)
}

// TipperBalanceGet loads the ledger-local balance for the address, zero when
// absent.
func (m *Manager) TipperBalanceGet(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	found, err := m.KVGet(prefixedKey(tipperBalancePrefix, addr[:]), balance)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// TipperBalanceSet persists the ledger-local balance for the address.
func (m *Manager) TipperBalanceSet(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.KVPut(prefixedKey(tipperBalancePrefix, addr[:]), amount)
}
