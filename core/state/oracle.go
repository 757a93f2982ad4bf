package state

import (
	"encoding/binary"
	"math/big"

	"pizzachain/native/oracle"
)

type storedPrice struct {
	Confidence uint64
	Price      *big.Int
}

func priceKey(id uint32) []byte {
	var suffix [4]byte
	binary.BigEndian.PutUint32(suffix[:], id)
	return prefixedKey(oraclePricePrefix, suffix[:])
}

// OraclePriceGet loads the published price record for the id.
func (m *Manager) OraclePriceGet(id uint32) (*oracle.PizzaPrice, bool, error) {
	stored := new(storedPrice)
	found, err := m.KVGet(priceKey(id), stored)
	if err != nil || !found {
		return nil, false, err
	}
	return &oracle.PizzaPrice{Confidence: stored.Confidence, Price: stored.Price}, true, nil
}

// OraclePricePut persists a published price record.
func (m *Manager) OraclePricePut(id uint32, price *oracle.PizzaPrice) error {
	amount := big.NewInt(0)
	if price.Price != nil {
		amount = price.Price
	}
	return m.KVPut(priceKey(id), &storedPrice{Confidence: price.Confidence, Price: amount})
}
