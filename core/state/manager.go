package state

import (
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"pizzachain/storage"
)

// Manager provides typed read/write access to module state over a raw
// key-value database. Keys are prefix-namespaced and keccak-hashed; values
// are RLP encoded. One manager instance is bound to one database view (the
// node binds a fresh overlay per invocation).
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	accountPrefix = []byte("account:")

	tipperMetaKey         = ethcrypto.Keccak256([]byte("tipper/meta"))
	tipperTipPrefix       = []byte("tipper/tip:")
	tipperSubmitterPrefix = []byte("tipper/submitter:")
	tipperSubmittersKey   = ethcrypto.Keccak256([]byte("tipper/submitters"))
	tipperBalancePrefix   = []byte("tipper/balance:")

	highlightsOwnerKey      = ethcrypto.Keccak256([]byte("highlights/owner"))
	highlightsPizzaPrefix   = []byte("highlights/pizza:")
	highlightsContentPrefix = []byte("highlights/content:")
	highlightsListKey       = ethcrypto.Keccak256([]byte("highlights/list"))

	oraclePricePrefix = []byte("oracle/price:")
)

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

// KVPut stores the value under the key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet retrieves the value stored under the key and RLP-decodes it into out.
// The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errors.New("state: manager not initialised")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the key, if any.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.db == nil {
		return errors.New("state: manager not initialised")
	}
	return m.db.Delete(key)
}
