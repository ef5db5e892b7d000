package state

import (
	"errors"
	"fmt"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"watchvault/storage/trie"
)

var errNilTrie = errors.New("state: trie not configured")

// Manager exposes typed accessors over the settlement trie. Engines see it
// through narrow per-module interfaces; the node rebinds a Manager to a trie
// copy for every speculative operation.
//
// All keys are keccak-hashed before hitting the trie and all values are
// RLP-encoded stored structs with big.Int fields rendered as decimal strings.
type Manager struct {
	trie *trie.Trie
}

// NewManager wraps the provided trie.
func NewManager(tr *trie.Trie) *Manager {
	return &Manager{trie: tr}
}

// Trie returns the underlying trie.
func (m *Manager) Trie() *trie.Trie {
	if m == nil {
		return nil
	}
	return m.trie
}

// KVGet loads and RLP-decodes the value at the raw key into out, reporting
// whether the key exists.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.trie == nil {
		return false, errNilTrie
	}
	raw, err := m.trie.Get(hashKey(key))
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if out != nil {
		if err := rlp.DecodeBytes(raw, out); err != nil {
			return false, fmt.Errorf("state: decode %q: %w", key, err)
		}
	}
	return true, nil
}

// KVPut RLP-encodes the value and stores it at the raw key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.trie == nil {
		return errNilTrie
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.trie.Update(hashKey(key), encoded)
}

// KVDelete removes the raw key from the trie.
func (m *Manager) KVDelete(key []byte) error {
	if m == nil || m.trie == nil {
		return errNilTrie
	}
	return m.trie.Update(hashKey(key), nil)
}

func hashKey(key []byte) []byte {
	return gethcrypto.Keccak256(key)
}

// formatBig renders a big.Int for storage; nil renders as zero.
func formatBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// parseBig restores a stored decimal string. An empty string is zero.
func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("state: malformed amount %q", s)
	}
	return v, nil
}
