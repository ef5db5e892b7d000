package state

import (
	"math/big"

	"watchvault/crypto"
	"watchvault/native/fractional"
)

type storedFractionToken struct {
	ID          uint64
	AssetID     uint64
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply string
}

type storedFractionBalance struct {
	Amount string
}

type storedVault struct {
	AssetID uint64
	TokenID uint64
	Curator []byte
	Live    bool
}

// FractionalToken loads a fraction token series by id.
func (m *Manager) FractionalToken(tokenID uint64) (*fractional.Token, bool, error) {
	var stored storedFractionToken
	exists, err := m.KVGet(fractionalTokenKey(tokenID), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	supply, err := parseBig(stored.TotalSupply)
	if err != nil {
		return nil, false, err
	}
	return &fractional.Token{
		ID:          stored.ID,
		AssetID:     stored.AssetID,
		Name:        stored.Name,
		Symbol:      stored.Symbol,
		Decimals:    stored.Decimals,
		TotalSupply: supply,
	}, true, nil
}

// FractionalPutToken persists a fraction token series.
func (m *Manager) FractionalPutToken(token *fractional.Token) error {
	stored := storedFractionToken{
		ID:          token.ID,
		AssetID:     token.AssetID,
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		TotalSupply: formatBig(token.TotalSupply),
	}
	return m.KVPut(fractionalTokenKey(token.ID), stored)
}

// FractionalTokenCounter returns the last assigned series id.
func (m *Manager) FractionalTokenCounter() (uint64, error) {
	var counter uint64
	if _, err := m.KVGet(fractionalCounterKey(), &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// FractionalSetTokenCounter persists the last assigned series id.
func (m *Manager) FractionalSetTokenCounter(next uint64) error {
	return m.KVPut(fractionalCounterKey(), next)
}

// FractionalBalance returns an account's fraction balance in a series.
func (m *Manager) FractionalBalance(tokenID uint64, addr crypto.Address) (*big.Int, error) {
	var stored storedFractionBalance
	exists, err := m.KVGet(fractionalBalanceKey(tokenID, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return parseBig(stored.Amount)
}

// FractionalSetBalance persists an account's fraction balance in a series.
func (m *Manager) FractionalSetBalance(tokenID uint64, addr crypto.Address, amount *big.Int) error {
	return m.KVPut(fractionalBalanceKey(tokenID, addr), storedFractionBalance{Amount: formatBig(amount)})
}

// FractionalAllowance returns the remaining allowance from owner to spender.
func (m *Manager) FractionalAllowance(tokenID uint64, owner, spender crypto.Address) (*big.Int, error) {
	var stored storedFractionBalance
	exists, err := m.KVGet(fractionalAllowanceKey(tokenID, owner, spender), &stored)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return parseBig(stored.Amount)
}

// FractionalSetAllowance persists an allowance from owner to spender.
func (m *Manager) FractionalSetAllowance(tokenID uint64, owner, spender crypto.Address, amount *big.Int) error {
	return m.KVPut(fractionalAllowanceKey(tokenID, owner, spender), storedFractionBalance{Amount: formatBig(amount)})
}

// FractionalVault loads the vault record for an asset.
func (m *Manager) FractionalVault(assetID uint64) (*fractional.Vault, bool, error) {
	var stored storedVault
	exists, err := m.KVGet(fractionalVaultKey(assetID), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	return &fractional.Vault{
		AssetID: stored.AssetID,
		TokenID: stored.TokenID,
		Curator: crypto.MustNewAddress(crypto.WVPrefix, stored.Curator),
		Live:    stored.Live,
	}, true, nil
}

// FractionalPutVault persists the vault record for an asset.
func (m *Manager) FractionalPutVault(vault *fractional.Vault) error {
	stored := storedVault{
		AssetID: vault.AssetID,
		TokenID: vault.TokenID,
		Curator: vault.Curator.Bytes(),
		Live:    vault.Live,
	}
	return m.KVPut(fractionalVaultKey(vault.AssetID), stored)
}
