package state

import (
	"math/big"

	"watchvault/crypto"
	"watchvault/native/amm"
)

type storedAMMPool struct {
	AssetID         uint64
	TokenID         uint64
	FractionReserve string
	USDCReserve     string
	TotalLPShares   string
	FeeBps          uint64
	Admin           []byte
}

type storedAMMIndex struct {
	AssetID uint64
}

type storedAMMList struct {
	IDs []uint64
}

// AMMPool loads the pool keyed by asset id.
func (m *Manager) AMMPool(assetID uint64) (*amm.Pool, bool, error) {
	var stored storedAMMPool
	exists, err := m.KVGet(ammPoolKey(assetID), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	pool := &amm.Pool{
		AssetID: stored.AssetID,
		TokenID: stored.TokenID,
		FeeBps:  stored.FeeBps,
		Admin:   crypto.MustNewAddress(crypto.WVPrefix, stored.Admin),
	}
	if pool.FractionReserve, err = parseBig(stored.FractionReserve); err != nil {
		return nil, false, err
	}
	if pool.USDCReserve, err = parseBig(stored.USDCReserve); err != nil {
		return nil, false, err
	}
	if pool.TotalLPShares, err = parseBig(stored.TotalLPShares); err != nil {
		return nil, false, err
	}
	return pool, true, nil
}

// AMMPutPool persists a pool record.
func (m *Manager) AMMPutPool(pool *amm.Pool) error {
	pool.EnsureDefaults()
	stored := storedAMMPool{
		AssetID:         pool.AssetID,
		TokenID:         pool.TokenID,
		FractionReserve: formatBig(pool.FractionReserve),
		USDCReserve:     formatBig(pool.USDCReserve),
		TotalLPShares:   formatBig(pool.TotalLPShares),
		FeeBps:          pool.FeeBps,
		Admin:           pool.Admin.Bytes(),
	}
	return m.KVPut(ammPoolKey(pool.AssetID), stored)
}

// AMMPoolByToken resolves the asset id of the pool trading a fraction series.
func (m *Manager) AMMPoolByToken(tokenID uint64) (uint64, bool, error) {
	var stored storedAMMIndex
	exists, err := m.KVGet(ammPoolByTokenKey(tokenID), &stored)
	if err != nil || !exists {
		return 0, false, err
	}
	return stored.AssetID, true, nil
}

// AMMSetPoolByToken persists the token-to-pool index entry.
func (m *Manager) AMMSetPoolByToken(tokenID, assetID uint64) error {
	return m.KVPut(ammPoolByTokenKey(tokenID), storedAMMIndex{AssetID: assetID})
}

// AMMLPBalance returns a provider's LP shares in a pool.
func (m *Manager) AMMLPBalance(assetID uint64, addr crypto.Address) (*big.Int, error) {
	var stored storedFractionBalance
	exists, err := m.KVGet(ammLPBalanceKey(assetID, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return parseBig(stored.Amount)
}

// AMMSetLPBalance persists a provider's LP shares in a pool.
func (m *Manager) AMMSetLPBalance(assetID uint64, addr crypto.Address, amount *big.Int) error {
	return m.KVPut(ammLPBalanceKey(assetID, addr), storedFractionBalance{Amount: formatBig(amount)})
}

// AMMPoolList returns the asset ids of every pool in creation order.
func (m *Manager) AMMPoolList() ([]uint64, error) {
	var stored storedAMMList
	if _, err := m.KVGet(ammPoolListKey(), &stored); err != nil {
		return nil, err
	}
	return stored.IDs, nil
}

// AMMSetPoolList replaces the pool list.
func (m *Manager) AMMSetPoolList(ids []uint64) error {
	return m.KVPut(ammPoolListKey(), storedAMMList{IDs: ids})
}
