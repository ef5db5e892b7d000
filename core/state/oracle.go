package state

import "math/big"

type storedPrice struct {
	Price string
}

type storedPriceIndex struct {
	IDs []uint64
}

// OraclePrice returns the posted price for an asset and whether one exists.
// A stored zero is distinct from absence.
func (m *Manager) OraclePrice(assetID uint64) (*big.Int, bool, error) {
	var stored storedPrice
	exists, err := m.KVGet(oraclePriceKey(assetID), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	price, err := parseBig(stored.Price)
	if err != nil {
		return nil, false, err
	}
	return price, true, nil
}

// OracleSetPrice persists the posted price for an asset.
func (m *Manager) OracleSetPrice(assetID uint64, price *big.Int) error {
	return m.KVPut(oraclePriceKey(assetID), storedPrice{Price: formatBig(price)})
}

// OraclePricedAssets returns the ids of every asset with a posted price.
func (m *Manager) OraclePricedAssets() ([]uint64, error) {
	var stored storedPriceIndex
	if _, err := m.KVGet(oracleIndexKey(), &stored); err != nil {
		return nil, err
	}
	return stored.IDs, nil
}

// OracleSetPricedAssets replaces the priced-asset index.
func (m *Manager) OracleSetPricedAssets(ids []uint64) error {
	return m.KVPut(oracleIndexKey(), storedPriceIndex{IDs: ids})
}
