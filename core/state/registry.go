package state

import (
	"watchvault/crypto"
	"watchvault/native/registry"
)

type storedAsset struct {
	ID          uint64
	Owner       []byte
	MetadataURI string
}

type storedApproval struct {
	Operator []byte
}

type storedOwnerIndex struct {
	IDs []uint64
}

// RegistryGetAsset loads an asset record by id.
func (m *Manager) RegistryGetAsset(id uint64) (*registry.Asset, bool, error) {
	var stored storedAsset
	exists, err := m.KVGet(registryAssetKey(id), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	return &registry.Asset{
		ID:          stored.ID,
		Owner:       crypto.MustNewAddress(crypto.WVPrefix, stored.Owner),
		MetadataURI: stored.MetadataURI,
	}, true, nil
}

// RegistryPutAsset persists an asset record.
func (m *Manager) RegistryPutAsset(asset *registry.Asset) error {
	stored := storedAsset{
		ID:          asset.ID,
		Owner:       asset.Owner.Bytes(),
		MetadataURI: asset.MetadataURI,
	}
	return m.KVPut(registryAssetKey(asset.ID), stored)
}

// RegistryCounter returns the last assigned asset id; zero before any mint.
func (m *Manager) RegistryCounter() (uint64, error) {
	var counter uint64
	if _, err := m.KVGet(registryCounterKey(), &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// RegistrySetCounter persists the last assigned asset id.
func (m *Manager) RegistrySetCounter(next uint64) error {
	return m.KVPut(registryCounterKey(), next)
}

// RegistryApproval returns the approved operator for an asset, if any.
func (m *Manager) RegistryApproval(id uint64) (crypto.Address, bool, error) {
	var stored storedApproval
	exists, err := m.KVGet(registryApprovalKey(id), &stored)
	if err != nil || !exists {
		return crypto.Address{}, false, err
	}
	return crypto.MustNewAddress(crypto.WVPrefix, stored.Operator), true, nil
}

// RegistrySetApproval persists the approved operator for an asset.
func (m *Manager) RegistrySetApproval(id uint64, operator crypto.Address) error {
	return m.KVPut(registryApprovalKey(id), storedApproval{Operator: operator.Bytes()})
}

// RegistryClearApproval removes any approval for an asset.
func (m *Manager) RegistryClearApproval(id uint64) error {
	return m.KVDelete(registryApprovalKey(id))
}

// RegistryOwnerIndex returns the ordered asset ids owned by an address.
func (m *Manager) RegistryOwnerIndex(owner crypto.Address) ([]uint64, error) {
	var stored storedOwnerIndex
	if _, err := m.KVGet(registryOwnerIndexKey(owner), &stored); err != nil {
		return nil, err
	}
	return stored.IDs, nil
}

// RegistrySetOwnerIndex replaces the owner's asset-id index.
func (m *Manager) RegistrySetOwnerIndex(owner crypto.Address, ids []uint64) error {
	return m.KVPut(registryOwnerIndexKey(owner), storedOwnerIndex{IDs: ids})
}
