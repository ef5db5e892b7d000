package events

import (
	"watchvault/core/types"
	"watchvault/crypto"
)

const (
	TypeAssetMinted      = "registry.minted"
	TypeAssetTransferred = "registry.transferred"
	TypeAssetApproved    = "registry.approved"
)

// AssetMinted is emitted when a new asset enters the registry.
type AssetMinted struct {
	AssetID     uint64
	Owner       [20]byte
	MetadataURI string
}

// EventType implements the Event interface.
func (AssetMinted) EventType() string { return TypeAssetMinted }

// Event converts the mint record to the generic representation.
func (e AssetMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetMinted,
		Attributes: map[string]string{
			"assetId": uintToString(e.AssetID),
			"owner":   crypto.MustNewAddress(crypto.WVPrefix, e.Owner[:]).String(),
			"uri":     e.MetadataURI,
		},
	}
}

// AssetTransferred is emitted on every ownership change, including collateral
// locks and vault custody moves.
type AssetTransferred struct {
	AssetID uint64
	From    [20]byte
	To      [20]byte
}

func (AssetTransferred) EventType() string { return TypeAssetTransferred }

func (e AssetTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetTransferred,
		Attributes: map[string]string{
			"assetId": uintToString(e.AssetID),
			"from":    crypto.MustNewAddress(crypto.WVPrefix, e.From[:]).String(),
			"to":      crypto.MustNewAddress(crypto.WVPrefix, e.To[:]).String(),
		},
	}
}

// AssetApproved is emitted when an operator is approved for an asset.
type AssetApproved struct {
	AssetID  uint64
	Owner    [20]byte
	Operator [20]byte
}

func (AssetApproved) EventType() string { return TypeAssetApproved }

func (e AssetApproved) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetApproved,
		Attributes: map[string]string{
			"assetId":  uintToString(e.AssetID),
			"owner":    crypto.MustNewAddress(crypto.WVPrefix, e.Owner[:]).String(),
			"operator": crypto.MustNewAddress(crypto.WVPrefix, e.Operator[:]).String(),
		},
	}
}
