package events

import (
	"math/big"

	"watchvault/core/types"
	"watchvault/crypto"
)

const (
	TypeFractionalized = "fractional.fractionalized"
	TypeRedeemed       = "fractional.redeemed"
)

// Fractionalized is emitted when an asset is locked in a vault and its
// fraction supply minted.
type Fractionalized struct {
	AssetID     uint64
	TokenID     uint64
	Owner       [20]byte
	TotalShares *big.Int
}

func (Fractionalized) EventType() string { return TypeFractionalized }

func (e Fractionalized) Event() *types.Event {
	return &types.Event{
		Type: TypeFractionalized,
		Attributes: map[string]string{
			"assetId":     uintToString(e.AssetID),
			"tokenId":     uintToString(e.TokenID),
			"owner":       crypto.MustNewAddress(crypto.WVPrefix, e.Owner[:]).String(),
			"totalShares": formatAmount(e.TotalShares),
		},
	}
}

// Redeemed is emitted when the full fraction supply is burned and the asset
// returned.
type Redeemed struct {
	AssetID  uint64
	Redeemer [20]byte
}

func (Redeemed) EventType() string { return TypeRedeemed }

func (e Redeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeRedeemed,
		Attributes: map[string]string{
			"assetId":  uintToString(e.AssetID),
			"redeemer": crypto.MustNewAddress(crypto.WVPrefix, e.Redeemer[:]).String(),
		},
	}
}
