package events

import (
	"math/big"

	"watchvault/core/types"
	"watchvault/crypto"
)

const (
	TypePoolCreated      = "amm.pool_created"
	TypeSwap             = "amm.swap"
	TypeLiquidityAdded   = "amm.liquidity_added"
	TypeLiquidityRemoved = "amm.liquidity_removed"
)

// Swap directions as recorded in event attributes.
const (
	SwapDirectionUSDCForFraction = "usdc_for_fraction"
	SwapDirectionFractionForUSDC = "fraction_for_usdc"
)

// PoolCreated is emitted when a new constant-product pool is registered for a
// fraction token.
type PoolCreated struct {
	AssetID uint64
	TokenID uint64
	FeeBps  uint64
	Admin   [20]byte
}

func (PoolCreated) EventType() string { return TypePoolCreated }

func (e PoolCreated) Event() *types.Event {
	return &types.Event{
		Type: TypePoolCreated,
		Attributes: map[string]string{
			"assetId": uintToString(e.AssetID),
			"tokenId": uintToString(e.TokenID),
			"feeBps":  uintToString(e.FeeBps),
			"admin":   crypto.MustNewAddress(crypto.WVPrefix, e.Admin[:]).String(),
		},
	}
}

// Swap is emitted for every executed swap, either direction.
type Swap struct {
	AssetID   uint64
	Trader    [20]byte
	Direction string
	AmountIn  *big.Int
	AmountOut *big.Int
}

func (Swap) EventType() string { return TypeSwap }

func (e Swap) Event() *types.Event {
	return &types.Event{
		Type: TypeSwap,
		Attributes: map[string]string{
			"assetId":   uintToString(e.AssetID),
			"trader":    crypto.MustNewAddress(crypto.WVPrefix, e.Trader[:]).String(),
			"direction": e.Direction,
			"amountIn":  formatAmount(e.AmountIn),
			"amountOut": formatAmount(e.AmountOut),
		},
	}
}

// LiquidityAdded is emitted when a provider deposits both legs into a pool.
type LiquidityAdded struct {
	AssetID        uint64
	Provider       [20]byte
	FractionAmount *big.Int
	USDCAmount     *big.Int
	Shares         *big.Int
}

func (LiquidityAdded) EventType() string { return TypeLiquidityAdded }

func (e LiquidityAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeLiquidityAdded,
		Attributes: map[string]string{
			"assetId":  uintToString(e.AssetID),
			"provider": crypto.MustNewAddress(crypto.WVPrefix, e.Provider[:]).String(),
			"fraction": formatAmount(e.FractionAmount),
			"usdc":     formatAmount(e.USDCAmount),
			"shares":   formatAmount(e.Shares),
		},
	}
}

// LiquidityRemoved is emitted when a provider burns LP shares for both legs.
type LiquidityRemoved struct {
	AssetID        uint64
	Provider       [20]byte
	FractionAmount *big.Int
	USDCAmount     *big.Int
	Shares         *big.Int
}

func (LiquidityRemoved) EventType() string { return TypeLiquidityRemoved }

func (e LiquidityRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeLiquidityRemoved,
		Attributes: map[string]string{
			"assetId":  uintToString(e.AssetID),
			"provider": crypto.MustNewAddress(crypto.WVPrefix, e.Provider[:]).String(),
			"fraction": formatAmount(e.FractionAmount),
			"usdc":     formatAmount(e.USDCAmount),
			"shares":   formatAmount(e.Shares),
		},
	}
}
