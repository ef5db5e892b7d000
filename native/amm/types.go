package amm

import (
	"math/big"

	"watchvault/crypto"
)

// Pool is one constant-product market pairing a fraction token with the
// settlement token. Reserves are tracked in state, not read from balances, so
// direct transfers to the treasury cannot skew pricing.
type Pool struct {
	AssetID         uint64
	TokenID         uint64
	FractionReserve *big.Int
	USDCReserve     *big.Int
	TotalLPShares   *big.Int
	FeeBps          uint64
	Admin           crypto.Address
}

// Clone returns a deep copy safe to hand outside the state layer.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.FractionReserve != nil {
		clone.FractionReserve = new(big.Int).Set(p.FractionReserve)
	}
	if p.USDCReserve != nil {
		clone.USDCReserve = new(big.Int).Set(p.USDCReserve)
	}
	if p.TotalLPShares != nil {
		clone.TotalLPShares = new(big.Int).Set(p.TotalLPShares)
	}
	return &clone
}

// EnsureDefaults backfills nil amounts with zero.
func (p *Pool) EnsureDefaults() {
	if p.FractionReserve == nil {
		p.FractionReserve = big.NewInt(0)
	}
	if p.USDCReserve == nil {
		p.USDCReserve = big.NewInt(0)
	}
	if p.TotalLPShares == nil {
		p.TotalLPShares = big.NewInt(0)
	}
}
