package fractional

import (
	"math/big"

	"watchvault/crypto"
)

// Token describes one fraction token series. A series is created when an
// asset is fractionalized and its full supply is burned on redemption; the
// series row itself survives as an audit record.
type Token struct {
	ID          uint64
	AssetID     uint64
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

// Clone returns a deep copy safe to hand outside the state layer.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	if t.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(t.TotalSupply)
	}
	return &clone
}

// Vault records the custody of one fractionalized asset. Live is false once
// the supply has been redeemed and the asset released.
type Vault struct {
	AssetID uint64
	TokenID uint64
	Curator crypto.Address
	Live    bool
}

// Clone returns a deep copy safe to hand outside the state layer.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}
