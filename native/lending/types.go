package lending

import (
	"math/big"

	"watchvault/crypto"
)

// Pool tracks the aggregate lending book. TotalPoolUSDC is the cash on hand;
// it dips while principal is outstanding and recovers with interest on
// repayment, which is how lender shares appreciate.
type Pool struct {
	TotalPoolUSDC *big.Int
	TotalShares   *big.Int
}

// Clone returns a deep copy safe to hand outside the state layer.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := &Pool{}
	if p.TotalPoolUSDC != nil {
		clone.TotalPoolUSDC = new(big.Int).Set(p.TotalPoolUSDC)
	}
	if p.TotalShares != nil {
		clone.TotalShares = new(big.Int).Set(p.TotalShares)
	}
	return clone
}

// EnsureDefaults backfills nil amounts with zero.
func (p *Pool) EnsureDefaults() {
	if p.TotalPoolUSDC == nil {
		p.TotalPoolUSDC = big.NewInt(0)
	}
	if p.TotalShares == nil {
		p.TotalShares = big.NewInt(0)
	}
}

// Loan records one collateralized borrow against an asset. A repaid loan
// stays on file; a new borrow against the same asset overwrites the current
// record and appends to the history index.
type Loan struct {
	AssetID   uint64
	Borrower  crypto.Address
	Principal *big.Int
	Repaid    bool
}

// Clone returns a deep copy safe to hand outside the state layer.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	}
	return &clone
}

// LenderPosition is the derived view of one lender's stake.
type LenderPosition struct {
	Shares    *big.Int
	USDCValue *big.Int
}
