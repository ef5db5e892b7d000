package types

import "math/big"

// Account holds the settlement-token position for a participant or a module
// treasury. BalanceUSDC is denominated in wei-style fixed point with 18
// fractional digits.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalanceUSDC *big.Int `json:"balanceUSDC"`
}

// EnsureDefaults initialises nil balance fields so callers can mutate the
// account without nil checks.
func (a *Account) EnsureDefaults() *Account {
	if a == nil {
		return &Account{BalanceUSDC: big.NewInt(0)}
	}
	if a.BalanceUSDC == nil {
		a.BalanceUSDC = big.NewInt(0)
	}
	return a
}
