package fractional

import (
	"math/big"

	"watchvault/crypto"
	nativecommon "watchvault/native/common"
)

// Fraction token ledger. Every series shares one balance table keyed by
// (tokenID, address); conservation holds per series: the sum of balances
// always equals TotalSupply.

// Transfer moves fractions from the caller to the recipient.
func (e *Engine) Transfer(caller crypto.Address, tokenID uint64, to crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	return e.move(tokenID, caller, to, amount)
}

// Approve lets spender move up to amount of the owner's fractions. Setting a
// new allowance overwrites the previous one.
func (e *Engine) Approve(owner crypto.Address, tokenID uint64, spender crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return errZeroAmount
	}
	if _, ok, err := e.state.FractionalToken(tokenID); err != nil {
		return err
	} else if !ok {
		return errUnknownToken
	}
	return e.state.FractionalSetAllowance(tokenID, owner, spender, new(big.Int).Set(amount))
}

// TransferFrom moves fractions out of the from account using the spender's
// allowance, which is reduced by the amount moved.
func (e *Engine) TransferFrom(spender crypto.Address, tokenID uint64, from, to crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return errZeroAmount
	}
	allowance, err := e.state.FractionalAllowance(tokenID, from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errInsufficientAllowance
	}
	if err := e.move(tokenID, from, to, amount); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(allowance, amount)
	return e.state.FractionalSetAllowance(tokenID, from, spender, remaining)
}

// BalanceOf returns the fraction balance of an account.
func (e *Engine) BalanceOf(tokenID uint64, addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.FractionalBalance(tokenID, addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(balance), nil
}

// Allowance returns the remaining amount spender may move from owner.
func (e *Engine) Allowance(tokenID uint64, owner, spender crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	allowance, err := e.state.FractionalAllowance(tokenID, owner, spender)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(allowance), nil
}

// TotalSupply returns the outstanding supply of a series. Zero after
// redemption.
func (e *Engine) TotalSupply(tokenID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	token, ok, err := e.state.FractionalToken(tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errUnknownToken
	}
	return new(big.Int).Set(token.TotalSupply), nil
}

func (e *Engine) move(tokenID uint64, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errZeroAmount
	}
	if _, ok, err := e.state.FractionalToken(tokenID); err != nil {
		return err
	} else if !ok {
		return errUnknownToken
	}
	fromBal, err := e.state.FractionalBalance(tokenID, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	// A self-transfer must not double-count: both legs write the same key.
	if from.Equal(to) {
		return nil
	}
	toBal, err := e.state.FractionalBalance(tokenID, to)
	if err != nil {
		return err
	}
	if err := e.state.FractionalSetBalance(tokenID, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return e.state.FractionalSetBalance(tokenID, to, new(big.Int).Add(toBal, amount))
}
