package events

import (
	"math/big"

	"watchvault/core/types"
	"watchvault/crypto"
)

const (
	TypeLendingDeposited = "lending.deposited"
	TypeLendingWithdrawn = "lending.withdrawn"
	TypeLoanTaken        = "lending.loan_taken"
	TypeLoanRepaid       = "lending.loan_repaid"
)

// LendingDeposited is emitted when a lender supplies settlement tokens to the
// pool.
type LendingDeposited struct {
	Lender [20]byte
	Amount *big.Int
	Shares *big.Int
}

func (LendingDeposited) EventType() string { return TypeLendingDeposited }

func (e LendingDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingDeposited,
		Attributes: map[string]string{
			"lender": crypto.MustNewAddress(crypto.WVPrefix, e.Lender[:]).String(),
			"amount": formatAmount(e.Amount),
			"shares": formatAmount(e.Shares),
		},
	}
}

// LendingWithdrawn is emitted when a lender burns shares for settlement
// tokens.
type LendingWithdrawn struct {
	Lender [20]byte
	Shares *big.Int
	Amount *big.Int
}

func (LendingWithdrawn) EventType() string { return TypeLendingWithdrawn }

func (e LendingWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingWithdrawn,
		Attributes: map[string]string{
			"lender": crypto.MustNewAddress(crypto.WVPrefix, e.Lender[:]).String(),
			"shares": formatAmount(e.Shares),
			"amount": formatAmount(e.Amount),
		},
	}
}

// LoanTaken is emitted when an asset is locked as collateral and the principal
// is disbursed.
type LoanTaken struct {
	Borrower [20]byte
	AssetID  uint64
	Amount   *big.Int
}

func (LoanTaken) EventType() string { return TypeLoanTaken }

func (e LoanTaken) Event() *types.Event {
	return &types.Event{
		Type: TypeLoanTaken,
		Attributes: map[string]string{
			"borrower": crypto.MustNewAddress(crypto.WVPrefix, e.Borrower[:]).String(),
			"assetId":  uintToString(e.AssetID),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// LoanRepaid is emitted when a loan is settled and the collateral released.
type LoanRepaid struct {
	AssetID uint64
	Amount  *big.Int
}

func (LoanRepaid) EventType() string { return TypeLoanRepaid }

func (e LoanRepaid) Event() *types.Event {
	return &types.Event{
		Type: TypeLoanRepaid,
		Attributes: map[string]string{
			"assetId": uintToString(e.AssetID),
			"amount":  formatAmount(e.Amount),
		},
	}
}
