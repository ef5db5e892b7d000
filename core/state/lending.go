package state

import (
	"math/big"

	"watchvault/crypto"
	"watchvault/native/lending"
)

type storedLendingPool struct {
	TotalPoolUSDC string
	TotalShares   string
}

type storedShares struct {
	Shares string
}

type storedLoan struct {
	AssetID   uint64
	Borrower  []byte
	Principal string
	Repaid    bool
}

type storedLoanHistory struct {
	Loans []storedLoan
}

// LendingPool returns the aggregate pool record, zeroed before first use.
func (m *Manager) LendingPool() (*lending.Pool, error) {
	var stored storedLendingPool
	exists, err := m.KVGet(lendingPoolKey(), &stored)
	if err != nil {
		return nil, err
	}
	pool := &lending.Pool{}
	if exists {
		if pool.TotalPoolUSDC, err = parseBig(stored.TotalPoolUSDC); err != nil {
			return nil, err
		}
		if pool.TotalShares, err = parseBig(stored.TotalShares); err != nil {
			return nil, err
		}
	}
	pool.EnsureDefaults()
	return pool, nil
}

// LendingSetPool persists the aggregate pool record.
func (m *Manager) LendingSetPool(pool *lending.Pool) error {
	pool.EnsureDefaults()
	stored := storedLendingPool{
		TotalPoolUSDC: formatBig(pool.TotalPoolUSDC),
		TotalShares:   formatBig(pool.TotalShares),
	}
	return m.KVPut(lendingPoolKey(), stored)
}

// LendingShares returns a lender's share balance.
func (m *Manager) LendingShares(lender crypto.Address) (*big.Int, error) {
	var stored storedShares
	exists, err := m.KVGet(lendingSharesKey(lender), &stored)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	return parseBig(stored.Shares)
}

// LendingSetShares persists a lender's share balance.
func (m *Manager) LendingSetShares(lender crypto.Address, shares *big.Int) error {
	return m.KVPut(lendingSharesKey(lender), storedShares{Shares: formatBig(shares)})
}

// LendingLoan returns the current loan record for an asset.
func (m *Manager) LendingLoan(assetID uint64) (*lending.Loan, bool, error) {
	var stored storedLoan
	exists, err := m.KVGet(lendingLoanKey(assetID), &stored)
	if err != nil || !exists {
		return nil, false, err
	}
	loan, err := loanFromStored(stored)
	if err != nil {
		return nil, false, err
	}
	return loan, true, nil
}

// LendingPutLoan persists the current loan record for an asset.
func (m *Manager) LendingPutLoan(loan *lending.Loan) error {
	return m.KVPut(lendingLoanKey(loan.AssetID), loanToStored(loan))
}

// LendingLoanHistory returns every loan taken against an asset, oldest first.
func (m *Manager) LendingLoanHistory(assetID uint64) ([]*lending.Loan, error) {
	var stored storedLoanHistory
	if _, err := m.KVGet(lendingLoanHistoryKey(assetID), &stored); err != nil {
		return nil, err
	}
	loans := make([]*lending.Loan, 0, len(stored.Loans))
	for _, entry := range stored.Loans {
		loan, err := loanFromStored(entry)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

// LendingAppendLoanHistory appends a loan snapshot to the asset's history.
func (m *Manager) LendingAppendLoanHistory(assetID uint64, loan *lending.Loan) error {
	var stored storedLoanHistory
	if _, err := m.KVGet(lendingLoanHistoryKey(assetID), &stored); err != nil {
		return err
	}
	stored.Loans = append(stored.Loans, loanToStored(loan))
	return m.KVPut(lendingLoanHistoryKey(assetID), stored)
}

func loanToStored(loan *lending.Loan) storedLoan {
	return storedLoan{
		AssetID:   loan.AssetID,
		Borrower:  loan.Borrower.Bytes(),
		Principal: formatBig(loan.Principal),
		Repaid:    loan.Repaid,
	}
}

func loanFromStored(stored storedLoan) (*lending.Loan, error) {
	principal, err := parseBig(stored.Principal)
	if err != nil {
		return nil, err
	}
	return &lending.Loan{
		AssetID:   stored.AssetID,
		Borrower:  crypto.MustNewAddress(crypto.WVPrefix, stored.Borrower),
		Principal: principal,
		Repaid:    stored.Repaid,
	}, nil
}
