package core

import (
	"math/big"

	"watchvault/core/state"
	"watchvault/crypto"
	"watchvault/native/amm"
	"watchvault/native/fractional"
	"watchvault/native/lending"
	"watchvault/native/oracle"
	"watchvault/native/registry"
)

// Asset registry operations.

// MintAsset registers a new asset and returns its id. Caller must be the
// configured mint authority.
func (n *Node) MintAsset(caller, owner crypto.Address, metadataURI string) (uint64, error) {
	var id uint64
	err := n.execute("registry", "mint", func(eng *engines, _ *state.Manager) error {
		var err error
		id, err = eng.registry.Mint(caller, owner, metadataURI)
		return err
	})
	return id, err
}

// TransferAsset moves asset ownership. Caller must be the owner or the
// approved operator.
func (n *Node) TransferAsset(caller, from, to crypto.Address, assetID uint64) error {
	return n.execute("registry", "transfer", func(eng *engines, _ *state.Manager) error {
		return eng.registry.Transfer(caller, from, to, assetID)
	})
}

// ApproveAsset designates an operator for one asset.
func (n *Node) ApproveAsset(caller, operator crypto.Address, assetID uint64) error {
	return n.execute("registry", "approve", func(eng *engines, _ *state.Manager) error {
		return eng.registry.Approve(caller, operator, assetID)
	})
}

// GetAsset returns the asset record.
func (n *Node) GetAsset(assetID uint64) (*registry.Asset, error) {
	var asset *registry.Asset
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		asset, err = eng.registry.Get(assetID)
		return err
	})
	return asset, err
}

// AssetOwner returns the current owner of an asset.
func (n *Node) AssetOwner(assetID uint64) (crypto.Address, error) {
	var owner crypto.Address
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		owner, err = eng.registry.OwnerOf(assetID)
		return err
	})
	return owner, err
}

// AssetsOwnedBy returns the ids of every asset held by an address.
func (n *Node) AssetsOwnedBy(owner crypto.Address) ([]uint64, error) {
	var ids []uint64
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		ids, err = eng.registry.AssetsOwnedBy(owner)
		return err
	})
	return ids, err
}

// Oracle operations.

// SetPrice posts an asset valuation. Caller must be the oracle writer.
func (n *Node) SetPrice(caller crypto.Address, assetID uint64, price *big.Int) error {
	return n.execute("oracle", "setPrice", func(eng *engines, _ *state.Manager) error {
		return eng.oracle.SetPrice(caller, assetID, price)
	})
}

// GetPrice returns the last posted valuation for an asset.
func (n *Node) GetPrice(assetID uint64) (*big.Int, error) {
	var price *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		price, err = eng.oracle.GetPrice(assetID)
		return err
	})
	return price, err
}

// ListPrices returns every posted quote ordered by asset id.
func (n *Node) ListPrices() ([]oracle.Quote, error) {
	var quotes []oracle.Quote
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		quotes, err = eng.oracle.ListPrices()
		return err
	})
	return quotes, err
}

// Lending operations.

// LendingDeposit supplies settlement tokens to the pool, returning the minted
// shares.
func (n *Node) LendingDeposit(lender crypto.Address, amount *big.Int) (*big.Int, error) {
	var shares *big.Int
	err := n.execute("lending", "deposit", func(eng *engines, _ *state.Manager) error {
		var err error
		shares, err = eng.lending.Deposit(lender, amount)
		return err
	})
	return shares, err
}

// LendingWithdraw burns shares for settlement tokens, returning the payout.
func (n *Node) LendingWithdraw(lender crypto.Address, shares *big.Int) (*big.Int, error) {
	var amount *big.Int
	err := n.execute("lending", "withdraw", func(eng *engines, _ *state.Manager) error {
		var err error
		amount, err = eng.lending.Withdraw(lender, shares)
		return err
	})
	return amount, err
}

// DepositNFTAndBorrow locks the asset as collateral and disburses principal.
func (n *Node) DepositNFTAndBorrow(borrower crypto.Address, assetID uint64) (*big.Int, error) {
	var principal *big.Int
	err := n.execute("lending", "depositNFTAndBorrow", func(eng *engines, _ *state.Manager) error {
		var err error
		principal, err = eng.lending.DepositNFTAndBorrow(borrower, assetID)
		return err
	})
	return principal, err
}

// RepayLoan settles the active loan, returning the amount paid.
func (n *Node) RepayLoan(caller crypto.Address, assetID uint64) (*big.Int, error) {
	var repayment *big.Int
	err := n.execute("lending", "repayLoan", func(eng *engines, _ *state.Manager) error {
		var err error
		repayment, err = eng.lending.RepayLoan(caller, assetID)
		return err
	})
	return repayment, err
}

// GetRepaymentAmount quotes the settlement cost of the active loan.
func (n *Node) GetRepaymentAmount(assetID uint64) (*big.Int, error) {
	var amount *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		amount, err = eng.lending.GetRepaymentAmount(assetID)
		return err
	})
	return amount, err
}

// GetLoan returns the current loan record for an asset.
func (n *Node) GetLoan(assetID uint64) (*lending.Loan, error) {
	var loan *lending.Loan
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		loan, err = eng.lending.GetLoan(assetID)
		return err
	})
	return loan, err
}

// GetLender returns a lender's shares and their derived value.
func (n *Node) GetLender(lender crypto.Address) (*lending.LenderPosition, error) {
	var position *lending.LenderPosition
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		position, err = eng.lending.GetLender(lender)
		return err
	})
	return position, err
}

// GetPoolInfo returns the aggregate lending pool totals.
func (n *Node) GetPoolInfo() (*lending.Pool, error) {
	var pool *lending.Pool
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		pool, err = eng.lending.GetPoolInfo()
		return err
	})
	return pool, err
}

// LoanHistory returns every loan taken against an asset, oldest first.
func (n *Node) LoanHistory(assetID uint64) ([]*lending.Loan, error) {
	var history []*lending.Loan
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		history, err = eng.lending.LoanHistory(assetID)
		return err
	})
	return history, err
}

// Fractionalization operations.

// Fractionalize locks the asset and mints a fresh fraction series to the
// caller, returning the series id.
func (n *Node) Fractionalize(caller crypto.Address, assetID uint64, totalShares *big.Int) (uint64, error) {
	var tokenID uint64
	err := n.execute("fractional", "fractionalize", func(eng *engines, _ *state.Manager) error {
		var err error
		tokenID, err = eng.fractional.Fractionalize(caller, assetID, totalShares)
		return err
	})
	return tokenID, err
}

// Redeem burns the caller's full fraction supply and releases the asset.
func (n *Node) Redeem(caller crypto.Address, assetID uint64) error {
	return n.execute("fractional", "redeem", func(eng *engines, _ *state.Manager) error {
		return eng.fractional.Redeem(caller, assetID)
	})
}

// GetFractionalizer returns the live fraction series id for an asset, zero
// when none exists.
func (n *Node) GetFractionalizer(assetID uint64) (uint64, error) {
	var tokenID uint64
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		tokenID, err = eng.fractional.GetFractionalizer(assetID)
		return err
	})
	return tokenID, err
}

// GetFractionToken returns the metadata of a fraction series.
func (n *Node) GetFractionToken(tokenID uint64) (*fractional.Token, error) {
	var token *fractional.Token
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		token, err = eng.fractional.GetToken(tokenID)
		return err
	})
	return token, err
}

// FractionTransfer moves fractions between accounts.
func (n *Node) FractionTransfer(caller crypto.Address, tokenID uint64, to crypto.Address, amount *big.Int) error {
	return n.execute("fractional", "transfer", func(eng *engines, _ *state.Manager) error {
		return eng.fractional.Transfer(caller, tokenID, to, amount)
	})
}

// FractionApprove grants spending rights on the caller's fractions.
func (n *Node) FractionApprove(owner crypto.Address, tokenID uint64, spender crypto.Address, amount *big.Int) error {
	return n.execute("fractional", "approve", func(eng *engines, _ *state.Manager) error {
		return eng.fractional.Approve(owner, tokenID, spender, amount)
	})
}

// FractionTransferFrom spends an allowance to move fractions.
func (n *Node) FractionTransferFrom(spender crypto.Address, tokenID uint64, from, to crypto.Address, amount *big.Int) error {
	return n.execute("fractional", "transferFrom", func(eng *engines, _ *state.Manager) error {
		return eng.fractional.TransferFrom(spender, tokenID, from, to, amount)
	})
}

// FractionBalanceOf returns the fraction balance of an account.
func (n *Node) FractionBalanceOf(tokenID uint64, addr crypto.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		balance, err = eng.fractional.BalanceOf(tokenID, addr)
		return err
	})
	return balance, err
}

// FractionAllowance returns the remaining allowance from owner to spender.
func (n *Node) FractionAllowance(tokenID uint64, owner, spender crypto.Address) (*big.Int, error) {
	var allowance *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		allowance, err = eng.fractional.Allowance(tokenID, owner, spender)
		return err
	})
	return allowance, err
}

// FractionTotalSupply returns the outstanding supply of a series.
func (n *Node) FractionTotalSupply(tokenID uint64) (*big.Int, error) {
	var supply *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		supply, err = eng.fractional.TotalSupply(tokenID)
		return err
	})
	return supply, err
}

// AMM operations.

// CreateAMMPool registers an empty market for a fraction series.
func (n *Node) CreateAMMPool(caller crypto.Address, assetID, tokenID, feeBps uint64, admin crypto.Address) error {
	return n.execute("amm", "createPool", func(eng *engines, _ *state.Manager) error {
		return eng.amm.CreatePool(caller, assetID, tokenID, feeBps, admin)
	})
}

// AddLiquidity deposits both legs into the pool, returning the minted LP
// shares.
func (n *Node) AddLiquidity(provider crypto.Address, assetID uint64, fractionAmount, usdcAmount *big.Int) (*big.Int, error) {
	var shares *big.Int
	err := n.execute("amm", "addLiquidity", func(eng *engines, _ *state.Manager) error {
		var err error
		shares, err = eng.amm.AddLiquidity(provider, assetID, fractionAmount, usdcAmount)
		return err
	})
	return shares, err
}

// RemoveLiquidity burns LP shares for a pro-rata slice of both reserves.
func (n *Node) RemoveLiquidity(provider crypto.Address, assetID uint64, shares *big.Int) (fractionOut, usdcOut *big.Int, err error) {
	err = n.execute("amm", "removeLiquidity", func(eng *engines, _ *state.Manager) error {
		var innerErr error
		fractionOut, usdcOut, innerErr = eng.amm.RemoveLiquidity(provider, assetID, shares)
		return innerErr
	})
	return fractionOut, usdcOut, err
}

// SwapUSDCForFraction trades settlement tokens for fractions.
func (n *Node) SwapUSDCForFraction(trader crypto.Address, assetID uint64, amountIn, minOut *big.Int) (*big.Int, error) {
	var amountOut *big.Int
	err := n.execute("amm", "swapUSDCForFraction", func(eng *engines, _ *state.Manager) error {
		var err error
		amountOut, err = eng.amm.SwapUSDCForFraction(trader, assetID, amountIn, minOut)
		return err
	})
	return amountOut, err
}

// SwapFractionForUSDC trades fractions for settlement tokens.
func (n *Node) SwapFractionForUSDC(trader crypto.Address, assetID uint64, amountIn, minOut *big.Int) (*big.Int, error) {
	var amountOut *big.Int
	err := n.execute("amm", "swapFractionForUSDC", func(eng *engines, _ *state.Manager) error {
		var err error
		amountOut, err = eng.amm.SwapFractionForUSDC(trader, assetID, amountIn, minOut)
		return err
	})
	return amountOut, err
}

// GetAMMPool returns the pool trading an asset's fractions.
func (n *Node) GetAMMPool(assetID uint64) (*amm.Pool, error) {
	var pool *amm.Pool
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		pool, err = eng.amm.GetPool(assetID)
		return err
	})
	return pool, err
}

// ListAMMPools returns every pool in creation order.
func (n *Node) ListAMMPools() ([]*amm.Pool, error) {
	var pools []*amm.Pool
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		pools, err = eng.amm.ListPools()
		return err
	})
	return pools, err
}

// LPBalance returns a provider's LP shares in a pool.
func (n *Node) LPBalance(assetID uint64, provider crypto.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(eng *engines, _ *state.Manager) error {
		var err error
		balance, err = eng.amm.LPBalance(assetID, provider)
		return err
	})
	return balance, err
}
