package lending

import (
	"errors"
	"fmt"
	"math/big"

	"watchvault/core/events"
	"watchvault/crypto"
	nativecommon "watchvault/native/common"
	"watchvault/native/oracle"
)

var (
	errNilState                  = errors.New("lending engine: state not configured")
	errNilRegistry               = errors.New("lending engine: registry not configured")
	errNilOracle                 = errors.New("lending engine: oracle not configured")
	errZeroAmount                = errors.New("lending engine: amount must be positive")
	errInsufficientShares        = errors.New("lending engine: insufficient lender shares")
	errInsufficientPoolLiquidity = errors.New("lending engine: insufficient pool liquidity")
	errNotOwner                  = errors.New("lending engine: borrower does not own the asset")
	errOraclePriceNotSet         = errors.New("lending engine: oracle price not set for collateral")
	errZeroPrincipal             = errors.New("lending engine: collateral value too low to borrow against")
	errPoolDrained               = errors.New("lending engine: pool cash exhausted, deposits resume after repayment")
	errLoanActive                = errors.New("lending engine: active loan already exists for asset")
	errNoActiveLoan              = errors.New("lending engine: no active loan for asset")
	errNoLoan                    = errors.New("lending engine: no loan recorded for asset")
)

// Exported error aliases for collaborators and RPC handlers.
var (
	ErrZeroAmount                = errZeroAmount
	ErrInsufficientShares        = errInsufficientShares
	ErrInsufficientPoolLiquidity = errInsufficientPoolLiquidity
	ErrPoolDrained               = errPoolDrained
	ErrNotOwner                  = errNotOwner
	ErrOraclePriceNotSet         = errOraclePriceNotSet
	ErrLoanActive                = errLoanActive
	ErrNoActiveLoan              = errNoActiveLoan
	ErrNoLoan                    = errNoLoan
)

const moduleName = "lending"

// basisPointsDenominator is the fixed denominator for all ratio arithmetic.
const basisPointsDenominator = 10_000

type engineState interface {
	LendingPool() (*Pool, error)
	LendingSetPool(pool *Pool) error
	LendingShares(lender crypto.Address) (*big.Int, error)
	LendingSetShares(lender crypto.Address, shares *big.Int) error
	LendingLoan(assetID uint64) (*Loan, bool, error)
	LendingPutLoan(loan *Loan) error
	LendingLoanHistory(assetID uint64) ([]*Loan, error)
	LendingAppendLoanHistory(assetID uint64, loan *Loan) error
	USDCBalance(addr crypto.Address) (*big.Int, error)
	USDCTransfer(from, to crypto.Address, amount *big.Int) error
}

// assetRegistry is the slice of the registry engine the pool needs for
// collateral custody.
type assetRegistry interface {
	OwnerOf(assetID uint64) (crypto.Address, error)
	Transfer(caller, from, to crypto.Address, assetID uint64) error
}

// priceSource reports the oracle valuation of an asset.
type priceSource interface {
	GetPrice(assetID uint64) (*big.Int, error)
}

// Engine runs the share-based lending pool: lenders deposit settlement tokens
// for pro-rata shares, borrowers lock a registered asset and draw principal
// against its oracle valuation. One active loan per asset.
type Engine struct {
	state    engineState
	registry assetRegistry
	oracle   priceSource
	treasury crypto.Address
	emitter  events.Emitter
	pauses   nativecommon.PauseView

	collateralRatioBP uint64
	interestRateBP    uint64
}

// NewEngine constructs a lending engine with the given loan parameters,
// expressed in basis points over 10000.
func NewEngine(collateralRatioBP, interestRateBP uint64) *Engine {
	return &Engine{
		treasury:          crypto.ModuleAddress(moduleName),
		emitter:           events.NoopEmitter{},
		collateralRatioBP: collateralRatioBP,
		interestRateBP:    interestRateBP,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry wires the engine to the asset registry.
func (e *Engine) SetRegistry(registry assetRegistry) { e.registry = registry }

// SetOracle wires the engine to the collateral price source.
func (e *Engine) SetOracle(source priceSource) { e.oracle = source }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Treasury returns the pool's module account holding cash and collateral.
func (e *Engine) Treasury() crypto.Address { return e.treasury }

// Deposit supplies settlement tokens to the pool and mints lender shares.
// The first deposit mints shares equal to the amount; later deposits mint
// amount*totalShares/totalPoolUSDC so existing lender value is preserved.
func (e *Engine) Deposit(lender crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errZeroAmount
	}

	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()

	// Borrowing can drain the cash to zero while shares remain outstanding;
	// the share price is undefined until a repayment restores it.
	if pool.TotalShares.Sign() > 0 && pool.TotalPoolUSDC.Sign() == 0 {
		return nil, errPoolDrained
	}

	if err := e.state.USDCTransfer(lender, e.treasury, amount); err != nil {
		return nil, err
	}

	var shares *big.Int
	if pool.TotalShares.Sign() == 0 {
		shares = new(big.Int).Set(amount)
	} else {
		shares = new(big.Int).Mul(amount, pool.TotalShares)
		shares.Quo(shares, pool.TotalPoolUSDC)
	}

	current, err := e.state.LendingShares(lender)
	if err != nil {
		return nil, err
	}
	if err := e.state.LendingSetShares(lender, new(big.Int).Add(current, shares)); err != nil {
		return nil, err
	}
	pool.TotalPoolUSDC.Add(pool.TotalPoolUSDC, amount)
	pool.TotalShares.Add(pool.TotalShares, shares)
	if err := e.state.LendingSetPool(pool); err != nil {
		return nil, err
	}

	e.emit(events.LendingDeposited{
		Lender: addr20(lender),
		Amount: new(big.Int).Set(amount),
		Shares: new(big.Int).Set(shares),
	})
	return shares, nil
}

// Withdraw burns lender shares for their pro-rata slice of the pool, priced
// at withdrawal time.
func (e *Engine) Withdraw(lender crypto.Address, shares *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, errZeroAmount
	}

	current, err := e.state.LendingShares(lender)
	if err != nil {
		return nil, err
	}
	if current.Cmp(shares) < 0 {
		return nil, errInsufficientShares
	}
	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()
	if pool.TotalShares.Sign() == 0 {
		return nil, errInsufficientShares
	}

	amountOut := new(big.Int).Mul(shares, pool.TotalPoolUSDC)
	amountOut.Quo(amountOut, pool.TotalShares)
	if pool.TotalPoolUSDC.Cmp(amountOut) < 0 {
		return nil, errInsufficientPoolLiquidity
	}

	if err := e.state.LendingSetShares(lender, new(big.Int).Sub(current, shares)); err != nil {
		return nil, err
	}
	pool.TotalPoolUSDC.Sub(pool.TotalPoolUSDC, amountOut)
	pool.TotalShares.Sub(pool.TotalShares, shares)
	if err := e.state.LendingSetPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.USDCTransfer(e.treasury, lender, amountOut); err != nil {
		return nil, err
	}

	e.emit(events.LendingWithdrawn{
		Lender: addr20(lender),
		Shares: new(big.Int).Set(shares),
		Amount: new(big.Int).Set(amountOut),
	})
	return amountOut, nil
}

// DepositNFTAndBorrow locks the borrower's asset as collateral and disburses
// principal = oraclePrice * collateralRatio. The borrower must own the asset
// and the pool must hold enough cash.
func (e *Engine) DepositNFTAndBorrow(borrower crypto.Address, assetID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.registry == nil {
		return nil, errNilRegistry
	}
	if e.oracle == nil {
		return nil, errNilOracle
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	owner, err := e.registry.OwnerOf(assetID)
	if err != nil {
		return nil, err
	}
	if !owner.Equal(borrower) {
		return nil, errNotOwner
	}

	if loan, exists, err := e.state.LendingLoan(assetID); err != nil {
		return nil, err
	} else if exists && !loan.Repaid {
		return nil, errLoanActive
	}

	price, err := e.oracle.GetPrice(assetID)
	if err != nil {
		if errors.Is(err, oracle.ErrPriceNotSet) {
			return nil, errOraclePriceNotSet
		}
		return nil, fmt.Errorf("lending engine: price lookup: %w", err)
	}

	principal := new(big.Int).Mul(price, new(big.Int).SetUint64(e.collateralRatioBP))
	principal.Quo(principal, big.NewInt(basisPointsDenominator))
	if principal.Sign() <= 0 {
		return nil, errZeroPrincipal
	}

	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()
	if pool.TotalPoolUSDC.Cmp(principal) < 0 {
		return nil, errInsufficientPoolLiquidity
	}

	if err := e.registry.Transfer(borrower, borrower, e.treasury, assetID); err != nil {
		return nil, err
	}

	loan := &Loan{AssetID: assetID, Borrower: borrower, Principal: new(big.Int).Set(principal)}
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.LendingAppendLoanHistory(assetID, loan); err != nil {
		return nil, err
	}
	pool.TotalPoolUSDC.Sub(pool.TotalPoolUSDC, principal)
	if err := e.state.LendingSetPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.USDCTransfer(e.treasury, borrower, principal); err != nil {
		return nil, err
	}

	e.emit(events.LoanTaken{
		Borrower: addr20(borrower),
		AssetID:  assetID,
		Amount:   new(big.Int).Set(principal),
	})
	return principal, nil
}

// GetRepaymentAmount returns principal plus simple interest for the active
// loan on the asset.
func (e *Engine) GetRepaymentAmount(assetID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, exists, err := e.state.LendingLoan(assetID)
	if err != nil {
		return nil, err
	}
	if !exists || loan.Repaid {
		return nil, errNoActiveLoan
	}
	return repaymentAmount(loan.Principal, e.interestRateBP), nil
}

// RepayLoan settles the active loan on the asset. Any caller may repay; the
// collateral always returns to the original borrower.
func (e *Engine) RepayLoan(caller crypto.Address, assetID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.registry == nil {
		return nil, errNilRegistry
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	loan, exists, err := e.state.LendingLoan(assetID)
	if err != nil {
		return nil, err
	}
	if !exists || loan.Repaid {
		return nil, errNoActiveLoan
	}

	repayment := repaymentAmount(loan.Principal, e.interestRateBP)
	if err := e.state.USDCTransfer(caller, e.treasury, repayment); err != nil {
		return nil, err
	}

	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()
	pool.TotalPoolUSDC.Add(pool.TotalPoolUSDC, repayment)
	if err := e.state.LendingSetPool(pool); err != nil {
		return nil, err
	}

	loan.Repaid = true
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.registry.Transfer(e.treasury, e.treasury, loan.Borrower, assetID); err != nil {
		return nil, err
	}

	e.emit(events.LoanRepaid{AssetID: assetID, Amount: new(big.Int).Set(repayment)})
	return repayment, nil
}

// GetLoan returns the current loan record for the asset, repaid or not.
func (e *Engine) GetLoan(assetID uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, exists, err := e.state.LendingLoan(assetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errNoLoan
	}
	return loan.Clone(), nil
}

// GetLender returns the lender's shares and their current cash value.
func (e *Engine) GetLender(lender crypto.Address) (*LenderPosition, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	shares, err := e.state.LendingShares(lender)
	if err != nil {
		return nil, err
	}
	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()
	value := big.NewInt(0)
	if pool.TotalShares.Sign() > 0 {
		value = new(big.Int).Mul(shares, pool.TotalPoolUSDC)
		value.Quo(value, pool.TotalShares)
	}
	return &LenderPosition{Shares: new(big.Int).Set(shares), USDCValue: value}, nil
}

// GetPoolInfo returns the aggregate pool totals.
func (e *Engine) GetPoolInfo() (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.LendingPool()
	if err != nil {
		return nil, err
	}
	pool.EnsureDefaults()
	return pool.Clone(), nil
}

// LoanHistory returns every loan ever taken against the asset, oldest first.
func (e *Engine) LoanHistory(assetID uint64) ([]*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	history, err := e.state.LendingLoanHistory(assetID)
	if err != nil {
		return nil, err
	}
	out := make([]*Loan, 0, len(history))
	for _, loan := range history {
		out = append(out, loan.Clone())
	}
	return out, nil
}

func repaymentAmount(principal *big.Int, interestRateBP uint64) *big.Int {
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(interestRateBP))
	interest.Quo(interest, big.NewInt(basisPointsDenominator))
	return interest.Add(interest, principal)
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

func addr20(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}
