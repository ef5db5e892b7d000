package amm

import (
	"errors"
	"math/big"

	"watchvault/core/events"
	"watchvault/crypto"
	nativecommon "watchvault/native/common"
)

var (
	errNilState           = errors.New("amm engine: state not configured")
	errNilFractions       = errors.New("amm engine: fraction ledger not configured")
	errPoolExists         = errors.New("amm engine: pool already exists for pair")
	errNoPool             = errors.New("amm engine: no pool for asset")
	errFeeTooHigh         = errors.New("amm engine: fee exceeds 10000 basis points")
	errZeroAmount         = errors.New("amm engine: amount must be positive")
	errZeroShares         = errors.New("amm engine: deposit too small to mint shares")
	errInsufficientShares = errors.New("amm engine: insufficient LP shares")
	errNoLiquidity        = errors.New("amm engine: pool has no liquidity")
	errSlippageExceeded   = errors.New("amm engine: output below minimum")
)

// Exported error aliases for collaborators and RPC handlers.
var (
	ErrPoolExists         = errPoolExists
	ErrNoPool             = errNoPool
	ErrFeeTooHigh         = errFeeTooHigh
	ErrZeroAmount         = errZeroAmount
	ErrZeroShares         = errZeroShares
	ErrInsufficientShares = errInsufficientShares
	ErrNoLiquidity        = errNoLiquidity
	ErrSlippageExceeded   = errSlippageExceeded
)

const moduleName = "amm"

// basisPointsDenominator is the fixed denominator for fee arithmetic.
const basisPointsDenominator = 10_000

type engineState interface {
	AMMPool(assetID uint64) (*Pool, bool, error)
	AMMPutPool(pool *Pool) error
	AMMPoolByToken(tokenID uint64) (uint64, bool, error)
	AMMSetPoolByToken(tokenID, assetID uint64) error
	AMMLPBalance(assetID uint64, addr crypto.Address) (*big.Int, error)
	AMMSetLPBalance(assetID uint64, addr crypto.Address, amount *big.Int) error
	AMMPoolList() ([]uint64, error)
	AMMSetPoolList(ids []uint64) error
	USDCTransfer(from, to crypto.Address, amount *big.Int) error
}

// fractionLedger is the slice of the fraction token engine the pool needs:
// pulling deposits under allowance and paying out from the treasury.
type fractionLedger interface {
	Transfer(caller crypto.Address, tokenID uint64, to crypto.Address, amount *big.Int) error
	TransferFrom(spender crypto.Address, tokenID uint64, from, to crypto.Address, amount *big.Int) error
	TotalSupply(tokenID uint64) (*big.Int, error)
}

// Engine runs the constant-product markets for fraction tokens. Every pool
// pairs one fraction series against the settlement token; the swap fee stays
// in the reserves, so fractionReserve*usdcReserve never decreases across
// swaps.
type Engine struct {
	state     engineState
	fractions fractionLedger
	treasury  crypto.Address
	emitter   events.Emitter
	pauses    nativecommon.PauseView
}

// NewEngine constructs an AMM engine. The treasury account holds both legs of
// every pool's reserves; depositors must approve it on the fraction ledger.
func NewEngine() *Engine {
	return &Engine{
		treasury: crypto.ModuleAddress(moduleName),
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFractions wires the engine to the fraction token ledger.
func (e *Engine) SetFractions(ledger fractionLedger) { e.fractions = ledger }

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

// Treasury returns the account holding pooled reserves.
func (e *Engine) Treasury() crypto.Address { return e.treasury }

// CreatePool registers an empty market for a fraction token. Exactly one pool
// may exist per asset and per token series.
func (e *Engine) CreatePool(caller crypto.Address, assetID, tokenID, feeBps uint64, admin crypto.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.fractions == nil {
		return errNilFractions
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if feeBps > basisPointsDenominator {
		return errFeeTooHigh
	}
	if _, err := e.fractions.TotalSupply(tokenID); err != nil {
		return err
	}
	if _, exists, err := e.state.AMMPool(assetID); err != nil {
		return err
	} else if exists {
		return errPoolExists
	}
	if _, exists, err := e.state.AMMPoolByToken(tokenID); err != nil {
		return err
	} else if exists {
		return errPoolExists
	}

	pool := &Pool{
		AssetID:         assetID,
		TokenID:         tokenID,
		FractionReserve: big.NewInt(0),
		USDCReserve:     big.NewInt(0),
		TotalLPShares:   big.NewInt(0),
		FeeBps:          feeBps,
		Admin:           admin,
	}
	if err := e.state.AMMPutPool(pool); err != nil {
		return err
	}
	if err := e.state.AMMSetPoolByToken(tokenID, assetID); err != nil {
		return err
	}
	ids, err := e.state.AMMPoolList()
	if err != nil {
		return err
	}
	if err := e.state.AMMSetPoolList(append(ids, assetID)); err != nil {
		return err
	}

	e.emit(events.PoolCreated{AssetID: assetID, TokenID: tokenID, FeeBps: feeBps, Admin: addr20(admin)})
	return nil
}

// AddLiquidity deposits both legs into the pool and mints LP shares. The
// first deposit sets the price and mints shares equal to the settlement leg;
// later deposits mint pro-rata against the settlement reserve and accept the
// deposit ratio as given.
func (e *Engine) AddLiquidity(provider crypto.Address, assetID uint64, fractionAmount, usdcAmount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.fractions == nil {
		return nil, errNilFractions
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if fractionAmount == nil || fractionAmount.Sign() <= 0 || usdcAmount == nil || usdcAmount.Sign() <= 0 {
		return nil, errZeroAmount
	}

	pool, err := e.loadPool(assetID)
	if err != nil {
		return nil, err
	}

	var shares *big.Int
	if pool.TotalLPShares.Sign() == 0 {
		shares = new(big.Int).Set(usdcAmount)
	} else {
		shares = new(big.Int).Mul(usdcAmount, pool.TotalLPShares)
		shares.Quo(shares, pool.USDCReserve)
	}
	if shares.Sign() == 0 {
		return nil, errZeroShares
	}

	if err := e.fractions.TransferFrom(e.treasury, pool.TokenID, provider, e.treasury, fractionAmount); err != nil {
		return nil, err
	}
	if err := e.state.USDCTransfer(provider, e.treasury, usdcAmount); err != nil {
		return nil, err
	}

	pool.FractionReserve.Add(pool.FractionReserve, fractionAmount)
	pool.USDCReserve.Add(pool.USDCReserve, usdcAmount)
	pool.TotalLPShares.Add(pool.TotalLPShares, shares)
	if err := e.state.AMMPutPool(pool); err != nil {
		return nil, err
	}
	current, err := e.state.AMMLPBalance(assetID, provider)
	if err != nil {
		return nil, err
	}
	if err := e.state.AMMSetLPBalance(assetID, provider, new(big.Int).Add(current, shares)); err != nil {
		return nil, err
	}

	e.emit(events.LiquidityAdded{
		AssetID:        assetID,
		Provider:       addr20(provider),
		FractionAmount: new(big.Int).Set(fractionAmount),
		USDCAmount:     new(big.Int).Set(usdcAmount),
		Shares:         new(big.Int).Set(shares),
	})
	return shares, nil
}

// RemoveLiquidity burns LP shares for the provider's pro-rata slice of both
// reserves.
func (e *Engine) RemoveLiquidity(provider crypto.Address, assetID uint64, shares *big.Int) (fractionOut, usdcOut *big.Int, err error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if e.fractions == nil {
		return nil, nil, errNilFractions
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, nil, err
	}
	if shares == nil || shares.Sign() <= 0 {
		return nil, nil, errZeroAmount
	}

	pool, err := e.loadPool(assetID)
	if err != nil {
		return nil, nil, err
	}
	current, err := e.state.AMMLPBalance(assetID, provider)
	if err != nil {
		return nil, nil, err
	}
	if current.Cmp(shares) < 0 {
		return nil, nil, errInsufficientShares
	}

	fractionOut = new(big.Int).Mul(shares, pool.FractionReserve)
	fractionOut.Quo(fractionOut, pool.TotalLPShares)
	usdcOut = new(big.Int).Mul(shares, pool.USDCReserve)
	usdcOut.Quo(usdcOut, pool.TotalLPShares)

	pool.FractionReserve.Sub(pool.FractionReserve, fractionOut)
	pool.USDCReserve.Sub(pool.USDCReserve, usdcOut)
	pool.TotalLPShares.Sub(pool.TotalLPShares, shares)
	if err := e.state.AMMPutPool(pool); err != nil {
		return nil, nil, err
	}
	if err := e.state.AMMSetLPBalance(assetID, provider, new(big.Int).Sub(current, shares)); err != nil {
		return nil, nil, err
	}
	if fractionOut.Sign() > 0 {
		if err := e.fractions.Transfer(e.treasury, pool.TokenID, provider, fractionOut); err != nil {
			return nil, nil, err
		}
	}
	if usdcOut.Sign() > 0 {
		if err := e.state.USDCTransfer(e.treasury, provider, usdcOut); err != nil {
			return nil, nil, err
		}
	}

	e.emit(events.LiquidityRemoved{
		AssetID:        assetID,
		Provider:       addr20(provider),
		FractionAmount: new(big.Int).Set(fractionOut),
		USDCAmount:     new(big.Int).Set(usdcOut),
		Shares:         new(big.Int).Set(shares),
	})
	return fractionOut, usdcOut, nil
}

// SwapUSDCForFraction trades settlement tokens for fractions at the
// constant-product price. The fee is charged on the input; the gross input
// joins the reserve.
func (e *Engine) SwapUSDCForFraction(trader crypto.Address, assetID uint64, amountIn, minOut *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.fractions == nil {
		return nil, errNilFractions
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, errZeroAmount
	}

	pool, err := e.loadPool(assetID)
	if err != nil {
		return nil, err
	}
	amountOut, err := swapOutput(pool.USDCReserve, pool.FractionReserve, amountIn, pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if minOut != nil && amountOut.Cmp(minOut) < 0 {
		return nil, errSlippageExceeded
	}

	if err := e.state.USDCTransfer(trader, e.treasury, amountIn); err != nil {
		return nil, err
	}
	pool.USDCReserve.Add(pool.USDCReserve, amountIn)
	pool.FractionReserve.Sub(pool.FractionReserve, amountOut)
	if err := e.state.AMMPutPool(pool); err != nil {
		return nil, err
	}
	if err := e.fractions.Transfer(e.treasury, pool.TokenID, trader, amountOut); err != nil {
		return nil, err
	}

	e.emit(events.Swap{
		AssetID:   assetID,
		Trader:    addr20(trader),
		Direction: events.SwapDirectionUSDCForFraction,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	})
	return amountOut, nil
}

// SwapFractionForUSDC trades fractions for settlement tokens, symmetric to
// SwapUSDCForFraction.
func (e *Engine) SwapFractionForUSDC(trader crypto.Address, assetID uint64, amountIn, minOut *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.fractions == nil {
		return nil, errNilFractions
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, errZeroAmount
	}

	pool, err := e.loadPool(assetID)
	if err != nil {
		return nil, err
	}
	amountOut, err := swapOutput(pool.FractionReserve, pool.USDCReserve, amountIn, pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if minOut != nil && amountOut.Cmp(minOut) < 0 {
		return nil, errSlippageExceeded
	}

	if err := e.fractions.TransferFrom(e.treasury, pool.TokenID, trader, e.treasury, amountIn); err != nil {
		return nil, err
	}
	pool.FractionReserve.Add(pool.FractionReserve, amountIn)
	pool.USDCReserve.Sub(pool.USDCReserve, amountOut)
	if err := e.state.AMMPutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.USDCTransfer(e.treasury, trader, amountOut); err != nil {
		return nil, err
	}

	e.emit(events.Swap{
		AssetID:   assetID,
		Trader:    addr20(trader),
		Direction: events.SwapDirectionFractionForUSDC,
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: new(big.Int).Set(amountOut),
	})
	return amountOut, nil
}

// GetPool returns the pool for an asset.
func (e *Engine) GetPool(assetID uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.loadPool(assetID)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// LPBalance returns the provider's LP shares in the asset's pool.
func (e *Engine) LPBalance(assetID uint64, provider crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.AMMLPBalance(assetID, provider)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(balance), nil
}

// ListPools returns every pool in creation order.
func (e *Engine) ListPools() ([]*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.AMMPoolList()
	if err != nil {
		return nil, err
	}
	pools := make([]*Pool, 0, len(ids))
	for _, id := range ids {
		pool, exists, err := e.state.AMMPool(id)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		pool.EnsureDefaults()
		pools = append(pools, pool.Clone())
	}
	return pools, nil
}

func (e *Engine) loadPool(assetID uint64) (*Pool, error) {
	pool, exists, err := e.state.AMMPool(assetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errNoPool
	}
	pool.EnsureDefaults()
	return pool, nil
}

// swapOutput prices an input against the constant-product curve:
// out = reserveOut * netIn / (reserveIn + netIn), netIn charged the fee.
func swapOutput(reserveIn, reserveOut, amountIn *big.Int, feeBps uint64) (*big.Int, error) {
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, errNoLiquidity
	}
	netIn := new(big.Int).Mul(amountIn, big.NewInt(basisPointsDenominator-int64(feeBps)))
	netIn.Quo(netIn, big.NewInt(basisPointsDenominator))
	out := new(big.Int).Mul(reserveOut, netIn)
	out.Quo(out, new(big.Int).Add(reserveIn, netIn))
	return out, nil
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
