package fractional

import (
	"errors"
	"fmt"
	"math/big"

	"watchvault/core/events"
	"watchvault/crypto"
	nativecommon "watchvault/native/common"
)

var (
	errNilState              = errors.New("fractional engine: state not configured")
	errNilRegistry           = errors.New("fractional engine: registry not configured")
	errNotOwner              = errors.New("fractional engine: caller does not own the asset")
	errZeroShares            = errors.New("fractional engine: share supply must be positive")
	errAlreadyFractionalized = errors.New("fractional engine: asset already has a live vault")
	errNoVault               = errors.New("fractional engine: no live vault for asset")
	errIncompleteSupply      = errors.New("fractional engine: caller does not hold the full supply")
	errUnknownToken          = errors.New("fractional engine: unknown fraction token")
	errZeroAmount            = errors.New("fractional engine: amount must be positive")
	errInsufficientBalance   = errors.New("fractional engine: insufficient fraction balance")
	errInsufficientAllowance = errors.New("fractional engine: insufficient allowance")
)

// Exported error aliases for collaborators and RPC handlers.
var (
	ErrNotOwner              = errNotOwner
	ErrZeroShares            = errZeroShares
	ErrAlreadyFractionalized = errAlreadyFractionalized
	ErrNoVault               = errNoVault
	ErrIncompleteSupply      = errIncompleteSupply
	ErrUnknownToken          = errUnknownToken
	ErrZeroAmount            = errZeroAmount
	ErrInsufficientBalance   = errInsufficientBalance
	ErrInsufficientAllowance = errInsufficientAllowance
)

const moduleName = "fractional"

// FractionDecimals is the fixed decimal precision of every fraction token.
const FractionDecimals uint8 = 18

type engineState interface {
	FractionalToken(tokenID uint64) (*Token, bool, error)
	FractionalPutToken(token *Token) error
	FractionalTokenCounter() (uint64, error)
	FractionalSetTokenCounter(next uint64) error
	FractionalBalance(tokenID uint64, addr crypto.Address) (*big.Int, error)
	FractionalSetBalance(tokenID uint64, addr crypto.Address, amount *big.Int) error
	FractionalAllowance(tokenID uint64, owner, spender crypto.Address) (*big.Int, error)
	FractionalSetAllowance(tokenID uint64, owner, spender crypto.Address, amount *big.Int) error
	FractionalVault(assetID uint64) (*Vault, bool, error)
	FractionalPutVault(vault *Vault) error
}

// assetRegistry is the slice of the registry engine the vault needs: custody
// moves and ownership checks.
type assetRegistry interface {
	OwnerOf(assetID uint64) (crypto.Address, error)
	Transfer(caller, from, to crypto.Address, assetID uint64) error
}

// Engine runs the fractionalization vault and the fraction token ledger it
// mints into. Locking an asset mints a fresh series to the curator; redeeming
// requires the entire outstanding supply and burns it to zero.
type Engine struct {
	state    engineState
	registry assetRegistry
	treasury crypto.Address
	emitter  events.Emitter
	pauses   nativecommon.PauseView
}

// NewEngine constructs a vault engine. The vault treasury address holds
// custody of every locked asset.
func NewEngine() *Engine {
	return &Engine{
		treasury: crypto.ModuleAddress(moduleName),
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry wires the engine to the asset registry.
func (e *Engine) SetRegistry(registry assetRegistry) { e.registry = registry }

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

// Treasury returns the address holding custody of locked assets.
func (e *Engine) Treasury() crypto.Address { return e.treasury }

// Fractionalize locks the caller's asset in the vault and mints totalShares
// fraction tokens to the caller. Returns the id of the minted series.
func (e *Engine) Fractionalize(caller crypto.Address, assetID uint64, totalShares *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if e.registry == nil {
		return 0, errNilRegistry
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if totalShares == nil || totalShares.Sign() <= 0 {
		return 0, errZeroShares
	}

	owner, err := e.registry.OwnerOf(assetID)
	if err != nil {
		return 0, err
	}
	if !owner.Equal(caller) {
		return 0, errNotOwner
	}
	vault, exists, err := e.state.FractionalVault(assetID)
	if err != nil {
		return 0, err
	}
	if exists && vault.Live {
		return 0, errAlreadyFractionalized
	}

	counter, err := e.state.FractionalTokenCounter()
	if err != nil {
		return 0, err
	}
	tokenID := counter + 1
	token := &Token{
		ID:          tokenID,
		AssetID:     assetID,
		Name:        fmt.Sprintf("Watch %d", assetID),
		Symbol:      fmt.Sprintf("W%d", assetID),
		Decimals:    FractionDecimals,
		TotalSupply: new(big.Int).Set(totalShares),
	}
	if err := e.state.FractionalPutToken(token); err != nil {
		return 0, err
	}
	if err := e.state.FractionalSetTokenCounter(tokenID); err != nil {
		return 0, err
	}
	if err := e.state.FractionalSetBalance(tokenID, caller, new(big.Int).Set(totalShares)); err != nil {
		return 0, err
	}

	// Custody moves last so a failed mint never strands the asset.
	if err := e.registry.Transfer(caller, caller, e.treasury, assetID); err != nil {
		return 0, err
	}
	if err := e.state.FractionalPutVault(&Vault{AssetID: assetID, TokenID: tokenID, Curator: caller, Live: true}); err != nil {
		return 0, err
	}

	e.emit(events.Fractionalized{
		AssetID:     assetID,
		TokenID:     tokenID,
		Owner:       addr20(caller),
		TotalShares: new(big.Int).Set(totalShares),
	})
	return tokenID, nil
}

// Redeem burns the caller's full fraction supply and releases the asset to
// the caller. The caller must hold every outstanding fraction.
func (e *Engine) Redeem(caller crypto.Address, assetID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	vault, exists, err := e.state.FractionalVault(assetID)
	if err != nil {
		return err
	}
	if !exists || !vault.Live {
		return errNoVault
	}
	token, ok, err := e.state.FractionalToken(vault.TokenID)
	if err != nil {
		return err
	}
	if !ok {
		return errUnknownToken
	}
	balance, err := e.state.FractionalBalance(vault.TokenID, caller)
	if err != nil {
		return err
	}
	if balance.Cmp(token.TotalSupply) != 0 {
		return errIncompleteSupply
	}

	if err := e.state.FractionalSetBalance(vault.TokenID, caller, big.NewInt(0)); err != nil {
		return err
	}
	token.TotalSupply = big.NewInt(0)
	if err := e.state.FractionalPutToken(token); err != nil {
		return err
	}
	vault.Live = false
	if err := e.state.FractionalPutVault(vault); err != nil {
		return err
	}
	if err := e.registry.Transfer(e.treasury, e.treasury, caller, assetID); err != nil {
		return err
	}

	e.emit(events.Redeemed{AssetID: assetID, Redeemer: addr20(caller)})
	return nil
}

// GetFractionalizer returns the live fraction token id for the asset, or zero
// when none exists.
func (e *Engine) GetFractionalizer(assetID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	vault, exists, err := e.state.FractionalVault(assetID)
	if err != nil {
		return 0, err
	}
	if !exists || !vault.Live {
		return 0, nil
	}
	return vault.TokenID, nil
}

// GetVault returns the vault record for an asset, live or closed.
func (e *Engine) GetVault(assetID uint64) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	vault, exists, err := e.state.FractionalVault(assetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errNoVault
	}
	return vault.Clone(), nil
}

// GetToken returns the fraction token metadata for a series.
func (e *Engine) GetToken(tokenID uint64) (*Token, error) {
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
	return token.Clone(), nil
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
