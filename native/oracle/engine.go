package oracle

import (
	"errors"
	"math/big"
	"sort"

	"watchvault/core/events"
	"watchvault/crypto"
	nativecommon "watchvault/native/common"
)

var (
	errNilState           = errors.New("oracle engine: state not configured")
	errUnauthorizedWriter = errors.New("oracle engine: caller is not the price writer")
	errNilPrice           = errors.New("oracle engine: price must not be nil")
	errNegativePrice      = errors.New("oracle engine: price must not be negative")
	errPriceNotSet        = errors.New("oracle engine: price not set for asset")
)

// Exported error aliases for collaborators and RPC handlers.
var (
	ErrUnauthorizedWriter = errUnauthorizedWriter
	ErrPriceNotSet        = errPriceNotSet
)

const moduleName = "oracle"

type engineState interface {
	OraclePrice(assetID uint64) (*big.Int, bool, error)
	OracleSetPrice(assetID uint64, price *big.Int) error
	OraclePricedAssets() ([]uint64, error)
	OracleSetPricedAssets(ids []uint64) error
}

// Quote pairs an asset with its last posted price.
type Quote struct {
	AssetID uint64
	Price   *big.Int
}

// Engine maintains the trusted per-asset price feed. A single configured
// writer may post prices; everyone may read them. A price of zero is a valid
// posted value and is distinct from "never posted".
type Engine struct {
	state   engineState
	writer  crypto.Address
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs an oracle engine with the configured writer authority.
func NewEngine(writer crypto.Address) *Engine {
	return &Engine{
		writer:  writer,
		emitter: events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

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

// SetPrice records the latest price for an asset. Only the configured writer
// may call it. Posting overwrites any earlier price unconditionally.
func (e *Engine) SetPrice(caller crypto.Address, assetID uint64, price *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !caller.Equal(e.writer) {
		return errUnauthorizedWriter
	}
	if price == nil {
		return errNilPrice
	}
	if price.Sign() < 0 {
		return errNegativePrice
	}

	_, existed, err := e.state.OraclePrice(assetID)
	if err != nil {
		return err
	}
	if err := e.state.OracleSetPrice(assetID, new(big.Int).Set(price)); err != nil {
		return err
	}
	if !existed {
		ids, err := e.state.OraclePricedAssets()
		if err != nil {
			return err
		}
		ids = append(ids, assetID)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if err := e.state.OracleSetPricedAssets(ids); err != nil {
			return err
		}
	}

	e.emit(events.PriceUpdated{AssetID: assetID, Price: new(big.Int).Set(price)})
	return nil
}

// GetPrice returns the last posted price for the asset. An asset that has
// never been priced fails with ErrPriceNotSet.
func (e *Engine) GetPrice(assetID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	price, ok, err := e.state.OraclePrice(assetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errPriceNotSet
	}
	return new(big.Int).Set(price), nil
}

// ListPrices returns every posted quote ordered by asset id.
func (e *Engine) ListPrices() ([]Quote, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.OraclePricedAssets()
	if err != nil {
		return nil, err
	}
	quotes := make([]Quote, 0, len(ids))
	for _, id := range ids {
		price, ok, err := e.state.OraclePrice(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		quotes = append(quotes, Quote{AssetID: id, Price: new(big.Int).Set(price)})
	}
	return quotes, nil
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}
