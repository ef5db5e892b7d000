package registry

import (
	"errors"
	"strings"

	"watchvault/core/events"
	nativecommon "watchvault/native/common"

	"watchvault/crypto"
)

var (
	errNilState           = errors.New("registry engine: state not configured")
	errNoSuchAsset        = errors.New("registry engine: no such asset")
	errNotOwner           = errors.New("registry engine: caller is not the asset owner")
	errNotOwnerOrApproved = errors.New("registry engine: caller is not owner or approved operator")
	errWrongFrom          = errors.New("registry engine: from address does not match current owner")
	errUnauthorizedMinter = errors.New("registry engine: caller is not the mint authority")
	errEmptyURI           = errors.New("registry engine: metadata URI must not be empty")
)

// Exported error aliases so collaborators and RPC handlers can branch on
// failure reasons.
var (
	ErrNoSuchAsset        = errNoSuchAsset
	ErrNotOwner           = errNotOwner
	ErrNotOwnerOrApproved = errNotOwnerOrApproved
	ErrUnauthorizedMinter = errUnauthorizedMinter
)

const moduleName = "registry"

type engineState interface {
	RegistryGetAsset(id uint64) (*Asset, bool, error)
	RegistryPutAsset(asset *Asset) error
	RegistryCounter() (uint64, error)
	RegistrySetCounter(next uint64) error
	RegistryApproval(id uint64) (crypto.Address, bool, error)
	RegistrySetApproval(id uint64, operator crypto.Address) error
	RegistryClearApproval(id uint64) error
	RegistryOwnerIndex(owner crypto.Address) ([]uint64, error)
	RegistrySetOwnerIndex(owner crypto.Address, ids []uint64) error
}

// Engine owns the asset ownership ledger. Every ownership mutation in the
// system flows through Transfer; no other component writes the owner field.
type Engine struct {
	state     engineState
	authority crypto.Address
	emitter   events.Emitter
	pauses    nativecommon.PauseView
}

// NewEngine constructs a registry engine with the configured mint authority.
func NewEngine(authority crypto.Address) *Engine {
	return &Engine{
		authority: authority,
		emitter:   events.NoopEmitter{},
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

// Mint registers a new asset owned by the provided account and returns the
// assigned identifier. Only the configured mint authority may call it.
func (e *Engine) Mint(caller, owner crypto.Address, metadataURI string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if !caller.Equal(e.authority) {
		return 0, errUnauthorizedMinter
	}
	if strings.TrimSpace(metadataURI) == "" {
		return 0, errEmptyURI
	}

	counter, err := e.state.RegistryCounter()
	if err != nil {
		return 0, err
	}
	id := counter + 1

	asset := &Asset{ID: id, Owner: owner, MetadataURI: metadataURI}
	if err := e.state.RegistryPutAsset(asset); err != nil {
		return 0, err
	}
	if err := e.state.RegistrySetCounter(id); err != nil {
		return 0, err
	}
	if err := e.indexAdd(owner, id); err != nil {
		return 0, err
	}

	e.emit(events.AssetMinted{AssetID: id, Owner: addr20(owner), MetadataURI: metadataURI})
	return id, nil
}

// Transfer moves ownership of an asset. The caller must be the current owner
// or the approved operator for the asset; any approval is cleared on success.
func (e *Engine) Transfer(caller, from, to crypto.Address, assetID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	asset, ok, err := e.state.RegistryGetAsset(assetID)
	if err != nil {
		return err
	}
	if !ok {
		return errNoSuchAsset
	}
	if !asset.Owner.Equal(from) {
		return errWrongFrom
	}
	if !caller.Equal(asset.Owner) {
		operator, approved, err := e.state.RegistryApproval(assetID)
		if err != nil {
			return err
		}
		if !approved || !caller.Equal(operator) {
			return errNotOwnerOrApproved
		}
	}

	if err := e.indexRemove(from, assetID); err != nil {
		return err
	}
	if err := e.indexAdd(to, assetID); err != nil {
		return err
	}

	asset.Owner = to
	if err := e.state.RegistryPutAsset(asset); err != nil {
		return err
	}
	if err := e.state.RegistryClearApproval(assetID); err != nil {
		return err
	}

	e.emit(events.AssetTransferred{AssetID: assetID, From: addr20(from), To: addr20(to)})
	return nil
}

// Approve authorises an operator to transfer the asset on the owner's behalf.
// Only the current owner may approve.
func (e *Engine) Approve(caller, operator crypto.Address, assetID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	asset, ok, err := e.state.RegistryGetAsset(assetID)
	if err != nil {
		return err
	}
	if !ok {
		return errNoSuchAsset
	}
	if !caller.Equal(asset.Owner) {
		return errNotOwner
	}
	if err := e.state.RegistrySetApproval(assetID, operator); err != nil {
		return err
	}

	e.emit(events.AssetApproved{AssetID: assetID, Owner: addr20(asset.Owner), Operator: addr20(operator)})
	return nil
}

// OwnerOf returns the current owner of an asset.
func (e *Engine) OwnerOf(assetID uint64) (crypto.Address, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, errNilState
	}
	asset, ok, err := e.state.RegistryGetAsset(assetID)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, errNoSuchAsset
	}
	return asset.Owner, nil
}

// MetadataURI returns the stored metadata pointer for an asset.
func (e *Engine) MetadataURI(assetID uint64) (string, error) {
	if e == nil || e.state == nil {
		return "", errNilState
	}
	asset, ok, err := e.state.RegistryGetAsset(assetID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNoSuchAsset
	}
	return asset.MetadataURI, nil
}

// Approved reports the approved operator for an asset, if any.
func (e *Engine) Approved(assetID uint64) (crypto.Address, bool, error) {
	if e == nil || e.state == nil {
		return crypto.Address{}, false, errNilState
	}
	if _, ok, err := e.state.RegistryGetAsset(assetID); err != nil {
		return crypto.Address{}, false, err
	} else if !ok {
		return crypto.Address{}, false, errNoSuchAsset
	}
	return e.state.RegistryApproval(assetID)
}

// AssetsOwnedBy returns the identifiers currently held by the owner. The
// result is served from the incrementally maintained owner index, never from a
// scan of the asset table.
func (e *Engine) AssetsOwnedBy(owner crypto.Address) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.RegistryOwnerIndex(owner)
}

// Get returns a copy of the full asset record.
func (e *Engine) Get(assetID uint64) (*Asset, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	asset, ok, err := e.state.RegistryGetAsset(assetID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errNoSuchAsset
	}
	return asset.Clone(), nil
}

func (e *Engine) indexAdd(owner crypto.Address, assetID uint64) error {
	ids, err := e.state.RegistryOwnerIndex(owner)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == assetID {
			return nil
		}
	}
	ids = append(ids, assetID)
	return e.state.RegistrySetOwnerIndex(owner, ids)
}

func (e *Engine) indexRemove(owner crypto.Address, assetID uint64) error {
	ids, err := e.state.RegistryOwnerIndex(owner)
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, id := range ids {
		if id != assetID {
			filtered = append(filtered, id)
		}
	}
	return e.state.RegistrySetOwnerIndex(owner, filtered)
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
