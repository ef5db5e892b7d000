package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"watchvault/core/events"
	"watchvault/core/state"
	"watchvault/core/types"
	"watchvault/crypto"
	"watchvault/native/amm"
	nativecommon "watchvault/native/common"
	"watchvault/native/fractional"
	"watchvault/native/lending"
	"watchvault/native/oracle"
	"watchvault/native/registry"
	"watchvault/storage"
	"watchvault/storage/trie"
)

var errNilDatabase = errors.New("node: database not configured")

// stateRootKey is the database key holding the last committed trie root.
var stateRootKey = []byte("watchvault/state-root")

// eventLogCap bounds the in-memory event tail served over RPC.
const eventLogCap = 2048

// NodeConfig carries the engine parameters fixed at boot.
type NodeConfig struct {
	MintAuthority     crypto.Address
	OracleWriter      crypto.Address
	CollateralRatioBP uint64
	InterestRateBP    uint64
	PausedModules     []string
}

// Node owns the committed settlement state and serializes every operation.
// Each mutating call runs against a copy of the trie and only a fully
// successful operation is committed; a failure leaves the previous root
// untouched.
type Node struct {
	mu     sync.Mutex
	db     storage.Database
	state  *trie.Trie
	height uint64

	cfg    NodeConfig
	pauses nativecommon.StaticPauses
	logger *slog.Logger

	eventLog []*types.Event
}

// NewNode opens the settlement state on top of the database, resuming from
// the last committed root when one exists.
func NewNode(db storage.Database, cfg NodeConfig, logger *slog.Logger) (*Node, error) {
	if db == nil {
		return nil, errNilDatabase
	}
	if logger == nil {
		logger = slog.Default()
	}
	// A missing root key means a fresh database; start from the empty trie.
	root, err := db.Get(stateRootKey)
	if err != nil {
		root = nil
	}
	tr, err := trie.NewTrie(db, root)
	if err != nil {
		return nil, fmt.Errorf("node: open state trie: %w", err)
	}
	pauses := nativecommon.StaticPauses{}
	for _, module := range cfg.PausedModules {
		pauses[module] = true
	}
	return &Node{
		db:     db,
		state:  tr,
		cfg:    cfg,
		pauses: pauses,
		logger: logger,
	}, nil
}

// engines bundles the module engines bound to one state view.
type engines struct {
	registry   *registry.Engine
	oracle     *oracle.Engine
	lending    *lending.Engine
	fractional *fractional.Engine
	amm        *amm.Engine
}

func (n *Node) buildEngines(manager *state.Manager, emitter events.Emitter) *engines {
	reg := registry.NewEngine(n.cfg.MintAuthority)
	reg.SetState(manager)
	reg.SetEmitter(emitter)
	reg.SetPauses(n.pauses)

	orc := oracle.NewEngine(n.cfg.OracleWriter)
	orc.SetState(manager)
	orc.SetEmitter(emitter)
	orc.SetPauses(n.pauses)

	frac := fractional.NewEngine()
	frac.SetState(manager)
	frac.SetRegistry(reg)
	frac.SetEmitter(emitter)
	frac.SetPauses(n.pauses)

	lend := lending.NewEngine(n.cfg.CollateralRatioBP, n.cfg.InterestRateBP)
	lend.SetState(manager)
	lend.SetRegistry(reg)
	lend.SetOracle(orc)
	lend.SetEmitter(emitter)
	lend.SetPauses(n.pauses)

	pool := amm.NewEngine()
	pool.SetState(manager)
	pool.SetFractions(frac)
	pool.SetEmitter(emitter)
	pool.SetPauses(n.pauses)

	return &engines{registry: reg, oracle: orc, lending: lend, fractional: frac, amm: pool}
}

// txEmitter buffers events until the operation commits.
type txEmitter struct {
	events []events.Event
}

func (t *txEmitter) Emit(event events.Event) {
	t.events = append(t.events, event)
}

// execute runs a mutating operation against a trie copy and commits the copy
// only when the operation succeeds end to end.
func (n *Node) execute(module, method string, fn func(*engines, *state.Manager) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	speculative, err := n.state.Copy()
	if err != nil {
		return fmt.Errorf("node: copy state: %w", err)
	}
	manager := state.NewManager(speculative)
	emitter := &txEmitter{}
	eng := n.buildEngines(manager, emitter)

	if err := fn(eng, manager); err != nil {
		n.logger.Debug("operation rejected", "module", module, "method", method, "err", err)
		return err
	}

	parent := n.state.Root()
	root, err := speculative.Commit(parent, n.height+1)
	if err != nil {
		return fmt.Errorf("node: commit state: %w", err)
	}
	if err := n.db.Put(stateRootKey, root.Bytes()); err != nil {
		return fmt.Errorf("node: persist state root: %w", err)
	}
	n.state = speculative
	n.height++
	n.publish(emitter.events)
	n.logger.Info("operation applied",
		"module", module,
		"method", method,
		"height", n.height,
		"root", root.Hex(),
	)
	return nil
}

// view runs a read-only function against the committed state.
func (n *Node) view(fn func(*engines, *state.Manager) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	manager := state.NewManager(n.state)
	eng := n.buildEngines(manager, events.NoopEmitter{})
	return fn(eng, manager)
}

func (n *Node) publish(pending []events.Event) {
	for _, event := range pending {
		carrier, ok := event.(interface{ Event() *types.Event })
		if !ok {
			continue
		}
		n.eventLog = append(n.eventLog, carrier.Event())
	}
	if len(n.eventLog) > eventLogCap {
		n.eventLog = n.eventLog[len(n.eventLog)-eventLogCap:]
	}
}

// Height returns the number of committed operations.
func (n *Node) Height() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// StateRoot returns the last committed trie root.
func (n *Node) StateRoot() common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Root()
}

// Events returns the buffered event tail, oldest first.
func (n *Node) Events() []*types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*types.Event, len(n.eventLog))
	copy(out, n.eventLog)
	return out
}

// MintUSDC credits settlement tokens to an address. Operator funding and the
// development faucet both route through here.
func (n *Node) MintUSDC(addr crypto.Address, amount *big.Int) error {
	return n.execute("bank", "mintUSDC", func(_ *engines, manager *state.Manager) error {
		return manager.USDCMint(addr, amount)
	})
}

// TransferUSDC moves settlement tokens between accounts.
func (n *Node) TransferUSDC(from, to crypto.Address, amount *big.Int) error {
	return n.execute("bank", "transferUSDC", func(_ *engines, manager *state.Manager) error {
		return manager.USDCTransfer(from, to, amount)
	})
}

// USDCBalance returns the settlement balance of an address.
func (n *Node) USDCBalance(addr crypto.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func(_ *engines, manager *state.Manager) error {
		var err error
		balance, err = manager.USDCBalance(addr)
		return err
	})
	return balance, err
}
