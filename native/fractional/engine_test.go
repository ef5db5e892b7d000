package fractional

import (
	"errors"
	"math/big"
	"testing"

	"watchvault/crypto"
)

type balanceKey struct {
	tokenID uint64
	addr    [20]byte
}

type allowanceKey struct {
	tokenID uint64
	owner   [20]byte
	spender [20]byte
}

type mockEngineState struct {
	tokens     map[uint64]*Token
	counter    uint64
	balances   map[balanceKey]*big.Int
	allowances map[allowanceKey]*big.Int
	vaults     map[uint64]*Vault
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		tokens:     make(map[uint64]*Token),
		balances:   make(map[balanceKey]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		vaults:     make(map[uint64]*Vault),
	}
}

func key20(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

func (m *mockEngineState) FractionalToken(tokenID uint64) (*Token, bool, error) {
	token, ok := m.tokens[tokenID]
	if !ok {
		return nil, false, nil
	}
	return token.Clone(), true, nil
}

func (m *mockEngineState) FractionalPutToken(token *Token) error {
	m.tokens[token.ID] = token.Clone()
	return nil
}

func (m *mockEngineState) FractionalTokenCounter() (uint64, error) { return m.counter, nil }

func (m *mockEngineState) FractionalSetTokenCounter(next uint64) error {
	m.counter = next
	return nil
}

func (m *mockEngineState) FractionalBalance(tokenID uint64, addr crypto.Address) (*big.Int, error) {
	bal, ok := m.balances[balanceKey{tokenID, key20(addr)}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (m *mockEngineState) FractionalSetBalance(tokenID uint64, addr crypto.Address, amount *big.Int) error {
	m.balances[balanceKey{tokenID, key20(addr)}] = new(big.Int).Set(amount)
	return nil
}

func (m *mockEngineState) FractionalAllowance(tokenID uint64, owner, spender crypto.Address) (*big.Int, error) {
	allowance, ok := m.allowances[allowanceKey{tokenID, key20(owner), key20(spender)}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(allowance), nil
}

func (m *mockEngineState) FractionalSetAllowance(tokenID uint64, owner, spender crypto.Address, amount *big.Int) error {
	m.allowances[allowanceKey{tokenID, key20(owner), key20(spender)}] = new(big.Int).Set(amount)
	return nil
}

func (m *mockEngineState) FractionalVault(assetID uint64) (*Vault, bool, error) {
	vault, ok := m.vaults[assetID]
	if !ok {
		return nil, false, nil
	}
	return vault.Clone(), true, nil
}

func (m *mockEngineState) FractionalPutVault(vault *Vault) error {
	m.vaults[vault.AssetID] = vault.Clone()
	return nil
}

// mockRegistry tracks ownership by id and fails transfers the way the real
// registry does when the caller lacks authority.
type mockRegistry struct {
	owners map[uint64]crypto.Address
}

var errMockNotOwner = errors.New("mock registry: not owner")

func (m *mockRegistry) OwnerOf(assetID uint64) (crypto.Address, error) {
	owner, ok := m.owners[assetID]
	if !ok {
		return crypto.Address{}, errors.New("mock registry: no such asset")
	}
	return owner, nil
}

func (m *mockRegistry) Transfer(caller, from, to crypto.Address, assetID uint64) error {
	owner, ok := m.owners[assetID]
	if !ok {
		return errors.New("mock registry: no such asset")
	}
	if !owner.Equal(caller) || !owner.Equal(from) {
		return errMockNotOwner
	}
	m.owners[assetID] = to
	return nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.WVPrefix, raw)
}

func newTestEngine(owners map[uint64]crypto.Address) (*Engine, *mockRegistry) {
	engine := NewEngine()
	engine.SetState(newMockEngineState())
	registry := &mockRegistry{owners: owners}
	engine.SetRegistry(registry)
	return engine, registry
}

func TestFractionalizeMintsSupplyAndLocksAsset(t *testing.T) {
	alice := makeAddress(0x01)
	engine, registry := newTestEngine(map[uint64]crypto.Address{1: alice})

	supply := big.NewInt(1_000)
	tokenID, err := engine.Fractionalize(alice, 1, supply)
	if err != nil {
		t.Fatalf("fractionalize: %v", err)
	}
	if tokenID != 1 {
		t.Fatalf("unexpected token id: %d", tokenID)
	}

	balance, err := engine.BalanceOf(tokenID, alice)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if balance.Cmp(supply) != 0 {
		t.Fatalf("unexpected curator balance: %s", balance)
	}
	total, _ := engine.TotalSupply(tokenID)
	if total.Cmp(supply) != 0 {
		t.Fatalf("unexpected supply: %s", total)
	}
	if !registry.owners[1].Equal(engine.Treasury()) {
		t.Fatalf("asset custody not moved to vault treasury")
	}

	token, err := engine.GetToken(tokenID)
	if err != nil {
		t.Fatalf("getToken: %v", err)
	}
	if token.Name != "Watch 1" || token.Symbol != "W1" || token.Decimals != FractionDecimals {
		t.Fatalf("unexpected token metadata: %+v", token)
	}
}

func TestFractionalizeRejectsNonOwnerAndZeroShares(t *testing.T) {
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	engine, _ := newTestEngine(map[uint64]crypto.Address{1: alice})

	if _, err := engine.Fractionalize(bob, 1, big.NewInt(100)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := engine.Fractionalize(alice, 1, big.NewInt(0)); !errors.Is(err, ErrZeroShares) {
		t.Fatalf("expected zero shares, got %v", err)
	}
}

func TestFractionalizeRejectsLiveVault(t *testing.T) {
	alice := makeAddress(0x01)
	engine, registry := newTestEngine(map[uint64]crypto.Address{1: alice})

	if _, err := engine.Fractionalize(alice, 1, big.NewInt(100)); err != nil {
		t.Fatalf("fractionalize: %v", err)
	}
	// Even if the asset somehow returned to alice, a live vault blocks a
	// second series.
	registry.owners[1] = alice
	if _, err := engine.Fractionalize(alice, 1, big.NewInt(100)); !errors.Is(err, ErrAlreadyFractionalized) {
		t.Fatalf("expected already fractionalized, got %v", err)
	}
}

func TestTransferAndTransferFrom(t *testing.T) {
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	carol := makeAddress(0x03)
	engine, _ := newTestEngine(map[uint64]crypto.Address{1: alice})

	tokenID, err := engine.Fractionalize(alice, 1, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("fractionalize: %v", err)
	}

	if err := engine.Transfer(alice, tokenID, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := engine.Transfer(bob, tokenID, carol, big.NewInt(500)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	if err := engine.TransferFrom(carol, tokenID, bob, carol, big.NewInt(100)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
	if err := engine.Approve(bob, tokenID, carol, big.NewInt(250)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.TransferFrom(carol, tokenID, bob, carol, big.NewInt(100)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}

	remaining, _ := engine.Allowance(tokenID, bob, carol)
	if remaining.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("unexpected remaining allowance: %s", remaining)
	}

	aliceBal, _ := engine.BalanceOf(tokenID, alice)
	bobBal, _ := engine.BalanceOf(tokenID, bob)
	carolBal, _ := engine.BalanceOf(tokenID, carol)
	sum := new(big.Int).Add(aliceBal, new(big.Int).Add(bobBal, carolBal))
	total, _ := engine.TotalSupply(tokenID)
	if sum.Cmp(total) != 0 {
		t.Fatalf("supply not conserved: balances sum %s, supply %s", sum, total)
	}
}

func TestSelfTransferConservesSupply(t *testing.T) {
	alice := makeAddress(0x01)
	engine, _ := newTestEngine(map[uint64]crypto.Address{1: alice})

	supply := big.NewInt(1_000)
	tokenID, err := engine.Fractionalize(alice, 1, supply)
	if err != nil {
		t.Fatalf("fractionalize: %v", err)
	}

	if err := engine.Transfer(alice, tokenID, alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	balance, err := engine.BalanceOf(tokenID, alice)
	if err != nil {
		t.Fatalf("balanceOf: %v", err)
	}
	if balance.Cmp(supply) != 0 {
		t.Fatalf("self transfer changed balance: %s, supply %s", balance, supply)
	}

	// The insufficient-balance check still applies to the degenerate case.
	if err := engine.Transfer(alice, tokenID, alice, big.NewInt(1_001)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	// Same rule through the allowance path: the allowance is still consumed.
	if err := engine.Approve(alice, tokenID, alice, big.NewInt(300)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.TransferFrom(alice, tokenID, alice, alice, big.NewInt(200)); err != nil {
		t.Fatalf("self transferFrom: %v", err)
	}
	balance, _ = engine.BalanceOf(tokenID, alice)
	if balance.Cmp(supply) != 0 {
		t.Fatalf("self transferFrom changed balance: %s", balance)
	}
	remaining, _ := engine.Allowance(tokenID, alice, alice)
	if remaining.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected remaining allowance: %s", remaining)
	}
}

func TestRedeemRequiresFullSupply(t *testing.T) {
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	engine, registry := newTestEngine(map[uint64]crypto.Address{1: alice})

	tokenID, err := engine.Fractionalize(alice, 1, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("fractionalize: %v", err)
	}
	if err := engine.Transfer(alice, tokenID, bob, big.NewInt(1)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if err := engine.Redeem(alice, 1); !errors.Is(err, ErrIncompleteSupply) {
		t.Fatalf("expected incomplete supply, got %v", err)
	}

	// Buy the last fraction back; redemption then succeeds.
	if err := engine.Transfer(bob, tokenID, alice, big.NewInt(1)); err != nil {
		t.Fatalf("transfer back: %v", err)
	}
	if err := engine.Redeem(alice, 1); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if !registry.owners[1].Equal(alice) {
		t.Fatalf("asset not returned to redeemer")
	}
	total, _ := engine.TotalSupply(tokenID)
	if total.Sign() != 0 {
		t.Fatalf("supply not burned: %s", total)
	}
	balance, _ := engine.BalanceOf(tokenID, alice)
	if balance.Sign() != 0 {
		t.Fatalf("redeemer balance not burned: %s", balance)
	}
	if id, _ := engine.GetFractionalizer(1); id != 0 {
		t.Fatalf("expected no live fractionalizer, got %d", id)
	}
}

func TestRefractionalizeAfterRedeem(t *testing.T) {
	alice := makeAddress(0x01)
	engine, _ := newTestEngine(map[uint64]crypto.Address{1: alice})

	first, err := engine.Fractionalize(alice, 1, big.NewInt(10))
	if err != nil {
		t.Fatalf("fractionalize: %v", err)
	}
	if err := engine.Redeem(alice, 1); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	second, err := engine.Fractionalize(alice, 1, big.NewInt(20))
	if err != nil {
		t.Fatalf("refractionalize: %v", err)
	}
	if second == first {
		t.Fatalf("expected a fresh token series, got %d twice", second)
	}
	if id, _ := engine.GetFractionalizer(1); id != second {
		t.Fatalf("unexpected live fractionalizer: %d", id)
	}
}
