package amm

import (
	"errors"
	"math/big"
	"testing"

	"watchvault/crypto"
)

type lpKey struct {
	assetID uint64
	addr    [20]byte
}

type mockEngineState struct {
	pools    map[uint64]*Pool
	byToken  map[uint64]uint64
	lp       map[lpKey]*big.Int
	list     []uint64
	balances map[[20]byte]*big.Int
}

var errMockInsufficientBalance = errors.New("mock state: insufficient balance")

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		pools:    make(map[uint64]*Pool),
		byToken:  make(map[uint64]uint64),
		lp:       make(map[lpKey]*big.Int),
		balances: make(map[[20]byte]*big.Int),
	}
}

func key20(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

func (m *mockEngineState) AMMPool(assetID uint64) (*Pool, bool, error) {
	pool, ok := m.pools[assetID]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockEngineState) AMMPutPool(pool *Pool) error {
	m.pools[pool.AssetID] = pool.Clone()
	return nil
}

func (m *mockEngineState) AMMPoolByToken(tokenID uint64) (uint64, bool, error) {
	assetID, ok := m.byToken[tokenID]
	return assetID, ok, nil
}

func (m *mockEngineState) AMMSetPoolByToken(tokenID, assetID uint64) error {
	m.byToken[tokenID] = assetID
	return nil
}

func (m *mockEngineState) AMMLPBalance(assetID uint64, addr crypto.Address) (*big.Int, error) {
	balance, ok := m.lp[lpKey{assetID, key20(addr)}]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *mockEngineState) AMMSetLPBalance(assetID uint64, addr crypto.Address, amount *big.Int) error {
	m.lp[lpKey{assetID, key20(addr)}] = new(big.Int).Set(amount)
	return nil
}

func (m *mockEngineState) AMMPoolList() ([]uint64, error) {
	return append([]uint64(nil), m.list...), nil
}

func (m *mockEngineState) AMMSetPoolList(ids []uint64) error {
	m.list = append([]uint64(nil), ids...)
	return nil
}

func (m *mockEngineState) usdcBalance(addr crypto.Address) *big.Int {
	balance, ok := m.balances[key20(addr)]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (m *mockEngineState) USDCTransfer(from, to crypto.Address, amount *big.Int) error {
	fromBal := m.usdcBalance(from)
	if fromBal.Cmp(amount) < 0 {
		return errMockInsufficientBalance
	}
	toBal := m.usdcBalance(to)
	m.balances[key20(from)] = fromBal.Sub(fromBal, amount)
	m.balances[key20(to)] = toBal.Add(toBal, amount)
	return nil
}

func (m *mockEngineState) fund(addr crypto.Address, amount int64) {
	m.balances[key20(addr)] = big.NewInt(amount)
}

// mockFractions is a single-allowance fraction ledger: TransferFrom succeeds
// for any spender, which is enough for engine-level tests.
type mockFractions struct {
	supplies map[uint64]*big.Int
	balances map[lpKey]*big.Int
}

func newMockFractions() *mockFractions {
	return &mockFractions{
		supplies: make(map[uint64]*big.Int),
		balances: make(map[lpKey]*big.Int),
	}
}

var errMockUnknownToken = errors.New("mock fractions: unknown token")

func (m *mockFractions) balance(tokenID uint64, addr crypto.Address) *big.Int {
	balance, ok := m.balances[lpKey{tokenID, key20(addr)}]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

func (m *mockFractions) move(tokenID uint64, from, to crypto.Address, amount *big.Int) error {
	fromBal := m.balance(tokenID, from)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("mock fractions: insufficient balance")
	}
	toBal := m.balance(tokenID, to)
	m.balances[lpKey{tokenID, key20(from)}] = fromBal.Sub(fromBal, amount)
	m.balances[lpKey{tokenID, key20(to)}] = toBal.Add(toBal, amount)
	return nil
}

func (m *mockFractions) Transfer(caller crypto.Address, tokenID uint64, to crypto.Address, amount *big.Int) error {
	return m.move(tokenID, caller, to, amount)
}

func (m *mockFractions) TransferFrom(spender crypto.Address, tokenID uint64, from, to crypto.Address, amount *big.Int) error {
	return m.move(tokenID, from, to, amount)
}

func (m *mockFractions) TotalSupply(tokenID uint64) (*big.Int, error) {
	supply, ok := m.supplies[tokenID]
	if !ok {
		return nil, errMockUnknownToken
	}
	return new(big.Int).Set(supply), nil
}

func (m *mockFractions) mint(tokenID uint64, addr crypto.Address, amount int64) {
	m.supplies[tokenID] = big.NewInt(amount)
	m.balances[lpKey{tokenID, key20(addr)}] = big.NewInt(amount)
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.WVPrefix, raw)
}

type fixture struct {
	engine    *Engine
	state     *mockEngineState
	fractions *mockFractions
}

func newFixture() *fixture {
	engine := NewEngine()
	state := newMockEngineState()
	fractions := newMockFractions()
	engine.SetState(state)
	engine.SetFractions(fractions)
	return &fixture{engine: engine, state: state, fractions: fractions}
}

const (
	testAsset = uint64(1)
	testToken = uint64(1)
)

func (fx *fixture) createPool(t *testing.T, feeBps uint64) {
	t.Helper()
	admin := makeAddress(0xff)
	if err := fx.engine.CreatePool(admin, testAsset, testToken, feeBps, admin); err != nil {
		t.Fatalf("createPool: %v", err)
	}
}

func TestCreatePoolGuards(t *testing.T) {
	fx := newFixture()
	admin := makeAddress(0xff)
	fx.fractions.mint(testToken, admin, 1_000)

	if err := fx.engine.CreatePool(admin, testAsset, testToken, 10_001, admin); !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("expected fee too high, got %v", err)
	}
	if err := fx.engine.CreatePool(admin, testAsset, 99, 30, admin); !errors.Is(err, errMockUnknownToken) {
		t.Fatalf("expected unknown token, got %v", err)
	}

	fx.createPool(t, 30)
	if err := fx.engine.CreatePool(admin, testAsset, testToken, 30, admin); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected pool exists, got %v", err)
	}
	// Same token under a different asset id is also a duplicate pair.
	if err := fx.engine.CreatePool(admin, 2, testToken, 30, admin); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("expected pool exists by token, got %v", err)
	}
}

func TestAddLiquiditySeedAndProRata(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	fx.fractions.mint(testToken, alice, 10_000)
	fx.state.fund(alice, 20_000)
	fx.state.fund(bob, 5_000)
	fx.createPool(t, 30)

	// Seed mints LP shares equal to the settlement leg.
	shares, err := fx.engine.AddLiquidity(alice, testAsset, big.NewInt(500), big.NewInt(10_000))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if shares.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("unexpected seed shares: %s", shares)
	}

	if err := fx.fractions.move(testToken, alice, bob, big.NewInt(100)); err != nil {
		t.Fatalf("fund bob fractions: %v", err)
	}
	shares, err = fx.engine.AddLiquidity(bob, testAsset, big.NewInt(50), big.NewInt(1_000))
	if err != nil {
		t.Fatalf("pro-rata add: %v", err)
	}
	// 1000 * 10000 / 10000
	if shares.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected pro-rata shares: %s", shares)
	}

	pool, _ := fx.engine.GetPool(testAsset)
	if pool.FractionReserve.Cmp(big.NewInt(550)) != 0 || pool.USDCReserve.Cmp(big.NewInt(11_000)) != 0 {
		t.Fatalf("unexpected reserves: %s/%s", pool.FractionReserve, pool.USDCReserve)
	}
	if pool.TotalLPShares.Cmp(big.NewInt(11_000)) != 0 {
		t.Fatalf("unexpected total LP shares: %s", pool.TotalLPShares)
	}
}

func TestSwapUSDCForFractionFormula(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	trader := makeAddress(0x02)
	fx.fractions.mint(testToken, alice, 1_000)
	fx.state.fund(alice, 10_000)
	fx.state.fund(trader, 100)
	fx.createPool(t, 30)

	if _, err := fx.engine.AddLiquidity(alice, testAsset, big.NewInt(500), big.NewInt(10_000)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := fx.engine.SwapUSDCForFraction(trader, testAsset, big.NewInt(100), big.NewInt(0))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	// netIn = 100*9970/10000 = 99; out = 500*99/(10000+99) = 4
	if out.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("unexpected output: %s", out)
	}

	pool, _ := fx.engine.GetPool(testAsset)
	if pool.USDCReserve.Cmp(big.NewInt(10_100)) != 0 || pool.FractionReserve.Cmp(big.NewInt(496)) != 0 {
		t.Fatalf("unexpected reserves after swap: %s/%s", pool.FractionReserve, pool.USDCReserve)
	}

	// Constant product must strictly increase under a positive fee.
	before := new(big.Int).Mul(big.NewInt(500), big.NewInt(10_000))
	after := new(big.Int).Mul(pool.FractionReserve, pool.USDCReserve)
	if after.Cmp(before) <= 0 {
		t.Fatalf("constant product decreased: %s -> %s", before, after)
	}

	if got := fx.fractions.balance(testToken, trader); got.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("trader fraction balance: %s", got)
	}
}

func TestSwapSlippageGuard(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	trader := makeAddress(0x02)
	fx.fractions.mint(testToken, alice, 1_000)
	fx.state.fund(alice, 10_000)
	fx.state.fund(trader, 100)
	fx.createPool(t, 30)

	if _, err := fx.engine.AddLiquidity(alice, testAsset, big.NewInt(500), big.NewInt(10_000)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := fx.engine.SwapUSDCForFraction(trader, testAsset, big.NewInt(100), big.NewInt(5)); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected slippage exceeded, got %v", err)
	}
	// A failed swap leaves reserves untouched.
	pool, _ := fx.engine.GetPool(testAsset)
	if pool.USDCReserve.Cmp(big.NewInt(10_000)) != 0 || pool.FractionReserve.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("reserves mutated on failed swap: %s/%s", pool.FractionReserve, pool.USDCReserve)
	}
}

func TestSwapFractionForUSDC(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	trader := makeAddress(0x02)
	fx.fractions.mint(testToken, alice, 1_000)
	fx.state.fund(alice, 10_000)
	fx.createPool(t, 0)

	if _, err := fx.engine.AddLiquidity(alice, testAsset, big.NewInt(500), big.NewInt(10_000)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := fx.fractions.move(testToken, alice, trader, big.NewInt(100)); err != nil {
		t.Fatalf("fund trader: %v", err)
	}

	out, err := fx.engine.SwapFractionForUSDC(trader, testAsset, big.NewInt(100), big.NewInt(0))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	// out = 10000*100/(500+100) = 1666 with no fee
	if out.Cmp(big.NewInt(1_666)) != 0 {
		t.Fatalf("unexpected output: %s", out)
	}
	if got := fx.state.usdcBalance(trader); got.Cmp(big.NewInt(1_666)) != 0 {
		t.Fatalf("trader settlement balance: %s", got)
	}
}

func TestSwapEmptyPool(t *testing.T) {
	fx := newFixture()
	admin := makeAddress(0xff)
	trader := makeAddress(0x02)
	fx.fractions.mint(testToken, admin, 1_000)
	fx.state.fund(trader, 100)
	fx.createPool(t, 30)

	if _, err := fx.engine.SwapUSDCForFraction(trader, testAsset, big.NewInt(100), nil); !errors.Is(err, ErrNoLiquidity) {
		t.Fatalf("expected no liquidity, got %v", err)
	}
}

func TestRemoveLiquidityProRata(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	fx.fractions.mint(testToken, alice, 1_000)
	fx.state.fund(alice, 10_000)
	fx.createPool(t, 30)

	if _, err := fx.engine.AddLiquidity(alice, testAsset, big.NewInt(500), big.NewInt(10_000)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := fx.engine.RemoveLiquidity(alice, testAsset, big.NewInt(20_000)); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("expected insufficient shares, got %v", err)
	}

	fractionOut, usdcOut, err := fx.engine.RemoveLiquidity(alice, testAsset, big.NewInt(5_000))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if fractionOut.Cmp(big.NewInt(250)) != 0 || usdcOut.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("unexpected payout: %s/%s", fractionOut, usdcOut)
	}

	pool, _ := fx.engine.GetPool(testAsset)
	if pool.FractionReserve.Cmp(big.NewInt(250)) != 0 || pool.USDCReserve.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("unexpected reserves: %s/%s", pool.FractionReserve, pool.USDCReserve)
	}
	remaining, _ := fx.engine.LPBalance(testAsset, alice)
	if remaining.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("unexpected LP balance: %s", remaining)
	}
}

func TestListPools(t *testing.T) {
	fx := newFixture()
	admin := makeAddress(0xff)
	fx.fractions.mint(1, admin, 100)
	fx.fractions.mint(2, admin, 100)

	if err := fx.engine.CreatePool(admin, 1, 1, 30, admin); err != nil {
		t.Fatalf("createPool: %v", err)
	}
	if err := fx.engine.CreatePool(admin, 2, 2, 50, admin); err != nil {
		t.Fatalf("createPool: %v", err)
	}

	pools, err := fx.engine.ListPools()
	if err != nil {
		t.Fatalf("listPools: %v", err)
	}
	if len(pools) != 2 || pools[0].AssetID != 1 || pools[1].AssetID != 2 {
		t.Fatalf("unexpected pool list: %+v", pools)
	}
	if pools[1].FeeBps != 50 {
		t.Fatalf("unexpected fee: %d", pools[1].FeeBps)
	}
}
