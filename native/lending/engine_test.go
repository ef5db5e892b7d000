package lending

import (
	"errors"
	"math/big"
	"testing"

	"watchvault/crypto"
	"watchvault/native/oracle"
)

type mockEngineState struct {
	pool     *Pool
	shares   map[[20]byte]*big.Int
	loans    map[uint64]*Loan
	history  map[uint64][]*Loan
	balances map[[20]byte]*big.Int
}

var errMockInsufficientBalance = errors.New("mock state: insufficient balance")

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		pool:     &Pool{TotalPoolUSDC: big.NewInt(0), TotalShares: big.NewInt(0)},
		shares:   make(map[[20]byte]*big.Int),
		loans:    make(map[uint64]*Loan),
		history:  make(map[uint64][]*Loan),
		balances: make(map[[20]byte]*big.Int),
	}
}

func key20(addr crypto.Address) [20]byte {
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out
}

func (m *mockEngineState) LendingPool() (*Pool, error) { return m.pool.Clone(), nil }

func (m *mockEngineState) LendingSetPool(pool *Pool) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockEngineState) LendingShares(lender crypto.Address) (*big.Int, error) {
	shares, ok := m.shares[key20(lender)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(shares), nil
}

func (m *mockEngineState) LendingSetShares(lender crypto.Address, shares *big.Int) error {
	m.shares[key20(lender)] = new(big.Int).Set(shares)
	return nil
}

func (m *mockEngineState) LendingLoan(assetID uint64) (*Loan, bool, error) {
	loan, ok := m.loans[assetID]
	if !ok {
		return nil, false, nil
	}
	return loan.Clone(), true, nil
}

func (m *mockEngineState) LendingPutLoan(loan *Loan) error {
	m.loans[loan.AssetID] = loan.Clone()
	return nil
}

func (m *mockEngineState) LendingLoanHistory(assetID uint64) ([]*Loan, error) {
	history := m.history[assetID]
	out := make([]*Loan, 0, len(history))
	for _, loan := range history {
		out = append(out, loan.Clone())
	}
	return out, nil
}

func (m *mockEngineState) LendingAppendLoanHistory(assetID uint64, loan *Loan) error {
	m.history[assetID] = append(m.history[assetID], loan.Clone())
	return nil
}

func (m *mockEngineState) USDCBalance(addr crypto.Address) (*big.Int, error) {
	bal, ok := m.balances[key20(addr)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (m *mockEngineState) USDCTransfer(from, to crypto.Address, amount *big.Int) error {
	fromBal, _ := m.USDCBalance(from)
	if fromBal.Cmp(amount) < 0 {
		return errMockInsufficientBalance
	}
	toBal, _ := m.USDCBalance(to)
	m.balances[key20(from)] = fromBal.Sub(fromBal, amount)
	m.balances[key20(to)] = toBal.Add(toBal, amount)
	return nil
}

func (m *mockEngineState) fund(addr crypto.Address, amount int64) {
	m.balances[key20(addr)] = big.NewInt(amount)
}

type mockRegistry struct {
	owners map[uint64]crypto.Address
}

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
		return errors.New("mock registry: not owner")
	}
	m.owners[assetID] = to
	return nil
}

type mockOracle struct {
	prices map[uint64]*big.Int
}

func (m *mockOracle) GetPrice(assetID uint64) (*big.Int, error) {
	price, ok := m.prices[assetID]
	if !ok {
		return nil, oracle.ErrPriceNotSet
	}
	return new(big.Int).Set(price), nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.WVPrefix, raw)
}

type fixture struct {
	engine   *Engine
	state    *mockEngineState
	registry *mockRegistry
	oracle   *mockOracle
}

func newFixture() *fixture {
	engine := NewEngine(8_000, 200)
	state := newMockEngineState()
	registry := &mockRegistry{owners: make(map[uint64]crypto.Address)}
	source := &mockOracle{prices: make(map[uint64]*big.Int)}
	engine.SetState(state)
	engine.SetRegistry(registry)
	engine.SetOracle(source)
	return &fixture{engine: engine, state: state, registry: registry, oracle: source}
}

func TestDepositMintsShares(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	fx.state.fund(alice, 1_000)
	fx.state.fund(bob, 500)

	shares, err := fx.engine.Deposit(alice, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if shares.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected first-deposit shares: %s", shares)
	}

	shares, err = fx.engine.Deposit(bob, big.NewInt(500))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if shares.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected pro-rata shares: %s", shares)
	}

	pool, _ := fx.engine.GetPoolInfo()
	if pool.TotalPoolUSDC.Cmp(big.NewInt(1_500)) != 0 || pool.TotalShares.Cmp(big.NewInt(1_500)) != 0 {
		t.Fatalf("unexpected pool totals: %+v", pool)
	}
}

func TestDepositRejectsZeroAndUnfunded(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)

	if _, err := fx.engine.Deposit(alice, big.NewInt(0)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected zero amount, got %v", err)
	}
	if _, err := fx.engine.Deposit(alice, big.NewInt(10)); !errors.Is(err, errMockInsufficientBalance) {
		t.Fatalf("expected balance failure, got %v", err)
	}
}

func TestBorrowAgainstCollateral(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	fx.state.fund(lender, 1_000)
	fx.registry.owners[1] = borrower
	fx.oracle.prices[1] = big.NewInt(200)

	if _, err := fx.engine.Deposit(lender, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	principal, err := fx.engine.DepositNFTAndBorrow(borrower, 1)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	// 200 * 8000 / 10000
	if principal.Cmp(big.NewInt(160)) != 0 {
		t.Fatalf("unexpected principal: %s", principal)
	}

	balance, _ := fx.state.USDCBalance(borrower)
	if balance.Cmp(big.NewInt(160)) != 0 {
		t.Fatalf("principal not disbursed: %s", balance)
	}
	pool, _ := fx.engine.GetPoolInfo()
	if pool.TotalPoolUSDC.Cmp(big.NewInt(840)) != 0 {
		t.Fatalf("pool cash not reduced: %s", pool.TotalPoolUSDC)
	}
	if pool.TotalShares.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("shares must not change on borrow: %s", pool.TotalShares)
	}
	if !fx.registry.owners[1].Equal(fx.engine.Treasury()) {
		t.Fatalf("collateral not held by pool treasury")
	}
}

func TestDepositIntoDrainedPoolRejected(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	late := makeAddress(0x03)
	fx.state.fund(lender, 160)
	fx.state.fund(borrower, 100)
	fx.state.fund(late, 500)
	fx.registry.owners[1] = borrower
	fx.oracle.prices[1] = big.NewInt(200)

	if _, err := fx.engine.Deposit(lender, big.NewInt(160)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	// Principal 160 exactly drains the pool cash while shares stay at 160.
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	pool, _ := fx.engine.GetPoolInfo()
	if pool.TotalPoolUSDC.Sign() != 0 || pool.TotalShares.Cmp(big.NewInt(160)) != 0 {
		t.Fatalf("unexpected drained pool: %s/%s", pool.TotalPoolUSDC, pool.TotalShares)
	}

	if _, err := fx.engine.Deposit(late, big.NewInt(100)); !errors.Is(err, ErrPoolDrained) {
		t.Fatalf("expected pool drained, got %v", err)
	}
	balance, _ := fx.state.USDCBalance(late)
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("rejected deposit must not move funds: %s", balance)
	}

	// Repayment restores the share price and deposits resume.
	if _, err := fx.engine.RepayLoan(borrower, 1); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if _, err := fx.engine.Deposit(late, big.NewInt(100)); err != nil {
		t.Fatalf("deposit after repayment: %v", err)
	}
}

func TestBorrowFailureModes(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	stranger := makeAddress(0x03)
	fx.state.fund(lender, 100)
	fx.registry.owners[1] = borrower
	fx.registry.owners[2] = borrower

	if _, err := fx.engine.DepositNFTAndBorrow(stranger, 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); !errors.Is(err, ErrOraclePriceNotSet) {
		t.Fatalf("expected oracle price not set, got %v", err)
	}

	fx.oracle.prices[1] = big.NewInt(200)
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); !errors.Is(err, ErrInsufficientPoolLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}

	if _, err := fx.engine.Deposit(lender, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	fx.oracle.prices[1] = big.NewInt(100)
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Collateral now belongs to the treasury, so a second borrow against the
	// same asset fails the ownership check; an active loan also blocks it.
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner on double borrow, got %v", err)
	}
}

func TestRepaymentAmountAndRepay(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	fx.state.fund(lender, 10_000)
	fx.state.fund(borrower, 100)
	fx.registry.owners[1] = borrower
	fx.oracle.prices[1] = big.NewInt(2_000)

	if _, err := fx.engine.Deposit(lender, big.NewInt(10_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	principal, err := fx.engine.DepositNFTAndBorrow(borrower, 1)
	if err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if principal.Cmp(big.NewInt(1_600)) != 0 {
		t.Fatalf("unexpected principal: %s", principal)
	}

	repayment, err := fx.engine.GetRepaymentAmount(1)
	if err != nil {
		t.Fatalf("getRepaymentAmount: %v", err)
	}
	// 1600 + 1600*200/10000
	if repayment.Cmp(big.NewInt(1_632)) != 0 {
		t.Fatalf("unexpected repayment: %s", repayment)
	}

	paid, err := fx.engine.RepayLoan(borrower, 1)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if paid.Cmp(repayment) != 0 {
		t.Fatalf("unexpected paid amount: %s", paid)
	}
	if !fx.registry.owners[1].Equal(borrower) {
		t.Fatalf("collateral not returned to borrower")
	}

	// Interest accrues to the pool, so the lender's withdrawal carries profit.
	pool, _ := fx.engine.GetPoolInfo()
	if pool.TotalPoolUSDC.Cmp(big.NewInt(10_032)) != 0 {
		t.Fatalf("unexpected pool cash after repay: %s", pool.TotalPoolUSDC)
	}
	amountOut, err := fx.engine.Withdraw(lender, big.NewInt(10_000))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if amountOut.Cmp(big.NewInt(10_032)) != 0 {
		t.Fatalf("unexpected withdrawal: %s", amountOut)
	}

	if _, err := fx.engine.GetRepaymentAmount(1); !errors.Is(err, ErrNoActiveLoan) {
		t.Fatalf("expected no active loan after repay, got %v", err)
	}
	if _, err := fx.engine.RepayLoan(borrower, 1); !errors.Is(err, ErrNoActiveLoan) {
		t.Fatalf("expected no active loan on double repay, got %v", err)
	}
}

func TestThirdPartyRepayReturnsCollateralToBorrower(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	benefactor := makeAddress(0x03)
	fx.state.fund(lender, 1_000)
	fx.state.fund(benefactor, 1_000)
	fx.registry.owners[1] = borrower
	fx.oracle.prices[1] = big.NewInt(200)

	if _, err := fx.engine.Deposit(lender, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	if _, err := fx.engine.RepayLoan(benefactor, 1); err != nil {
		t.Fatalf("third-party repay: %v", err)
	}
	if !fx.registry.owners[1].Equal(borrower) {
		t.Fatalf("collateral must return to the original borrower")
	}
}

func TestReborrowAfterRepayAppendsHistory(t *testing.T) {
	fx := newFixture()
	lender := makeAddress(0x01)
	borrower := makeAddress(0x02)
	fx.state.fund(lender, 1_000)
	fx.state.fund(borrower, 100)
	fx.registry.owners[1] = borrower
	fx.oracle.prices[1] = big.NewInt(200)

	if _, err := fx.engine.Deposit(lender, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	if _, err := fx.engine.RepayLoan(borrower, 1); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if _, err := fx.engine.DepositNFTAndBorrow(borrower, 1); err != nil {
		t.Fatalf("second borrow: %v", err)
	}

	history, err := fx.engine.LoanHistory(1)
	if err != nil {
		t.Fatalf("loanHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("unexpected history length: %d", len(history))
	}
	for i, loan := range history {
		if loan.Principal.Cmp(big.NewInt(160)) != 0 {
			t.Fatalf("unexpected principal in history entry %d: %s", i, loan.Principal)
		}
	}

	current, err := fx.engine.GetLoan(1)
	if err != nil {
		t.Fatalf("getLoan: %v", err)
	}
	if current.Repaid {
		t.Fatalf("current loan must be active after re-borrow")
	}
}

func TestWithdrawInsufficientShares(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	fx.state.fund(alice, 100)

	if _, err := fx.engine.Deposit(alice, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := fx.engine.Withdraw(alice, big.NewInt(101)); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("expected insufficient shares, got %v", err)
	}
}

func TestGetLenderValueTracksPool(t *testing.T) {
	fx := newFixture()
	alice := makeAddress(0x01)
	fx.state.fund(alice, 1_000)

	if _, err := fx.engine.Deposit(alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	position, err := fx.engine.GetLender(alice)
	if err != nil {
		t.Fatalf("getLender: %v", err)
	}
	if position.Shares.Cmp(big.NewInt(1_000)) != 0 || position.USDCValue.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected position: %+v", position)
	}
}
