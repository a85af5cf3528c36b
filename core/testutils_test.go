package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeLedger implements TokenLedger for testing with injectable failures
type fakeLedger struct {
	balances    map[Account]decimal.Decimal
	allowances  map[Account]map[Account]decimal.Decimal
	transferErr error // returned by the next TransferFrom when set
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:   make(map[Account]decimal.Decimal),
		allowances: make(map[Account]map[Account]decimal.Decimal),
	}
}

func (l *fakeLedger) mint(account Account, amount decimal.Decimal) {
	l.balances[account] = l.balances[account].Add(amount)
}

func (l *fakeLedger) approve(owner, spender Account, amount decimal.Decimal) {
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[Account]decimal.Decimal)
	}
	l.allowances[owner][spender] = amount
}

func (l *fakeLedger) BalanceOf(account Account) decimal.Decimal {
	return l.balances[account]
}

func (l *fakeLedger) Allowance(owner, spender Account) decimal.Decimal {
	return l.allowances[owner][spender]
}

func (l *fakeLedger) TransferFrom(spender, owner, to Account, amount decimal.Decimal) error {
	if l.transferErr != nil {
		err := l.transferErr
		l.transferErr = nil
		return err
	}
	if l.balances[owner].LessThan(amount) {
		return ErrInsufficientBalance
	}
	if spender != owner {
		if l.allowances[owner][spender].LessThan(amount) {
			return ErrInsufficientAllowance
		}
		l.allowances[owner][spender] = l.allowances[owner][spender].Sub(amount)
	}
	l.balances[owner] = l.balances[owner].Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}

// fakeRegistry implements AssetRegistry for testing
type fakeRegistry struct {
	owners      map[uint64]Account
	operators   map[Account]map[Account]bool
	transferErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		owners:    make(map[uint64]Account),
		operators: make(map[Account]map[Account]bool),
	}
}

func (r *fakeRegistry) mint(tokenID uint64, owner Account) {
	r.owners[tokenID] = owner
}

func (r *fakeRegistry) setApprovalForAll(owner, operator Account) {
	if r.operators[owner] == nil {
		r.operators[owner] = make(map[Account]bool)
	}
	r.operators[owner][operator] = true
}

func (r *fakeRegistry) OwnerOf(tokenID uint64) (Account, bool) {
	owner, ok := r.owners[tokenID]
	return owner, ok
}

func (r *fakeRegistry) IsTransferAuthorized(tokenID uint64, spender Account) bool {
	owner, ok := r.owners[tokenID]
	if !ok {
		return false
	}
	return r.operators[owner][spender]
}

func (r *fakeRegistry) Transfer(spender Account, tokenID uint64, from, to Account) error {
	if r.transferErr != nil {
		err := r.transferErr
		r.transferErr = nil
		return err
	}
	if r.owners[tokenID] != from || !r.IsTransferAuthorized(tokenID, spender) {
		return errNotAuthorized
	}
	r.owners[tokenID] = to
	return nil
}

var errNotAuthorized = errors.New("transfer not authorized")

// fakeClock is a frozen clock tests advance explicitly
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// recordingSink captures published events in order
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(event Event) {
	s.events = append(s.events, event)
}

func (s *recordingSink) last() Event {
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

const (
	marketAccount = Account("bazaar")
	adminAccount  = Account("admin")
	seller        = Account("player1")
	bidderB       = Account("player2")
	bidderC       = Account("player3")
	buyerD        = Account("player4")
)

// testWorld stages a market with three monkeys owned by seller and funded,
// market-approved bidders, mirroring the original deployment's setup phase.
type testWorld struct {
	bazaar   *Bazaar
	ledger   *fakeLedger
	registry *fakeRegistry
	clock    *fakeClock
	sink     *recordingSink
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()

	ledger := newFakeLedger()
	registry := newFakeRegistry()
	clock := newFakeClock()
	sink := &recordingSink{}

	for _, player := range []Account{seller, bidderB, bidderC, buyerD} {
		ledger.mint(player, dec(100_000))
		ledger.approve(player, marketAccount, dec(100_000))
	}
	for tokenID := uint64(1); tokenID <= 3; tokenID++ {
		registry.mint(tokenID, seller)
	}
	registry.setApprovalForAll(seller, marketAccount)

	return &testWorld{
		bazaar:   New(ledger, registry, marketAccount, adminAccount, clock, sink),
		ledger:   ledger,
		registry: registry,
		clock:    clock,
		sink:     sink,
	}
}
