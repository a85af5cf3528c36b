// Package ledger provides in-memory reference implementations of the two
// collaborators the bazaar engine consumes: the MONK fungible token ledger
// and the Monkeys unique-asset registry. They implement the narrow
// interfaces defined by the core package and add the staging operations
// (mint, approve) the engine itself never performs.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/monkeybrothers/bazaar/core"
)

// MonkLedger is an in-memory fungible token ledger with per-spender
// allowances. An owner moving its own funds needs no allowance; any other
// spender consumes the allowance the owner granted it.
type MonkLedger struct {
	balances   map[core.Account]decimal.Decimal
	allowances map[core.Account]map[core.Account]decimal.Decimal
}

func NewMonkLedger() *MonkLedger {
	return &MonkLedger{
		balances:   make(map[core.Account]decimal.Decimal),
		allowances: make(map[core.Account]map[core.Account]decimal.Decimal),
	}
}

// Mint credits freshly issued tokens to an account. Issuance policy lives
// outside this package; Mint exists to stage balances.
func (l *MonkLedger) Mint(account core.Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("cannot mint negative amount %s", amount)
	}
	l.balances[account] = l.balances[account].Add(amount)
	return nil
}

// Approve sets the allowance a spender may pull from owner's balance,
// replacing any previous allowance.
func (l *MonkLedger) Approve(owner, spender core.Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("cannot approve negative amount %s", amount)
	}
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[core.Account]decimal.Decimal)
	}
	l.allowances[owner][spender] = amount
	return nil
}

func (l *MonkLedger) BalanceOf(account core.Account) decimal.Decimal {
	return l.balances[account]
}

func (l *MonkLedger) Allowance(owner, spender core.Account) decimal.Decimal {
	return l.allowances[owner][spender]
}

// TransferFrom moves amount from owner to the recipient on behalf of
// spender. The balance check runs before the allowance check, so an
// overdraft reports insufficient balance even when the allowance is also
// short.
func (l *MonkLedger) TransferFrom(spender, owner, to core.Account, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("cannot transfer negative amount %s", amount)
	}
	if l.balances[owner].LessThan(amount) {
		return core.ErrInsufficientBalance
	}
	if spender != owner {
		if l.allowances[owner][spender].LessThan(amount) {
			return core.ErrInsufficientAllowance
		}
		l.allowances[owner][spender] = l.allowances[owner][spender].Sub(amount)
	}
	l.balances[owner] = l.balances[owner].Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}

// MonkState is a point-in-time capture of the ledger for persistence.
type MonkState struct {
	Balances   map[core.Account]decimal.Decimal                  `json:"balances" cbor:"balances"`
	Allowances map[core.Account]map[core.Account]decimal.Decimal `json:"allowances" cbor:"allowances"`
}

// Snapshot deep-copies the ledger state.
func (l *MonkLedger) Snapshot() *MonkState {
	state := &MonkState{
		Balances:   make(map[core.Account]decimal.Decimal, len(l.balances)),
		Allowances: make(map[core.Account]map[core.Account]decimal.Decimal, len(l.allowances)),
	}
	for account, balance := range l.balances {
		state.Balances[account] = balance
	}
	for owner, grants := range l.allowances {
		copied := make(map[core.Account]decimal.Decimal, len(grants))
		for spender, amount := range grants {
			copied[spender] = amount
		}
		state.Allowances[owner] = copied
	}
	return state
}

// Restore replaces the ledger state with a previously captured one.
func (l *MonkLedger) Restore(state *MonkState) {
	l.balances = make(map[core.Account]decimal.Decimal, len(state.Balances))
	for account, balance := range state.Balances {
		l.balances[account] = balance
	}
	l.allowances = make(map[core.Account]map[core.Account]decimal.Decimal, len(state.Allowances))
	for owner, grants := range state.Allowances {
		copied := make(map[core.Account]decimal.Decimal, len(grants))
		for spender, amount := range grants {
			copied[spender] = amount
		}
		l.allowances[owner] = copied
	}
}
