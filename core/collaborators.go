package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Collaborator failures surfaced by TokenLedger implementations.
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// TokenLedger is the fungible currency collaborator. The market never holds
// custody of player funds outside its own account: every pull identifies the
// spender exercising a previously granted allowance. An owner moving its own
// funds requires no allowance.
type TokenLedger interface {
	BalanceOf(account Account) decimal.Decimal
	Allowance(owner, spender Account) decimal.Decimal
	TransferFrom(spender, owner, to Account, amount decimal.Decimal) error
}

// AssetRegistry is the unique-asset collaborator. Transfer is callable only
// by a spender the owner has authorized, per asset or blanket.
type AssetRegistry interface {
	OwnerOf(tokenID uint64) (Account, bool)
	IsTransferAuthorized(tokenID uint64, spender Account) bool
	Transfer(spender Account, tokenID uint64, from, to Account) error
}
