// Package token implements the fungible-token ledger the presale engine
// settles against: mint bookkeeping, per-owner accounts, and atomic balance
// transfers. All operations run inside the caller's storage transaction so
// a contribution's payment and token legs commit or roll back together.
package token

import (
	"context"
	"database/sql"
)

// NativeAsset is the reserved token identity for the chain's base currency.
const NativeAsset = "native"

// Mint describes a fungible token mint.
type Mint struct {
	TokenID         string
	Decimals        uint8
	Supply          uint64
	MintAuthority   string
	FreezeAuthority string
}

// Account is one owner's balance in one token.
type Account struct {
	TokenID   string
	Owner     string
	Authority string // identity allowed to move funds out of the account
	Balance   uint64
}

// Ledger exposes the token operations the presale engine needs.
type Ledger interface {
	// EnsureMint creates the mint if it does not exist. An existing mint is
	// left untouched regardless of the requested authorities.
	EnsureMint(ctx context.Context, mint Mint) error
	// CreateAccount creates an account with an explicit transfer authority.
	// Existing accounts are left untouched.
	CreateAccount(ctx context.Context, tokenID, owner, authority string) error
	// MintTo creates amount new units in the destination account and grows
	// the mint supply.
	MintTo(ctx context.Context, tokenID, destination string, amount uint64) error
	// Transfer moves amount between accounts. The authorizer must match the
	// source account's transfer authority.
	Transfer(ctx context.Context, tokenID, from, to, authorizer string, amount uint64) error
	// TransferNative moves amount of the native asset between accounts.
	TransferNative(ctx context.Context, from, to string, amount uint64) error
	// Balance returns the current balance, zero for unknown accounts.
	Balance(ctx context.Context, tokenID, owner string) (uint64, error)
}

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
