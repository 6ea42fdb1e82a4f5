package token

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/qerralabs/launchpad/internal/errors"
)

// SQLLedger is a SQLite-backed Ledger bound to a DBTX. Binding it to a
// *sql.Tx scopes every balance movement to that transaction.
//
// Balances and supplies are stored as the int64 bit pattern of their uint64
// value.
type SQLLedger struct {
	db DBTX
}

// NewSQLLedger creates a ledger over the given query surface.
func NewSQLLedger(db DBTX) *SQLLedger {
	return &SQLLedger{db: db}
}

// EnsureMint creates the mint row if missing.
func (l *SQLLedger) EnsureMint(ctx context.Context, mint Mint) error {
	tokenID := strings.TrimSpace(mint.TokenID)
	if tokenID == "" {
		return fmt.Errorf("token id is required")
	}
	if tokenID == NativeAsset {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO token_mints (token_id, decimals, supply, mint_authority, freeze_authority)
		 VALUES (?, ?, 0, ?, ?)`,
		tokenID, mint.Decimals, mint.MintAuthority, mint.FreezeAuthority,
	)
	if err != nil {
		return fmt.Errorf("ensure mint %s: %w", tokenID, err)
	}
	return nil
}

// CreateAccount creates the account row if missing.
func (l *SQLLedger) CreateAccount(ctx context.Context, tokenID, owner, authority string) error {
	if strings.TrimSpace(tokenID) == "" || strings.TrimSpace(owner) == "" {
		return fmt.Errorf("token id and owner are required")
	}
	if strings.TrimSpace(authority) == "" {
		authority = owner
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO token_accounts (token_id, owner, authority, balance)
		 VALUES (?, ?, ?, 0)`,
		tokenID, owner, authority,
	)
	if err != nil {
		return fmt.Errorf("create account %s/%s: %w", tokenID, owner, err)
	}
	return nil
}

// MintTo credits freshly minted units to the destination account.
func (l *SQLLedger) MintTo(ctx context.Context, tokenID, destination string, amount uint64) error {
	if tokenID == NativeAsset {
		return l.credit(ctx, NativeAsset, destination, amount)
	}
	var supply int64
	err := l.db.QueryRowContext(ctx,
		`SELECT supply FROM token_mints WHERE token_id = ?`, tokenID,
	).Scan(&supply)
	if err == sql.ErrNoRows {
		return errors.WithMetadata(errors.CodeNotFound, "token mint not found",
			map[string]string{"token_id": tokenID})
	}
	if err != nil {
		return fmt.Errorf("load mint %s: %w", tokenID, err)
	}
	if amount > ^uint64(0)-uint64(supply) {
		return fmt.Errorf("mint %s: supply overflow", tokenID)
	}
	if _, err := l.db.ExecContext(ctx,
		`UPDATE token_mints SET supply = ? WHERE token_id = ?`,
		int64(uint64(supply)+amount), tokenID,
	); err != nil {
		return fmt.Errorf("grow supply %s: %w", tokenID, err)
	}
	return l.credit(ctx, tokenID, destination, amount)
}

// Transfer debits from and credits to, enforcing the source authority.
func (l *SQLLedger) Transfer(ctx context.Context, tokenID, from, to, authorizer string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	var balance int64
	var authority string
	err := l.db.QueryRowContext(ctx,
		`SELECT balance, authority FROM token_accounts WHERE token_id = ? AND owner = ?`,
		tokenID, from,
	).Scan(&balance, &authority)
	if err == sql.ErrNoRows {
		return errors.WithMetadata(errors.CodeInsufficientFunds, "source account not found",
			map[string]string{"token_id": tokenID, "owner": from})
	}
	if err != nil {
		return fmt.Errorf("load account %s/%s: %w", tokenID, from, err)
	}
	if authorizer != authority {
		return errors.WithMetadata(errors.CodeUnauthorized, "authorizer cannot move funds from this account",
			map[string]string{"token_id": tokenID, "owner": from})
	}
	if uint64(balance) < amount {
		return errors.WithMetadata(errors.CodeInsufficientFunds, "insufficient balance",
			map[string]string{"token_id": tokenID, "owner": from})
	}
	if _, err := l.db.ExecContext(ctx,
		`UPDATE token_accounts SET balance = ? WHERE token_id = ? AND owner = ?`,
		int64(uint64(balance)-amount), tokenID, from,
	); err != nil {
		return fmt.Errorf("debit %s/%s: %w", tokenID, from, err)
	}
	return l.credit(ctx, tokenID, to, amount)
}

// TransferNative moves the base currency. Native account authority is always
// the owner.
func (l *SQLLedger) TransferNative(ctx context.Context, from, to string, amount uint64) error {
	return l.Transfer(ctx, NativeAsset, from, to, from, amount)
}

// Balance returns the balance for an account, zero when absent.
func (l *SQLLedger) Balance(ctx context.Context, tokenID, owner string) (uint64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx,
		`SELECT balance FROM token_accounts WHERE token_id = ? AND owner = ?`,
		tokenID, owner,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance %s/%s: %w", tokenID, owner, err)
	}
	return uint64(balance), nil
}

// Supply returns the minted supply of a token.
func (l *SQLLedger) Supply(ctx context.Context, tokenID string) (uint64, error) {
	var supply int64
	err := l.db.QueryRowContext(ctx,
		`SELECT supply FROM token_mints WHERE token_id = ?`, tokenID,
	).Scan(&supply)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load supply %s: %w", tokenID, err)
	}
	return uint64(supply), nil
}

func (l *SQLLedger) credit(ctx context.Context, tokenID, owner string, amount uint64) error {
	if err := l.CreateAccount(ctx, tokenID, owner, owner); err != nil {
		return err
	}
	var balance int64
	if err := l.db.QueryRowContext(ctx,
		`SELECT balance FROM token_accounts WHERE token_id = ? AND owner = ?`,
		tokenID, owner,
	).Scan(&balance); err != nil {
		return fmt.Errorf("load account %s/%s: %w", tokenID, owner, err)
	}
	if amount > ^uint64(0)-uint64(balance) {
		return fmt.Errorf("credit %s/%s: balance overflow", tokenID, owner)
	}
	if _, err := l.db.ExecContext(ctx,
		`UPDATE token_accounts SET balance = ? WHERE token_id = ? AND owner = ?`,
		int64(uint64(balance)+amount), tokenID, owner,
	); err != nil {
		return fmt.Errorf("credit %s/%s: %w", tokenID, owner, err)
	}
	return nil
}
