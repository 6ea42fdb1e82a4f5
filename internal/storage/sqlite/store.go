// Package sqlite provides the SQLite-backed launchpad store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qerralabs/launchpad/internal/platform/storage/sqlitemigrate"
	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
	"github.com/qerralabs/launchpad/internal/storage/sqlite/migrations"
	"github.com/qerralabs/launchpad/internal/token"
)

// Store persists launchpad state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite launchpad store and applies embedded migrations.
// Write transactions take the database lock immediately, which is the
// per-record serialization the contribution engine relies on.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InTx runs fn inside one write transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	wrapped := &tx{q: sqlTx}
	if err := fn(wrapped); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// tx implements storage.Tx over one *sql.Tx.
type tx struct {
	q *sql.Tx
}

func (t *tx) GetFactory(ctx context.Context, id string) (domain.Factory, error) {
	return getFactory(ctx, t.q, id)
}

func (t *tx) InsertFactory(ctx context.Context, factory domain.Factory) error {
	return insertFactory(ctx, t.q, factory)
}

func (t *tx) UpdateFactory(ctx context.Context, factory domain.Factory) error {
	return updateFactory(ctx, t.q, factory)
}

func (t *tx) GetPresale(ctx context.Context, id string) (domain.Presale, error) {
	return getPresale(ctx, t.q, id)
}

func (t *tx) InsertPresale(ctx context.Context, presale domain.Presale) error {
	return insertPresale(ctx, t.q, presale)
}

func (t *tx) UpdatePresale(ctx context.Context, presale domain.Presale) error {
	return updatePresale(ctx, t.q, presale)
}

func (t *tx) IsParticipant(ctx context.Context, presaleID, identity string) (bool, error) {
	return isParticipant(ctx, t.q, presaleID, identity)
}

func (t *tx) AddParticipant(ctx context.Context, presaleID, identity string, at time.Time) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO participants (presale_id, identity, added_at) VALUES (?, ?, ?)`,
		presaleID, identity, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (t *tx) RemoveParticipant(ctx context.Context, presaleID, identity string) error {
	_, err := t.q.ExecContext(ctx,
		`DELETE FROM participants WHERE presale_id = ? AND identity = ?`,
		presaleID, identity,
	)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (t *tx) UpsertBuyer(ctx context.Context, presaleID, identity string, amount, tokens uint64, at time.Time) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO buyers (presale_id, identity, amount, tokens_purchased, first_purchase_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (presale_id, identity) DO UPDATE SET
		   amount = amount + excluded.amount,
		   tokens_purchased = tokens_purchased + excluded.tokens_purchased,
		   updated_at = excluded.updated_at`,
		presaleID, identity, int64(amount), int64(tokens), toMillis(at), toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("upsert buyer: %w", err)
	}
	return nil
}

func (t *tx) Ledger() token.Ledger {
	return token.NewSQLLedger(t.q)
}

// GetFactory reads one factory outside a write transaction.
func (s *Store) GetFactory(ctx context.Context, id string) (domain.Factory, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Factory{}, fmt.Errorf("storage is not configured")
	}
	return getFactory(ctx, s.sqlDB, id)
}

// GetPresale reads one presale outside a write transaction.
func (s *Store) GetPresale(ctx context.Context, id string) (domain.Presale, error) {
	if s == nil || s.sqlDB == nil {
		return domain.Presale{}, fmt.Errorf("storage is not configured")
	}
	return getPresale(ctx, s.sqlDB, id)
}

// ListParticipants returns the whitelist members for a presale.
func (s *Store) ListParticipants(ctx context.Context, presaleID string) ([]string, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT identity FROM participants WHERE presale_id = ? ORDER BY identity`,
		presaleID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// Ledger returns a ledger bound to the store outside a write transaction,
// for reads and test seeding.
func (s *Store) Ledger() *token.SQLLedger {
	return token.NewSQLLedger(s.sqlDB)
}

// AppendEvent records one best-effort notification row.
func (s *Store) AppendEvent(ctx context.Context, event storage.Event) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO events (id, event_type, presale_id, identity, amount, tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Type, event.PresaleID, event.Identity,
		int64(event.Amount), int64(event.Tokens), toMillis(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
