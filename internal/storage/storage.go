// Package storage defines the persistence contracts for the launchpad
// engine. Implementations must apply each transactional unit atomically and
// serialize writers touching the same records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/token"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Tx is the write surface available inside one storage transaction. Every
// mutation performed through a Tx commits or rolls back as a unit, including
// ledger balance movements obtained through Ledger().
type Tx interface {
	GetFactory(ctx context.Context, id string) (domain.Factory, error)
	InsertFactory(ctx context.Context, factory domain.Factory) error
	UpdateFactory(ctx context.Context, factory domain.Factory) error

	GetPresale(ctx context.Context, id string) (domain.Presale, error)
	InsertPresale(ctx context.Context, presale domain.Presale) error
	UpdatePresale(ctx context.Context, presale domain.Presale) error

	IsParticipant(ctx context.Context, presaleID, identity string) (bool, error)
	AddParticipant(ctx context.Context, presaleID, identity string, at time.Time) error
	RemoveParticipant(ctx context.Context, presaleID, identity string) error

	UpsertBuyer(ctx context.Context, presaleID, identity string, amount, tokens uint64, at time.Time) error

	// Ledger returns token operations scoped to this transaction.
	Ledger() token.Ledger
}

// Store is the durable keyed storage consumed by the services.
type Store interface {
	// InTx runs fn inside one write transaction. A non-nil error from fn
	// rolls every mutation back.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetFactory(ctx context.Context, id string) (domain.Factory, error)
	GetPresale(ctx context.Context, id string) (domain.Presale, error)
	ListParticipants(ctx context.Context, presaleID string) ([]string, error)
	ListBuyers(ctx context.Context, query BuyerQuery) (BuyerPage, error)
}

// BuyerQuery selects a page of buyer records for one presale.
type BuyerQuery struct {
	PresaleID string
	PageSize  int
	PageToken string
	// Filter is an optional AIP-160 expression over identity and amount.
	Filter string
}

// BuyerPage is one page of buyer records in first-contribution order.
type BuyerPage struct {
	Buyers        []domain.Buyer
	NextPageToken string
}

// Event is a best-effort notification record.
type Event struct {
	ID        string
	Type      string
	PresaleID string
	Identity  string
	Amount    uint64
	Tokens    uint64
	Timestamp time.Time
}

// EventStore appends notification records.
type EventStore interface {
	AppendEvent(ctx context.Context, event Event) error
}
