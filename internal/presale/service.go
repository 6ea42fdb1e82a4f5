// Package presale orchestrates the factory registry and the contribution
// engine. Every mutating operation runs as one storage transaction, so the
// payment leg, the token leg, and the state update of a contribution commit
// or roll back together.
package presale

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/qerralabs/launchpad/internal/errors"
	"github.com/qerralabs/launchpad/internal/platform/id"
	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
	"github.com/qerralabs/launchpad/internal/telemetry"
	"github.com/qerralabs/launchpad/internal/token"
)

// Service exposes the presale engine operations.
type Service struct {
	store       storage.Store
	events      *telemetry.Emitter
	clock       func() time.Time
	idGenerator func() (string, error)
}

// NewService creates a Service with default clock and id generation.
func NewService(store storage.Store, events *telemetry.Emitter) *Service {
	return &Service{
		store:       store,
		events:      events,
		clock:       time.Now,
		idGenerator: id.NewID,
	}
}

// InitializeFactoryRequest carries the inputs for InitializeFactory.
type InitializeFactoryRequest struct {
	Owner       string
	PlatformFee uint64
}

// InitializeFactory creates a new factory registry owned by the caller.
func (s *Service) InitializeFactory(ctx context.Context, req InitializeFactoryRequest) (domain.Factory, error) {
	if s.store == nil {
		return domain.Factory{}, fmt.Errorf("store is not configured")
	}

	factory, err := domain.InitializeFactory(domain.InitializeFactoryInput{
		Owner:       req.Owner,
		PlatformFee: req.PlatformFee,
	}, s.clock, s.idGenerator)
	if err != nil {
		return domain.Factory{}, err
	}

	err = s.store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertFactory(ctx, factory)
	})
	if err != nil {
		return domain.Factory{}, fmt.Errorf("persist factory: %w", err)
	}
	return factory, nil
}

// CreatePresaleRequest carries the inputs for CreatePresale.
type CreatePresaleRequest struct {
	FactoryID string
	Caller    string
	Input     domain.CreatePresaleInput
}

// CreatePresale validates campaign parameters, persists the new presale,
// bumps the factory counter, and pre-mints the full hard cap of sale tokens
// into the campaign vault. The pre-mint is what bounds tokens_sold by the
// hard cap for the campaign's whole life.
func (s *Service) CreatePresale(ctx context.Context, req CreatePresaleRequest) (domain.Presale, error) {
	if s.store == nil {
		return domain.Presale{}, fmt.Errorf("store is not configured")
	}
	factoryID := strings.TrimSpace(req.FactoryID)
	if factoryID == "" {
		return domain.Presale{}, errors.New(errors.CodeNotFound, "factory id is required")
	}
	caller := strings.TrimSpace(req.Caller)

	var created domain.Presale
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		factory, err := tx.GetFactory(ctx, factoryID)
		if err != nil {
			return notFound(err, "factory not found")
		}
		if caller == "" || caller != factory.Owner {
			return errors.New(errors.CodeUnauthorized, "caller is not the factory owner")
		}

		presale, err := domain.CreatePresale(req.Input, factory, s.clock, s.idGenerator)
		if err != nil {
			return err
		}

		if err := tx.InsertPresale(ctx, presale); err != nil {
			return err
		}

		factory.PresaleCount++
		factory.UpdatedAt = s.clock().UTC()
		if err := tx.UpdateFactory(ctx, factory); err != nil {
			return err
		}

		ledger := tx.Ledger()
		if err := ledger.EnsureMint(ctx, token.Mint{
			TokenID:         presale.Token,
			Decimals:        domain.SaleTokenDecimals,
			MintAuthority:   presale.Owner,
			FreezeAuthority: presale.Owner,
		}); err != nil {
			return err
		}
		// Vaults are owned by the campaign; only the campaign owner can move
		// funds out of them.
		if err := ledger.CreateAccount(ctx, presale.Token, presale.ID, presale.Owner); err != nil {
			return err
		}
		paymentAsset := token.NativeAsset
		if presale.PaymentMode == domain.PaymentModeToken {
			paymentAsset = presale.PaymentToken
		}
		if err := ledger.CreateAccount(ctx, paymentAsset, presale.ID, presale.Owner); err != nil {
			return err
		}
		if err := ledger.MintTo(ctx, presale.Token, presale.ID, presale.HardCap); err != nil {
			return err
		}

		created = presale
		return nil
	})
	if err != nil {
		return domain.Presale{}, err
	}

	s.emit(ctx, storage.Event{
		Type:      telemetry.EventPresaleCreated,
		PresaleID: created.ID,
		Identity:  created.Owner,
	})
	return created, nil
}

// BuyTokensRequest carries the inputs for BuyTokens.
type BuyTokensRequest struct {
	PresaleID string
	Buyer     string
	Amount    uint64
}

// PurchaseReceipt reports the outcome of an accepted contribution.
type PurchaseReceipt struct {
	TokensPurchased uint64
	FundsRaised     uint64
	TokensSold      uint64
}

// BuyTokens processes one contribution: it validates against a consistent
// snapshot, settles the payment and token legs, and folds the amounts into
// the presale totals, all in one transaction.
func (s *Service) BuyTokens(ctx context.Context, req BuyTokensRequest) (PurchaseReceipt, error) {
	if s.store == nil {
		return PurchaseReceipt{}, fmt.Errorf("store is not configured")
	}
	presaleID := strings.TrimSpace(req.PresaleID)
	if presaleID == "" {
		return PurchaseReceipt{}, errors.New(errors.CodeNotFound, "presale id is required")
	}
	buyer := strings.TrimSpace(req.Buyer)
	if buyer == "" {
		return PurchaseReceipt{}, errors.New(errors.CodeUnauthorized, "buyer identity is required")
	}

	var receipt PurchaseReceipt
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		presale, err := tx.GetPresale(ctx, presaleID)
		if err != nil {
			return notFound(err, "presale not found")
		}

		whitelisted := false
		if presale.IsWhitelist {
			whitelisted, err = tx.IsParticipant(ctx, presale.ID, buyer)
			if err != nil {
				return err
			}
		}

		now := s.clock()
		quote, err := domain.QuotePurchase(presale, req.Amount, whitelisted, now.Unix())
		if err != nil {
			return err
		}

		ledger := tx.Ledger()
		switch presale.PaymentMode {
		case domain.PaymentModeNative:
			if err := ledger.TransferNative(ctx, buyer, presale.ID, req.Amount); err != nil {
				return err
			}
		case domain.PaymentModeToken:
			if err := ledger.Transfer(ctx, presale.PaymentToken, buyer, presale.ID, buyer, req.Amount); err != nil {
				return err
			}
		default:
			return fmt.Errorf("presale %s has invalid payment mode %d", presale.ID, presale.PaymentMode)
		}
		if err := ledger.Transfer(ctx, presale.Token, presale.ID, buyer, presale.Owner, quote.TokensToBuy); err != nil {
			return err
		}

		presale = domain.ApplyPurchase(presale, req.Amount, quote, now)
		if err := tx.UpdatePresale(ctx, presale); err != nil {
			return err
		}
		if err := tx.UpsertBuyer(ctx, presale.ID, buyer, req.Amount, quote.TokensToBuy, now); err != nil {
			return err
		}

		receipt = PurchaseReceipt{
			TokensPurchased: quote.TokensToBuy,
			FundsRaised:     presale.FundsRaised,
			TokensSold:      presale.TokensSold,
		}
		return nil
	})
	if err != nil {
		return PurchaseReceipt{}, err
	}

	s.emit(ctx, storage.Event{
		Type:      telemetry.EventContribution,
		PresaleID: presaleID,
		Identity:  buyer,
		Amount:    req.Amount,
		Tokens:    receipt.TokensPurchased,
	})
	return receipt, nil
}

// AddParticipant adds an identity to a presale's whitelist. Owner-only.
// Adding an existing member is a no-op success.
func (s *Service) AddParticipant(ctx context.Context, presaleID, caller, identity string) error {
	return s.mutateParticipants(ctx, presaleID, caller, identity, true)
}

// RemoveParticipant removes an identity from a presale's whitelist.
// Owner-only. Removing a non-member is a no-op success.
func (s *Service) RemoveParticipant(ctx context.Context, presaleID, caller, identity string) error {
	return s.mutateParticipants(ctx, presaleID, caller, identity, false)
}

func (s *Service) mutateParticipants(ctx context.Context, presaleID, caller, identity string, add bool) error {
	if s.store == nil {
		return fmt.Errorf("store is not configured")
	}
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return errors.New(errors.CodeUnknown, "participant identity is required")
	}

	return s.store.InTx(ctx, func(tx storage.Tx) error {
		presale, err := tx.GetPresale(ctx, strings.TrimSpace(presaleID))
		if err != nil {
			return notFound(err, "presale not found")
		}
		if strings.TrimSpace(caller) != presale.Owner {
			return errors.New(errors.CodeUnauthorized, "caller is not the presale owner")
		}
		if add {
			return tx.AddParticipant(ctx, presale.ID, identity, s.clock().UTC())
		}
		return tx.RemoveParticipant(ctx, presale.ID, identity)
	})
}

// Finalize moves an ended presale to its terminal state. Owner-only.
func (s *Service) Finalize(ctx context.Context, presaleID, caller string) (domain.Presale, error) {
	if s.store == nil {
		return domain.Presale{}, fmt.Errorf("store is not configured")
	}

	var finalized domain.Presale
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		presale, err := tx.GetPresale(ctx, strings.TrimSpace(presaleID))
		if err != nil {
			return notFound(err, "presale not found")
		}
		if strings.TrimSpace(caller) != presale.Owner {
			return errors.New(errors.CodeUnauthorized, "caller is not the presale owner")
		}
		now := s.clock()
		presale, err = domain.Finalize(presale, now.Unix(), now)
		if err != nil {
			return err
		}
		if err := tx.UpdatePresale(ctx, presale); err != nil {
			return err
		}
		finalized = presale
		return nil
	})
	if err != nil {
		return domain.Presale{}, err
	}

	s.emit(ctx, storage.Event{
		Type:      telemetry.EventPresaleFinalized,
		PresaleID: finalized.ID,
		Identity:  finalized.Owner,
	})
	return finalized, nil
}

// GetFactory returns a factory by id.
func (s *Service) GetFactory(ctx context.Context, factoryID string) (domain.Factory, error) {
	if s.store == nil {
		return domain.Factory{}, fmt.Errorf("store is not configured")
	}
	factory, err := s.store.GetFactory(ctx, strings.TrimSpace(factoryID))
	if err != nil {
		return domain.Factory{}, notFound(err, "factory not found")
	}
	return factory, nil
}

// GetPresale returns a presale by id.
func (s *Service) GetPresale(ctx context.Context, presaleID string) (domain.Presale, error) {
	if s.store == nil {
		return domain.Presale{}, fmt.Errorf("store is not configured")
	}
	presale, err := s.store.GetPresale(ctx, strings.TrimSpace(presaleID))
	if err != nil {
		return domain.Presale{}, notFound(err, "presale not found")
	}
	return presale, nil
}

// ListParticipants returns the whitelist for a presale.
func (s *Service) ListParticipants(ctx context.Context, presaleID string) ([]string, error) {
	if s.store == nil {
		return nil, fmt.Errorf("store is not configured")
	}
	return s.store.ListParticipants(ctx, strings.TrimSpace(presaleID))
}

// ListBuyers returns a page of buyer records for a presale.
func (s *Service) ListBuyers(ctx context.Context, query storage.BuyerQuery) (storage.BuyerPage, error) {
	if s.store == nil {
		return storage.BuyerPage{}, fmt.Errorf("store is not configured")
	}
	return s.store.ListBuyers(ctx, query)
}

// notFound translates the storage sentinel into the typed taxonomy.
func notFound(err error, message string) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.New(errors.CodeNotFound, message)
	}
	return err
}

// emit records a best-effort event; failures are logged, never surfaced.
func (s *Service) emit(ctx context.Context, event storage.Event) {
	if err := s.events.Emit(ctx, event); err != nil {
		log.Printf("emit event type=%s presale_id=%s: %v", event.Type, event.PresaleID, err)
	}
}
