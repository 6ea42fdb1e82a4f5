package sqlite

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func sampleFactory() domain.Factory {
	at := time.UnixMilli(1_700_000_000_000).UTC()
	return domain.Factory{
		ID:          "factory-1",
		Owner:       "alice",
		PlatformFee: 250,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func samplePresale() domain.Presale {
	at := time.UnixMilli(1_700_000_000_000).UTC()
	return domain.Presale{
		ID:          "presale-1",
		FactoryID:   "factory-1",
		Owner:       "alice",
		Token:       "sale-token",
		PaymentMode: domain.PaymentModeNative,
		PresaleRate: 10,
		SoftCap:     1_000,
		HardCap:     10_000,
		MinBuy:      100,
		MaxBuy:      5_000,
		StartSale:   1_000,
		EndSale:     2_000,
		PlatformFee: 250,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestFactoryRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	factory := sampleFactory()
	// Values above MaxInt64 must survive the int64 bit-pattern encoding.
	factory.PresaleCount = math.MaxUint64 - 1

	err := store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertFactory(ctx, factory)
	})
	if err != nil {
		t.Fatalf("insert factory: %v", err)
	}

	got, err := store.GetFactory(ctx, factory.ID)
	if err != nil {
		t.Fatalf("get factory: %v", err)
	}
	if got != factory {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, factory)
	}

	if _, err := store.GetFactory(ctx, "missing"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPresaleRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	presale := samplePresale()
	presale.PaymentMode = domain.PaymentModeToken
	presale.PaymentToken = "usd-stable"
	presale.IsWhitelist = true
	presale.IsVesting = true
	presale.HardCap = math.MaxUint64
	presale.PlatformFee = math.MaxUint64 / 2

	err := store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPresale(ctx, presale)
	})
	if err != nil {
		t.Fatalf("insert presale: %v", err)
	}

	got, err := store.GetPresale(ctx, presale.ID)
	if err != nil {
		t.Fatalf("get presale: %v", err)
	}
	if got != presale {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, presale)
	}
}

func TestUpdatePresaleState(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	presale := samplePresale()
	err := store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertPresale(ctx, presale)
	})
	if err != nil {
		t.Fatalf("insert presale: %v", err)
	}

	presale.TokensSold = 350
	presale.FundsRaised = 3_500
	presale.IsFinalized = true
	presale.UpdatedAt = presale.UpdatedAt.Add(time.Minute)
	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpdatePresale(ctx, presale)
	})
	if err != nil {
		t.Fatalf("update presale: %v", err)
	}

	got, err := store.GetPresale(ctx, presale.ID)
	if err != nil {
		t.Fatalf("get presale: %v", err)
	}
	if got.TokensSold != 350 || got.FundsRaised != 3_500 || !got.IsFinalized {
		t.Fatalf("unexpected state after update: %+v", got)
	}

	missing := presale
	missing.ID = "missing"
	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.UpdatePresale(ctx, missing)
	})
	if err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound updating missing presale, got %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	boom := fmt.Errorf("boom")
	err := store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.InsertFactory(ctx, sampleFactory()); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected fn error returned, got %v", err)
	}

	if _, err := store.GetFactory(ctx, "factory-1"); err != storage.ErrNotFound {
		t.Fatalf("expected rollback to discard the insert, got %v", err)
	}
}

// seedPresale inserts the factory and presale rows child records hang off.
func seedPresale(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	err := store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.InsertFactory(ctx, sampleFactory()); err != nil {
			return err
		}
		return tx.InsertPresale(ctx, samplePresale())
	})
	if err != nil {
		t.Fatalf("seed presale: %v", err)
	}
}

func TestParticipants(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedPresale(t, store)
	at := time.Now().UTC()

	err := store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.AddParticipant(ctx, "presale-1", "bob", at); err != nil {
			return err
		}
		if err := tx.AddParticipant(ctx, "presale-1", "carol", at); err != nil {
			return err
		}
		// Duplicate add is a no-op.
		return tx.AddParticipant(ctx, "presale-1", "bob", at)
	})
	if err != nil {
		t.Fatalf("add participants: %v", err)
	}

	members, err := store.ListParticipants(ctx, "presale-1")
	if err != nil {
		t.Fatalf("list participants: %v", err)
	}
	if len(members) != 2 || members[0] != "bob" || members[1] != "carol" {
		t.Fatalf("unexpected members: %v", members)
	}

	err = store.InTx(ctx, func(tx storage.Tx) error {
		ok, err := tx.IsParticipant(ctx, "presale-1", "bob")
		if err != nil {
			return err
		}
		if !ok {
			t.Errorf("expected bob to be a participant")
		}
		if err := tx.RemoveParticipant(ctx, "presale-1", "bob"); err != nil {
			return err
		}
		ok, err = tx.IsParticipant(ctx, "presale-1", "bob")
		if err != nil {
			return err
		}
		if ok {
			t.Errorf("expected bob to be removed")
		}
		// Removing a non-member is a no-op.
		return tx.RemoveParticipant(ctx, "presale-1", "dave")
	})
	if err != nil {
		t.Fatalf("mutate participants: %v", err)
	}
}

func TestUpsertBuyerAccumulates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedPresale(t, store)
	first := time.UnixMilli(1_700_000_000_000).UTC()
	second := first.Add(time.Minute)

	err := store.InTx(ctx, func(tx storage.Tx) error {
		if err := tx.UpsertBuyer(ctx, "presale-1", "bob", 1_000, 100, first); err != nil {
			return err
		}
		return tx.UpsertBuyer(ctx, "presale-1", "bob", 500, 50, second)
	})
	if err != nil {
		t.Fatalf("upsert buyer: %v", err)
	}

	page, err := store.ListBuyers(ctx, storage.BuyerQuery{PresaleID: "presale-1"})
	if err != nil {
		t.Fatalf("list buyers: %v", err)
	}
	if len(page.Buyers) != 1 {
		t.Fatalf("expected 1 buyer, got %d", len(page.Buyers))
	}
	buyer := page.Buyers[0]
	if buyer.Amount != 1_500 || buyer.TokensPurchased != 150 {
		t.Fatalf("expected accumulated totals, got %+v", buyer)
	}
	if !buyer.FirstPurchaseAt.Equal(first) {
		t.Fatalf("first purchase time must be preserved, got %v", buyer.FirstPurchaseAt)
	}
	if !buyer.UpdatedAt.Equal(second) {
		t.Fatalf("updated time must advance, got %v", buyer.UpdatedAt)
	}
}

func seedBuyers(t *testing.T, store *Store, presaleID string, n int) {
	t.Helper()
	seedPresale(t, store)
	ctx := context.Background()
	at := time.UnixMilli(1_700_000_000_000).UTC()
	err := store.InTx(ctx, func(tx storage.Tx) error {
		for i := 0; i < n; i++ {
			identity := fmt.Sprintf("buyer-%03d", i)
			if err := tx.UpsertBuyer(ctx, presaleID, identity, uint64(100*(i+1)), uint64(10*(i+1)), at.Add(time.Duration(i)*time.Second)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed buyers: %v", err)
	}
}

func TestListBuyersPagination(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedBuyers(t, store, "presale-1", 5)

	page, err := store.ListBuyers(ctx, storage.BuyerQuery{PresaleID: "presale-1", PageSize: 2})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page.Buyers) != 2 || page.NextPageToken == "" {
		t.Fatalf("unexpected first page: %d buyers, token %q", len(page.Buyers), page.NextPageToken)
	}
	if page.Buyers[0].Identity != "buyer-000" || page.Buyers[1].Identity != "buyer-001" {
		t.Fatalf("unexpected first page order: %v", page.Buyers)
	}

	page, err = store.ListBuyers(ctx, storage.BuyerQuery{PresaleID: "presale-1", PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page.Buyers) != 2 || page.Buyers[0].Identity != "buyer-002" {
		t.Fatalf("unexpected second page: %v", page.Buyers)
	}

	page, err = store.ListBuyers(ctx, storage.BuyerQuery{PresaleID: "presale-1", PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("last page: %v", err)
	}
	if len(page.Buyers) != 1 || page.NextPageToken != "" {
		t.Fatalf("unexpected last page: %d buyers, token %q", len(page.Buyers), page.NextPageToken)
	}
}

func TestListBuyersFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedBuyers(t, store, "presale-1", 5)

	page, err := store.ListBuyers(ctx, storage.BuyerQuery{
		PresaleID: "presale-1",
		Filter:    "amount >= 300",
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(page.Buyers) != 3 {
		t.Fatalf("expected 3 buyers with amount >= 300, got %d", len(page.Buyers))
	}

	page, err = store.ListBuyers(ctx, storage.BuyerQuery{
		PresaleID: "presale-1",
		Filter:    `identity = "buyer-002" OR amount > 400`,
	})
	if err != nil {
		t.Fatalf("compound filter: %v", err)
	}
	if len(page.Buyers) != 2 {
		t.Fatalf("expected 2 buyers, got %d", len(page.Buyers))
	}

	if _, err := store.ListBuyers(ctx, storage.BuyerQuery{PresaleID: "presale-1", Filter: "bogus >>"}); err == nil {
		t.Fatalf("expected error for malformed filter")
	}
}

func TestListBuyersTokenFilterMismatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	seedBuyers(t, store, "presale-1", 5)

	page, err := store.ListBuyers(ctx, storage.BuyerQuery{
		PresaleID: "presale-1",
		PageSize:  2,
		Filter:    "amount >= 200",
	})
	if err != nil {
		t.Fatalf("filtered first page: %v", err)
	}
	if page.NextPageToken == "" {
		t.Fatalf("expected a next page token")
	}

	// A token minted under one filter cannot be replayed with another.
	_, err = store.ListBuyers(ctx, storage.BuyerQuery{
		PresaleID: "presale-1",
		PageSize:  2,
		PageToken: page.NextPageToken,
		Filter:    "amount >= 300",
	})
	if err == nil {
		t.Fatalf("expected filter mismatch error")
	}
}

func TestAppendEvent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	event := storage.Event{
		ID:        "event-1",
		Type:      "CONTRIBUTION",
		PresaleID: "presale-1",
		Identity:  "bob",
		Amount:    1_000,
		Tokens:    100,
		Timestamp: time.Now().UTC(),
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		t.Fatalf("append event: %v", err)
	}
}
