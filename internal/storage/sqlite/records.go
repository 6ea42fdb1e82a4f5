package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
	"github.com/qerralabs/launchpad/internal/token"
)

// Amounts and counters are stored as the int64 bit pattern of their uint64
// value.

func getFactory(ctx context.Context, q token.DBTX, id string) (domain.Factory, error) {
	var (
		factory      domain.Factory
		presaleCount int64
		platformFee  int64
		createdAt    int64
		updatedAt    int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, owner, presale_count, platform_fee, created_at, updated_at
		 FROM factories WHERE id = ?`, id,
	).Scan(&factory.ID, &factory.Owner, &presaleCount, &platformFee, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.Factory{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Factory{}, fmt.Errorf("get factory: %w", err)
	}
	factory.PresaleCount = uint64(presaleCount)
	factory.PlatformFee = uint64(platformFee)
	factory.CreatedAt = fromMillis(createdAt)
	factory.UpdatedAt = fromMillis(updatedAt)
	return factory, nil
}

func insertFactory(ctx context.Context, q token.DBTX, factory domain.Factory) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO factories (id, owner, presale_count, platform_fee, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		factory.ID, factory.Owner, int64(factory.PresaleCount), int64(factory.PlatformFee),
		toMillis(factory.CreatedAt), toMillis(factory.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert factory: %w", err)
	}
	return nil
}

func updateFactory(ctx context.Context, q token.DBTX, factory domain.Factory) error {
	result, err := q.ExecContext(ctx,
		`UPDATE factories SET presale_count = ?, updated_at = ? WHERE id = ?`,
		int64(factory.PresaleCount), toMillis(factory.UpdatedAt), factory.ID,
	)
	if err != nil {
		return fmt.Errorf("update factory: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update factory rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const presaleColumns = `id, factory_id, owner, token, payment_token, payment_mode,
	presale_rate, soft_cap, hard_cap, min_buy, max_buy, start_sale, end_sale,
	is_whitelist, is_fund, dex_router, swap_factory, lock_manager, fee_collector,
	listing_rate, liquidity_percent, liquidity_time, is_auto_listing, is_vesting,
	first_release_percent, vesting_period, tokens_release_percent,
	platform_fee, tokens_sold, funds_raised, is_finalized, created_at, updated_at`

func getPresale(ctx context.Context, q token.DBTX, id string) (domain.Presale, error) {
	var (
		p           domain.Presale
		paymentMode int64

		presaleRate, softCap, hardCap, minBuy, maxBuy              int64
		listingRate, liquidityPercent, liquidityTime               int64
		firstReleasePercent, vestingPeriod, tokensReleasePercent   int64
		platformFee, tokensSold, fundsRaised                       int64
		isWhitelist, isFund, isAutoListing, isVesting, isFinalized int64
		createdAt, updatedAt                                       int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+presaleColumns+` FROM presales WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.FactoryID, &p.Owner, &p.Token, &p.PaymentToken, &paymentMode,
		&presaleRate, &softCap, &hardCap, &minBuy, &maxBuy, &p.StartSale, &p.EndSale,
		&isWhitelist, &isFund, &p.DexRouter, &p.SwapFactory, &p.LockManager, &p.FeeCollector,
		&listingRate, &liquidityPercent, &liquidityTime, &isAutoListing, &isVesting,
		&firstReleasePercent, &vestingPeriod, &tokensReleasePercent,
		&platformFee, &tokensSold, &fundsRaised, &isFinalized, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Presale{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Presale{}, fmt.Errorf("get presale: %w", err)
	}

	p.PaymentMode = domain.PaymentMode(paymentMode)
	p.PresaleRate = uint64(presaleRate)
	p.SoftCap = uint64(softCap)
	p.HardCap = uint64(hardCap)
	p.MinBuy = uint64(minBuy)
	p.MaxBuy = uint64(maxBuy)
	p.ListingRate = uint64(listingRate)
	p.LiquidityPercent = uint64(liquidityPercent)
	p.LiquidityTime = uint64(liquidityTime)
	p.FirstReleasePercent = uint64(firstReleasePercent)
	p.VestingPeriod = uint64(vestingPeriod)
	p.TokensReleasePercent = uint64(tokensReleasePercent)
	p.PlatformFee = uint64(platformFee)
	p.TokensSold = uint64(tokensSold)
	p.FundsRaised = uint64(fundsRaised)
	p.IsWhitelist = isWhitelist != 0
	p.IsFund = isFund != 0
	p.IsAutoListing = isAutoListing != 0
	p.IsVesting = isVesting != 0
	p.IsFinalized = isFinalized != 0
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)
	return p, nil
}

func insertPresale(ctx context.Context, q token.DBTX, p domain.Presale) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO presales (`+presaleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FactoryID, p.Owner, p.Token, p.PaymentToken, int64(p.PaymentMode),
		int64(p.PresaleRate), int64(p.SoftCap), int64(p.HardCap), int64(p.MinBuy), int64(p.MaxBuy),
		p.StartSale, p.EndSale,
		boolToInt(p.IsWhitelist), boolToInt(p.IsFund),
		p.DexRouter, p.SwapFactory, p.LockManager, p.FeeCollector,
		int64(p.ListingRate), int64(p.LiquidityPercent), int64(p.LiquidityTime),
		boolToInt(p.IsAutoListing), boolToInt(p.IsVesting),
		int64(p.FirstReleasePercent), int64(p.VestingPeriod), int64(p.TokensReleasePercent),
		int64(p.PlatformFee), int64(p.TokensSold), int64(p.FundsRaised), boolToInt(p.IsFinalized),
		toMillis(p.CreatedAt), toMillis(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert presale: %w", err)
	}
	return nil
}

func updatePresale(ctx context.Context, q token.DBTX, p domain.Presale) error {
	result, err := q.ExecContext(ctx,
		`UPDATE presales SET tokens_sold = ?, funds_raised = ?, is_finalized = ?, updated_at = ?
		 WHERE id = ?`,
		int64(p.TokensSold), int64(p.FundsRaised), boolToInt(p.IsFinalized),
		toMillis(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update presale: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update presale rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func isParticipant(ctx context.Context, q token.DBTX, presaleID, identity string) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM participants WHERE presale_id = ? AND identity = ?`,
		presaleID, identity,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return true, nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
