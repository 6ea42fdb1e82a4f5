// Package domain holds the presale data model and the pure validation and
// quoting rules applied before any funds move.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"github.com/qerralabs/launchpad/internal/errors"
	"github.com/qerralabs/launchpad/internal/platform/id"
)

// PaymentMode selects how contributions are settled.
type PaymentMode int

const (
	// PaymentModeUnspecified represents an invalid payment mode value.
	PaymentModeUnspecified PaymentMode = iota
	// PaymentModeNative settles contributions in the chain's base currency.
	PaymentModeNative
	// PaymentModeToken settles contributions in a configured fungible token.
	PaymentModeToken
)

// SaleTokenDecimals is the decimal precision used when the sale token mint
// is created for a campaign.
const SaleTokenDecimals = 9

// Presale is one fund-raising campaign. Configuration fields are fixed at
// creation; only TokensSold, FundsRaised, IsFinalized and the participant
// and buyer sets change afterwards.
type Presale struct {
	ID        string
	FactoryID string
	Owner     string

	// Sale configuration, immutable after creation.
	Token        string // sale token mint identity
	PaymentToken string // payment token mint identity; unused in native mode
	PaymentMode  PaymentMode
	PresaleRate  uint64 // payment units per sale token
	SoftCap      uint64
	HardCap      uint64
	MinBuy       uint64
	MaxBuy       uint64
	StartSale    int64 // unix seconds
	EndSale      int64 // unix seconds
	IsWhitelist  bool
	IsFund       bool

	// Listing and vesting configuration, carried for a later phase.
	DexRouter            string
	SwapFactory          string
	LockManager          string
	FeeCollector         string
	ListingRate          uint64
	LiquidityPercent     uint64
	LiquidityTime        uint64
	IsAutoListing        bool
	IsVesting            bool
	FirstReleasePercent  uint64
	VestingPeriod        uint64
	TokensReleasePercent uint64

	// Computed at creation.
	PlatformFee uint64

	// Mutable state.
	TokensSold  uint64
	FundsRaised uint64
	IsFinalized bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePresaleInput carries the caller-supplied campaign configuration.
type CreatePresaleInput struct {
	Owner        string
	Token        string
	PaymentToken string
	PaymentMode  PaymentMode
	PresaleRate  uint64
	SoftCap      uint64
	HardCap      uint64
	MinBuy       uint64
	MaxBuy       uint64
	StartSale    int64
	EndSale      int64
	IsWhitelist  bool
	IsFund       bool

	DexRouter            string
	SwapFactory          string
	LockManager          string
	FeeCollector         string
	ListingRate          uint64
	LiquidityPercent     uint64
	LiquidityTime        uint64
	IsAutoListing        bool
	IsVesting            bool
	FirstReleasePercent  uint64
	VestingPeriod        uint64
	TokensReleasePercent uint64
}

// CreatePresale validates campaign parameters and builds a new presale
// record stamped with the factory's fee. Validation order matches the
// contract: cap ordering, then time ordering, then buy bounds; the first
// violation wins.
func CreatePresale(input CreatePresaleInput, factory Factory, now func() time.Time, idGenerator func() (string, error)) (Presale, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	owner := strings.TrimSpace(input.Owner)
	if owner == "" {
		return Presale{}, errors.New(errors.CodeUnauthorized, "presale owner is required")
	}
	if input.SoftCap > input.HardCap {
		return Presale{}, errors.New(errors.CodeInvalidCap, "soft cap cannot be greater than hard cap")
	}
	if input.StartSale >= input.EndSale {
		return Presale{}, errors.New(errors.CodeInvalidTime, "start time must be before end time")
	}
	if input.MinBuy > input.MaxBuy {
		return Presale{}, errors.New(errors.CodeInvalidMinMax, "min buy must be less than or equal to max buy")
	}
	if input.PaymentMode != PaymentModeNative && input.PaymentMode != PaymentModeToken {
		return Presale{}, errors.New(errors.CodeUnknown, "payment mode is required")
	}
	if strings.TrimSpace(input.Token) == "" {
		return Presale{}, errors.New(errors.CodeUnknown, "sale token is required")
	}
	if input.PaymentMode == PaymentModeToken && strings.TrimSpace(input.PaymentToken) == "" {
		return Presale{}, errors.New(errors.CodeUnknown, "payment token is required for token payment mode")
	}

	presaleID, err := idGenerator()
	if err != nil {
		return Presale{}, fmt.Errorf("generate presale id: %w", err)
	}

	createdAt := now().UTC()
	return Presale{
		ID:        presaleID,
		FactoryID: factory.ID,
		Owner:     owner,

		Token:        strings.TrimSpace(input.Token),
		PaymentToken: strings.TrimSpace(input.PaymentToken),
		PaymentMode:  input.PaymentMode,
		PresaleRate:  input.PresaleRate,
		SoftCap:      input.SoftCap,
		HardCap:      input.HardCap,
		MinBuy:       input.MinBuy,
		MaxBuy:       input.MaxBuy,
		StartSale:    input.StartSale,
		EndSale:      input.EndSale,
		IsWhitelist:  input.IsWhitelist,
		IsFund:       input.IsFund,

		DexRouter:            strings.TrimSpace(input.DexRouter),
		SwapFactory:          strings.TrimSpace(input.SwapFactory),
		LockManager:          strings.TrimSpace(input.LockManager),
		FeeCollector:         strings.TrimSpace(input.FeeCollector),
		ListingRate:          input.ListingRate,
		LiquidityPercent:     input.LiquidityPercent,
		LiquidityTime:        input.LiquidityTime,
		IsAutoListing:        input.IsAutoListing,
		IsVesting:            input.IsVesting,
		FirstReleasePercent:  input.FirstReleasePercent,
		VestingPeriod:        input.VestingPeriod,
		TokensReleasePercent: input.TokensReleasePercent,

		PlatformFee: PlatformFeeAmount(input.HardCap, factory.PlatformFee),

		TokensSold:  0,
		FundsRaised: 0,
		IsFinalized: false,

		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// PlatformFeeAmount computes floor(hardCap * feeBps / 10000). The product is
// taken in 256-bit space so a large hard cap cannot wrap; the result always
// fits uint64 because feeBps <= 10000.
func PlatformFeeAmount(hardCap, feeBps uint64) uint64 {
	fee := new(uint256.Int).Mul(uint256.NewInt(hardCap), uint256.NewInt(feeBps))
	fee.Div(fee, uint256.NewInt(MaxFeeBps))
	return fee.Uint64()
}

// Quote is the outcome of a purchase quote: how many sale tokens the
// contribution buys at the configured rate.
type Quote struct {
	TokensToBuy uint64
}

// QuotePurchase runs the full contribution validation ladder against a
// consistent snapshot of the presale and returns the token quote. It
// performs no side effects; settlement happens only after it succeeds.
//
// whitelisted reports whether the buyer is in the participant set at call
// time; it is only consulted when the presale is whitelist-gated.
func QuotePurchase(p Presale, amount uint64, whitelisted bool, now int64) (Quote, error) {
	if amount == 0 {
		return Quote{}, errors.New(errors.CodeAmountTooLow, "contribution amount must be positive")
	}
	if now < p.StartSale {
		return Quote{}, errors.New(errors.CodePresaleNotStarted, "presale has not started")
	}
	if now > p.EndSale {
		return Quote{}, errors.New(errors.CodePresaleEnded, "presale has ended")
	}
	if p.IsFinalized {
		return Quote{}, errors.New(errors.CodePresaleAlreadyFinalized, "presale is finalized")
	}
	if p.IsWhitelist && !whitelisted {
		return Quote{}, errors.New(errors.CodeUnauthorized, "buyer is not whitelisted")
	}
	// Checked as a subtraction so the accumulation can never wrap; an
	// overflowing total is reported as a cap excess.
	if amount > p.HardCap-p.FundsRaised {
		return Quote{}, errors.WithMetadata(errors.CodeFundingCapExceeded,
			"contribution exceeds hard cap",
			map[string]string{
				"hard_cap":     fmt.Sprintf("%d", p.HardCap),
				"funds_raised": fmt.Sprintf("%d", p.FundsRaised),
			})
	}
	if amount < p.MinBuy {
		return Quote{}, errors.New(errors.CodeAmountTooLow, "contribution is below the minimum buy")
	}
	if amount > p.MaxBuy {
		return Quote{}, errors.New(errors.CodeAmountTooHigh, "contribution is above the maximum buy")
	}
	if p.PresaleRate == 0 {
		return Quote{}, errors.New(errors.CodeInsufficientTokens, "presale rate is zero")
	}
	tokensToBuy := amount / p.PresaleRate
	if tokensToBuy > p.HardCap-p.TokensSold {
		return Quote{}, errors.New(errors.CodeInsufficientTokens, "not enough sale tokens remaining")
	}
	return Quote{TokensToBuy: tokensToBuy}, nil
}

// ApplyPurchase folds an accepted quote into the presale's running totals.
// Callers must persist the updated record in the same transaction that
// settles the transfers.
func ApplyPurchase(p Presale, amount uint64, quote Quote, updatedAt time.Time) Presale {
	p.FundsRaised += amount
	p.TokensSold += quote.TokensToBuy
	p.UpdatedAt = updatedAt.UTC()
	return p
}

// Finalize moves an ended presale into its terminal state.
func Finalize(p Presale, now int64, updatedAt time.Time) (Presale, error) {
	if p.IsFinalized {
		return Presale{}, errors.New(errors.CodePresaleAlreadyFinalized, "presale is finalized")
	}
	if now <= p.EndSale {
		return Presale{}, errors.New(errors.CodePresaleNotEnded, "presale has not ended")
	}
	p.IsFinalized = true
	p.UpdatedAt = updatedAt.UTC()
	return p, nil
}
