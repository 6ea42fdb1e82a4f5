package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/qerralabs/launchpad/internal/errors"
	"github.com/qerralabs/launchpad/internal/presale"
	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
)

// factoryResponse is the JSON shape of a factory.
type factoryResponse struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	PresaleCount uint64    `json:"presale_count"`
	PlatformFee  uint64    `json:"platform_fee"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toFactoryResponse(f domain.Factory) factoryResponse {
	return factoryResponse{
		ID:           f.ID,
		Owner:        f.Owner,
		PresaleCount: f.PresaleCount,
		PlatformFee:  f.PlatformFee,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// presaleResponse is the JSON shape of a presale.
type presaleResponse struct {
	ID           string `json:"id"`
	FactoryID    string `json:"factory_id"`
	Owner        string `json:"owner"`
	Token        string `json:"token"`
	PaymentToken string `json:"payment_token,omitempty"`
	PaymentMode  string `json:"payment_mode"`
	PresaleRate  uint64 `json:"presale_rate"`
	SoftCap      uint64 `json:"soft_cap"`
	HardCap      uint64 `json:"hard_cap"`
	MinBuy       uint64 `json:"min_buy"`
	MaxBuy       uint64 `json:"max_buy"`
	StartSale    int64  `json:"start_sale"`
	EndSale      int64  `json:"end_sale"`
	IsWhitelist  bool   `json:"is_whitelist"`
	IsFund       bool   `json:"is_fund"`
	PlatformFee  uint64 `json:"platform_fee"`
	TokensSold   uint64 `json:"tokens_sold"`
	FundsRaised  uint64 `json:"funds_raised"`
	IsFinalized  bool   `json:"is_finalized"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func paymentModeString(mode domain.PaymentMode) string {
	switch mode {
	case domain.PaymentModeNative:
		return "native"
	case domain.PaymentModeToken:
		return "token"
	default:
		return ""
	}
}

func parsePaymentMode(value string) (domain.PaymentMode, error) {
	switch value {
	case "native":
		return domain.PaymentModeNative, nil
	case "token":
		return domain.PaymentModeToken, nil
	default:
		return domain.PaymentModeUnspecified,
			apperrors.New(apperrors.CodeInvalidArgument, "payment_mode must be native or token")
	}
}

func toPresaleResponse(p domain.Presale) presaleResponse {
	return presaleResponse{
		ID:           p.ID,
		FactoryID:    p.FactoryID,
		Owner:        p.Owner,
		Token:        p.Token,
		PaymentToken: p.PaymentToken,
		PaymentMode:  paymentModeString(p.PaymentMode),
		PresaleRate:  p.PresaleRate,
		SoftCap:      p.SoftCap,
		HardCap:      p.HardCap,
		MinBuy:       p.MinBuy,
		MaxBuy:       p.MaxBuy,
		StartSale:    p.StartSale,
		EndSale:      p.EndSale,
		IsWhitelist:  p.IsWhitelist,
		IsFund:       p.IsFund,
		PlatformFee:  p.PlatformFee,
		TokensSold:   p.TokensSold,
		FundsRaised:  p.FundsRaised,
		IsFinalized:  p.IsFinalized,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func initializeFactoryHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PlatformFee uint64 `json:"platform_fee"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		factory, err := svc.InitializeFactory(r.Context(), presale.InitializeFactoryRequest{
			Owner:       CallerFromContext(r.Context()),
			PlatformFee: body.PlatformFee,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toFactoryResponse(factory))
	}
}

func getFactoryHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		factory, err := svc.GetFactory(r.Context(), mux.Vars(r)["factory_id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toFactoryResponse(factory))
	}
}

type createPresaleBody struct {
	Token        string `json:"token"`
	PaymentToken string `json:"payment_token"`
	PaymentMode  string `json:"payment_mode"`
	PresaleRate  uint64 `json:"presale_rate"`
	SoftCap      uint64 `json:"soft_cap"`
	HardCap      uint64 `json:"hard_cap"`
	MinBuy       uint64 `json:"min_buy"`
	MaxBuy       uint64 `json:"max_buy"`
	StartSale    int64  `json:"start_sale"`
	EndSale      int64  `json:"end_sale"`
	IsWhitelist  bool   `json:"is_whitelist"`
	IsFund       bool   `json:"is_fund"`

	DexRouter            string `json:"dex_router"`
	SwapFactory          string `json:"swap_factory"`
	LockManager          string `json:"lock_manager"`
	FeeCollector         string `json:"fee_collector"`
	ListingRate          uint64 `json:"listing_rate"`
	LiquidityPercent     uint64 `json:"liquidity_percent"`
	LiquidityTime        uint64 `json:"liquidity_time"`
	IsAutoListing        bool   `json:"is_auto_listing"`
	IsVesting            bool   `json:"is_vesting"`
	FirstReleasePercent  uint64 `json:"first_release_percent"`
	VestingPeriod        uint64 `json:"vesting_period"`
	TokensReleasePercent uint64 `json:"tokens_release_percent"`
}

func createPresaleHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPresaleBody
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		mode, err := parsePaymentMode(body.PaymentMode)
		if err != nil {
			writeError(w, err)
			return
		}
		caller := CallerFromContext(r.Context())
		created, err := svc.CreatePresale(r.Context(), presale.CreatePresaleRequest{
			FactoryID: mux.Vars(r)["factory_id"],
			Caller:    caller,
			Input: domain.CreatePresaleInput{
				Owner:        caller,
				Token:        body.Token,
				PaymentToken: body.PaymentToken,
				PaymentMode:  mode,
				PresaleRate:  body.PresaleRate,
				SoftCap:      body.SoftCap,
				HardCap:      body.HardCap,
				MinBuy:       body.MinBuy,
				MaxBuy:       body.MaxBuy,
				StartSale:    body.StartSale,
				EndSale:      body.EndSale,
				IsWhitelist:  body.IsWhitelist,
				IsFund:       body.IsFund,

				DexRouter:            body.DexRouter,
				SwapFactory:          body.SwapFactory,
				LockManager:          body.LockManager,
				FeeCollector:         body.FeeCollector,
				ListingRate:          body.ListingRate,
				LiquidityPercent:     body.LiquidityPercent,
				LiquidityTime:        body.LiquidityTime,
				IsAutoListing:        body.IsAutoListing,
				IsVesting:            body.IsVesting,
				FirstReleasePercent:  body.FirstReleasePercent,
				VestingPeriod:        body.VestingPeriod,
				TokensReleasePercent: body.TokensReleasePercent,
			},
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPresaleResponse(created))
	}
}

func getPresaleHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaded, err := svc.GetPresale(r.Context(), mux.Vars(r)["presale_id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPresaleResponse(loaded))
	}
}

func buyTokensHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Amount uint64 `json:"amount"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		receipt, err := svc.BuyTokens(r.Context(), presale.BuyTokensRequest{
			PresaleID: mux.Vars(r)["presale_id"],
			Buyer:     CallerFromContext(r.Context()),
			Amount:    body.Amount,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			TokensPurchased uint64 `json:"tokens_purchased"`
			FundsRaised     uint64 `json:"funds_raised"`
			TokensSold      uint64 `json:"tokens_sold"`
		}{
			TokensPurchased: receipt.TokensPurchased,
			FundsRaised:     receipt.FundsRaised,
			TokensSold:      receipt.TokensSold,
		})
	}
}

func finalizePresaleHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		finalized, err := svc.Finalize(r.Context(), mux.Vars(r)["presale_id"], CallerFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPresaleResponse(finalized))
	}
}

func addParticipantHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Identity string `json:"identity"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, err)
			return
		}
		err := svc.AddParticipant(r.Context(), mux.Vars(r)["presale_id"], CallerFromContext(r.Context()), body.Identity)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

func removeParticipantHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		err := svc.RemoveParticipant(r.Context(), vars["presale_id"], CallerFromContext(r.Context()), vars["identity"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

func listParticipantsHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		members, err := svc.ListParticipants(r.Context(), mux.Vars(r)["presale_id"])
		if err != nil {
			writeError(w, err)
			return
		}
		if members == nil {
			members = []string{}
		}
		writeJSON(w, http.StatusOK, struct {
			Participants []string `json:"participants"`
		}{Participants: members})
	}
}

// buyerResponse is the JSON shape of one buyer record.
type buyerResponse struct {
	Identity        string    `json:"identity"`
	Amount          uint64    `json:"amount"`
	TokensPurchased uint64    `json:"tokens_purchased"`
	FirstPurchaseAt time.Time `json:"first_purchase_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func listBuyersHandler(svc *presale.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := storage.BuyerQuery{
			PresaleID: mux.Vars(r)["presale_id"],
			PageToken: r.URL.Query().Get("page_token"),
			Filter:    r.URL.Query().Get("filter"),
		}
		if raw := r.URL.Query().Get("page_size"); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil || size < 0 {
				writeError(w, apperrors.New(apperrors.CodeInvalidArgument, "page_size must be a non-negative integer"))
				return
			}
			query.PageSize = size
		}

		page, err := svc.ListBuyers(r.Context(), query)
		if err != nil {
			writeError(w, err)
			return
		}
		buyers := make([]buyerResponse, 0, len(page.Buyers))
		for _, buyer := range page.Buyers {
			buyers = append(buyers, buyerResponse{
				Identity:        buyer.Identity,
				Amount:          buyer.Amount,
				TokensPurchased: buyer.TokensPurchased,
				FirstPurchaseAt: buyer.FirstPurchaseAt,
				UpdatedAt:       buyer.UpdatedAt,
			})
		}
		writeJSON(w, http.StatusOK, struct {
			Buyers        []buyerResponse `json:"buyers"`
			NextPageToken string          `json:"next_page_token,omitempty"`
		}{Buyers: buyers, NextPageToken: page.NextPageToken})
	}
}
