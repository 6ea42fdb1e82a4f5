package sqlite

import (
	"context"
	"fmt"

	apperrors "github.com/qerralabs/launchpad/internal/errors"
	"github.com/qerralabs/launchpad/internal/presale/domain"
	"github.com/qerralabs/launchpad/internal/storage"
	"github.com/qerralabs/launchpad/internal/storage/cursor"
	"github.com/qerralabs/launchpad/internal/storage/filter"
)

const (
	defaultBuyerPageSize = 50
	maxBuyerPageSize     = 200
)

// ListBuyers returns a page of buyer records in first-contribution order,
// optionally narrowed by an AIP-160 filter over identity, amount, and
// tokens.
func (s *Store) ListBuyers(ctx context.Context, query storage.BuyerQuery) (storage.BuyerPage, error) {
	if s == nil || s.sqlDB == nil {
		return storage.BuyerPage{}, fmt.Errorf("storage is not configured")
	}
	if query.PresaleID == "" {
		return storage.BuyerPage{}, fmt.Errorf("presale id is required")
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultBuyerPageSize
	}
	if pageSize > maxBuyerPageSize {
		pageSize = maxBuyerPageSize
	}

	condition, err := filter.ParseBuyerFilter(query.Filter)
	if err != nil {
		return storage.BuyerPage{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid filter expression", err)
	}

	filterHash := cursor.HashFilter(query.Filter)
	afterSeq := int64(0)
	if query.PageToken != "" {
		decoded, err := cursor.Decode(query.PageToken)
		if err != nil {
			return storage.BuyerPage{}, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid page token", err)
		}
		if decoded.FilterHash != filterHash {
			return storage.BuyerPage{}, apperrors.New(apperrors.CodeInvalidArgument, "page token does not match filter")
		}
		afterSeq = decoded.Seq
	}

	sqlQuery := `SELECT seq, identity, amount, tokens_purchased, first_purchase_at, updated_at
		 FROM buyers WHERE presale_id = ? AND seq > ?`
	args := []any{query.PresaleID, afterSeq}
	if condition.Clause != "" {
		sqlQuery += " AND " + condition.Clause
		args = append(args, condition.Params...)
	}
	// Fetch one extra row to learn whether another page exists.
	sqlQuery += " ORDER BY seq LIMIT ?"
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return storage.BuyerPage{}, fmt.Errorf("list buyers: %w", err)
	}
	defer rows.Close()

	var (
		page storage.BuyerPage
		seqs []int64
	)
	for rows.Next() {
		var (
			seq             int64
			identity        string
			amount          int64
			tokens          int64
			firstPurchaseAt int64
			updatedAt       int64
		)
		if err := rows.Scan(&seq, &identity, &amount, &tokens, &firstPurchaseAt, &updatedAt); err != nil {
			return storage.BuyerPage{}, fmt.Errorf("scan buyer: %w", err)
		}
		page.Buyers = append(page.Buyers, domain.Buyer{
			PresaleID:       query.PresaleID,
			Identity:        identity,
			Amount:          uint64(amount),
			TokensPurchased: uint64(tokens),
			FirstPurchaseAt: fromMillis(firstPurchaseAt),
			UpdatedAt:       fromMillis(updatedAt),
		})
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return storage.BuyerPage{}, fmt.Errorf("iterate buyers: %w", err)
	}

	if len(page.Buyers) > pageSize {
		page.Buyers = page.Buyers[:pageSize]
		token, err := cursor.Encode(cursor.Cursor{Seq: seqs[pageSize-1], FilterHash: filterHash})
		if err != nil {
			return storage.BuyerPage{}, fmt.Errorf("encode page token: %w", err)
		}
		page.NextPageToken = token
	}
	return page, nil
}
