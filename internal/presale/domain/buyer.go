package domain

import "time"

// Buyer records one contributor's cumulative contribution to a presale.
// There is exactly one record per distinct identity; repeat purchases add
// to Amount.
type Buyer struct {
	PresaleID       string
	Identity        string
	Amount          uint64
	TokensPurchased uint64
	FirstPurchaseAt time.Time
	UpdatedAt       time.Time
}
