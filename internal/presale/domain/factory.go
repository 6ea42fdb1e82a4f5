package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/qerralabs/launchpad/internal/errors"
	"github.com/qerralabs/launchpad/internal/platform/id"
)

// MaxFeeBps is the upper bound for a platform fee expressed in basis points.
const MaxFeeBps = 10_000

// Factory is a per-deployer registry that creates and counts presales.
type Factory struct {
	ID           string
	Owner        string
	PresaleCount uint64
	PlatformFee  uint64 // basis points, 0-10000
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InitializeFactoryInput describes the inputs for creating a factory.
type InitializeFactoryInput struct {
	Owner       string
	PlatformFee uint64
}

// InitializeFactory creates a new factory with a generated ID and a zeroed
// presale counter. The fee bound is enforced here so downstream fee math can
// assume a valid basis-points rate.
func InitializeFactory(input InitializeFactoryInput, now func() time.Time, idGenerator func() (string, error)) (Factory, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	owner := strings.TrimSpace(input.Owner)
	if owner == "" {
		return Factory{}, errors.New(errors.CodeUnauthorized, "factory owner is required")
	}
	if input.PlatformFee > MaxFeeBps {
		return Factory{}, errors.WithMetadata(errors.CodeInvalidFee,
			"platform fee exceeds 10000 basis points",
			map[string]string{"platform_fee": fmt.Sprintf("%d", input.PlatformFee)})
	}

	factoryID, err := idGenerator()
	if err != nil {
		return Factory{}, fmt.Errorf("generate factory id: %w", err)
	}

	createdAt := now().UTC()
	return Factory{
		ID:           factoryID,
		Owner:        owner,
		PresaleCount: 0,
		PlatformFee:  input.PlatformFee,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}
