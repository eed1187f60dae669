package repository

import (
	"context"
	"time"

	"token-data-service/internal/domain/entity"
)

// CacheRepository defines the interface for caching endpoint health reports.
type CacheRepository interface {
	// GetCheckedRPCs retrieves the cached list of checked RPC details for a chain ID.
	GetCheckedRPCs(ctx context.Context, chainID int64) ([]entity.RPCDetail, bool, error)

	// SetCheckedRPCs stores the list of checked RPC details for a chain ID with a specified TTL.
	SetCheckedRPCs(ctx context.Context, chainID int64, rpcs []entity.RPCDetail, ttl time.Duration) error
}
