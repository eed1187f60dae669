package port

import (
	"context"

	"token-data-service/internal/domain/entity"
)

// EndpointHealthService reports the liveness of every configured RPC candidate.
type EndpointHealthService interface {
	// GetCheckedRPCs returns one detail per usable candidate, in priority order.
	GetCheckedRPCs(ctx context.Context) ([]entity.RPCDetail, error)
}
