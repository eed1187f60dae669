package repository

import "context"

// NetworkRepository provides public RPC endpoints known for a chain.
type NetworkRepository interface {
	// GetPublicRPCs returns the public RPC URLs listed for chainID, in source order.
	GetPublicRPCs(ctx context.Context, chainID int64) ([]string, error)
}
