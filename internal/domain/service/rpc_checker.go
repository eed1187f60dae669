package service

import (
	"context"
	"time"

	"token-data-service/internal/domain/entity"
)

// RPCChecker defines the interface for checking RPC endpoint status.
type RPCChecker interface {
	// CheckRPC issues an eth_blockNumber probe and returns the observed block height.
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (blockHeight uint64, latency time.Duration, err error)
}
