package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	"token-data-service/internal/domain/entity"
)

// Node is one open connection to a ledger endpoint.
type Node interface {
	// URL returns the endpoint the node is connected to.
	URL() entity.RPCURL
	// Probe is the liveness check run once before a node is bound. It returns the chain head.
	Probe(ctx context.Context) (uint64, error)
	// BlockNumber fetches the current chain head over the open connection.
	BlockNumber(ctx context.Context) (uint64, error)
	// CallContract executes a read-only call at the given block (nil for latest).
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	// FilterLogs returns the logs matching q.
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	// Close releases the underlying connection.
	Close()
}

// Dialer opens connections to candidate endpoints.
type Dialer interface {
	Dial(ctx context.Context, rpcURL entity.RPCURL) (Node, error)
}
