package port

import (
	"context"

	"token-data-service/internal/domain/entity"
)

// TokenService defines the on-chain token data client used by delivery layers.
type TokenService interface {
	// Connect selects an endpoint and verifies the contract. It is a no-op while a binding is held.
	Connect(ctx context.Context) (entity.ConnectionBinding, error)

	// Reconnect discards any binding and rebuilds it from the full candidate list.
	Reconnect(ctx context.Context) (entity.ConnectionBinding, error)

	// GetTokenMetadata reads name, symbol, decimals and supplies of the bound contract.
	GetTokenMetadata(ctx context.Context) (entity.TokenMetadata, error)

	// GetBalance reads the token balance of address.
	GetBalance(ctx context.Context, address string) (entity.Balance, error)

	// GetRecentTransfers returns at most limit Transfer events from the lookback window, ascending by block.
	GetRecentTransfers(ctx context.Context, limit int) ([]entity.Transfer, error)

	// GetHolderCount returns the holder count; ok is false when the contract does not expose it.
	GetHolderCount(ctx context.Context) (count uint64, ok bool, err error)

	// Validate runs every configuration and connectivity check and accumulates failures.
	Validate(ctx context.Context) entity.ValidationReport

	// GetStatus returns a snapshot of internal state without any network call.
	GetStatus() entity.ServiceStatus
}
