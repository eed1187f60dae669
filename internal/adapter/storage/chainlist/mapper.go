package chainlist

import (
	dto "token-data-service/internal/adapter/storage/chainlist/dto"
	"token-data-service/internal/domain/entity"

	"go.uber.org/zap"
)

// publicRPCs extracts the usable public RPC URLs of chainID from raw Chainlist entries,
// preserving source order. Templated URLs (API key placeholders) and invalid URLs are dropped.
func publicRPCs(rawChains []dto.ChainRaw, chainID int64, logger *zap.Logger) []string {
	for _, raw := range rawChains {
		if raw.ChainID != chainID {
			continue
		}
		rpcs := make([]string, 0, len(raw.RPC))
		seen := make(map[string]struct{}, len(raw.RPC))
		for _, entry := range raw.RPC {
			if entity.IsPlaceholder(entry.URL) {
				continue
			}
			rpcURL, err := entity.NewRPCURL(entry.URL)
			if err != nil {
				if logger != nil {
					logger.Warn("Skipping invalid RPC URL during mapping",
						zap.Int64("chainId", raw.ChainID),
						zap.Error(err))
				}
				continue
			}
			if _, dup := seen[rpcURL.String()]; dup {
				continue
			}
			seen[rpcURL.String()] = struct{}{}
			rpcs = append(rpcs, rpcURL.String())
		}
		return rpcs
	}
	return nil
}
