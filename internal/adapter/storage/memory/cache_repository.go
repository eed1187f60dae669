package memory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"token-data-service/internal/domain/entity"
	domainRepo "token-data-service/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.CacheRepository = (*CacheRepository)(nil)

const checkedRPCsKeyPrefix = "checked_rpcs_"

// CacheRepository implements domainRepo.CacheRepository using the go-cache in-memory library.
// Entries live for the process lifetime at most.
type CacheRepository struct {
	cache      *cache.Cache
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewCacheRepository creates a new in-memory cache repository instance.
func NewCacheRepository(defaultExpiration, cleanupInterval time.Duration, logger *zap.Logger) *CacheRepository {
	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Info("Initialized go-cache for memory storage",
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	return &CacheRepository{
		cache:      c,
		logger:     logger.Named("MemoryCacheStorage"),
		defaultTTL: defaultExpiration,
	}
}

// GetCheckedRPCs retrieves cached checked RPCs for a chain, returning found status.
func (r *CacheRepository) GetCheckedRPCs(_ context.Context, chainID int64) ([]entity.RPCDetail, bool, error) {
	key := checkedRPCsKey(chainID)
	x, found := r.cache.Get(key)
	if !found {
		r.logger.Debug("Memory cache miss", zap.String("key", key))
		return nil, false, nil
	}
	rpcs, ok := x.([]entity.RPCDetail)
	if !ok {
		r.logger.Warn("Memory cache data type mismatch for key",
			zap.String("key", key), zap.String("type", fmt.Sprintf("%T", x)),
		)
		r.cache.Delete(key)
		return nil, false, nil
	}
	r.logger.Debug("Memory cache hit", zap.String("key", key))
	return rpcs, true, nil
}

// SetCheckedRPCs caches the checked RPCs for a chain. A non-positive ttl selects the default expiration.
func (r *CacheRepository) SetCheckedRPCs(_ context.Context, chainID int64, rpcs []entity.RPCDetail, ttl time.Duration) error {
	key := checkedRPCsKey(chainID)
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	r.cache.Set(key, rpcs, ttl)
	r.logger.Debug("Memory cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func checkedRPCsKey(chainID int64) string {
	return checkedRPCsKeyPrefix + strconv.FormatInt(chainID, 10)
}
