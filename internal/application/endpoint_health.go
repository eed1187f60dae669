package application

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"token-data-service/internal/application/port"
	"token-data-service/internal/domain/entity"
	domainRepo "token-data-service/internal/domain/repository"
	domainService "token-data-service/internal/domain/service"
)

// Compile-time check
var _ port.EndpointHealthService = (*endpointHealthService)(nil)

// HealthOptions tunes the endpoint health report.
type HealthOptions struct {
	CheckTimeout time.Duration
	MaxWorkers   int
	CacheTTL     time.Duration
}

// endpointHealthService checks every usable candidate concurrently for operators.
// The token client never consults it: endpoint selection stays sequential.
type endpointHealthService struct {
	network    entity.NetworkDescriptor
	cacheRepo  domainRepo.CacheRepository
	rpcChecker domainService.RPCChecker
	logger     *zap.Logger
	opts       HealthOptions
}

// NewEndpointHealthService creates a new endpoint health service.
func NewEndpointHealthService(
	network entity.NetworkDescriptor,
	cacheRepo domainRepo.CacheRepository,
	rpcChecker domainService.RPCChecker,
	logger *zap.Logger,
	opts HealthOptions,
) port.EndpointHealthService {
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 5 * time.Second
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 10
	}
	return &endpointHealthService{
		network:    network,
		cacheRepo:  cacheRepo,
		rpcChecker: rpcChecker,
		logger:     logger.Named("EndpointHealthService"),
		opts:       opts,
	}
}

// GetCheckedRPCs returns cached details when fresh, checks all candidates otherwise.
func (h *endpointHealthService) GetCheckedRPCs(ctx context.Context) ([]entity.RPCDetail, error) {
	chainID := h.network.ChainID

	cached, found, err := h.cacheRepo.GetCheckedRPCs(ctx, chainID)
	if err != nil {
		h.logger.Warn("Cache error when getting checked RPCs", zap.Int64("chainId", chainID), zap.Error(err))
	}
	if found {
		h.logger.Debug("Cache hit for checked RPCs", zap.Int64("chainId", chainID))
		return cached, nil
	}

	candidates, _ := h.network.UsableCandidates()
	details := h.checkRPCs(ctx, candidates)

	if err := h.cacheRepo.SetCheckedRPCs(ctx, chainID, details, h.opts.CacheTTL); err != nil {
		h.logger.Error("Failed to cache checked RPCs", zap.Int64("chainId", chainID), zap.Error(err))
	}
	return details, nil
}

// checkRPCs performs parallel RPC checks and returns details in candidate order.
func (h *endpointHealthService) checkRPCs(ctx context.Context, rpcs []entity.RPCURL) []entity.RPCDetail {
	if len(rpcs) == 0 {
		return []entity.RPCDetail{}
	}

	details := make([]entity.RPCDetail, len(rpcs))
	var wg sync.WaitGroup

	numWorkers := h.opts.MaxWorkers
	if len(rpcs) < numWorkers {
		numWorkers = len(rpcs)
	}

	jobs := make(chan int, len(rpcs))
	for i := range rpcs {
		jobs <- i
	}
	close(jobs)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				details[i] = h.checkOne(ctx, rpcs[i])
			}
			h.logger.Debug("RPC check worker finished", zap.Int("workerID", workerID))
		}(w)
	}

	wg.Wait()
	return details
}

func (h *endpointHealthService) checkOne(ctx context.Context, rpcURL entity.RPCURL) entity.RPCDetail {
	detail := entity.RPCDetail{
		URL:      rpcURL.Redacted(),
		Protocol: rpcURL.Protocol(),
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.opts.CheckTimeout)
	defer cancel()

	height, latency, err := h.rpcChecker.CheckRPC(checkCtx, rpcURL)
	isWorking := err == nil
	detail.IsWorking = &isWorking
	if err != nil {
		h.logger.Debug("RPC check failed", zap.String("rpc", detail.URL), zap.Error(err))
		return detail
	}

	latencyMs := latency.Milliseconds()
	detail.LatencyMs = &latencyMs
	detail.BlockHeight = &height
	h.logger.Debug("RPC is working", zap.String("rpc", detail.URL), zap.Duration("latency", latency))
	return detail
}
