package chainlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	dto "token-data-service/internal/adapter/storage/chainlist/dto"
	"token-data-service/internal/config"
	domainRepo "token-data-service/internal/domain/repository"
	"token-data-service/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.NetworkRepository = (*Repository)(nil)

// Repository implements NetworkRepository by fetching the public Chainlist registry.
type Repository struct {
	client  *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRepository creates a new Chainlist repository instance.
func NewRepository(cfg config.ChainlistConfig, logger *zap.Logger) *Repository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Repository{
		client:  &fasthttp.Client{},
		url:     cfg.URL,
		timeout: timeout,
		logger:  logger.Named("ChainlistStorage"),
	}
}

// GetPublicRPCs returns the public RPC URLs Chainlist lists for chainID.
func (r *Repository) GetPublicRPCs(ctx context.Context, chainID int64) ([]string, error) {
	rawChains, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rpcs := publicRPCs(rawChains, chainID, r.logger)
	if rpcs == nil {
		return nil, fmt.Errorf("%w: chain %d not listed on Chainlist", apperrors.ErrNotFound, chainID)
	}
	r.logger.Info("Resolved public RPCs from Chainlist",
		zap.Int64("chainId", chainID),
		zap.Int("count", len(rpcs)),
	)
	return rpcs, nil
}

func (r *Repository) fetch(ctx context.Context) ([]dto.ChainRaw, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(r.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: chainlist request: %v", apperrors.ErrTimeout, context.DeadlineExceeded)
	}

	r.logger.Debug("Fetching chains from Chainlist",
		zap.String("url", r.url),
		zap.Duration("timeout", timeout),
	)

	if err := r.client.DoTimeout(req, resp, timeout); err != nil {
		r.logger.Error("Failed to execute request to Chainlist", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to execute request to Chainlist: %v",
			apperrors.ErrExternalServiceFailure, err,
		)
	}

	if resp.StatusCode() == fasthttp.StatusNotFound {
		r.logger.Warn("Chainlist source reported not found", zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("%w: chainlist source reported not found (%s)", apperrors.ErrNotFound, r.url)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		r.logger.Error("Chainlist returned non-OK status", zap.Int("statusCode", resp.StatusCode()))
		return nil, fmt.Errorf("%w: chainlist returned status %d",
			apperrors.ErrExternalServiceFailure, resp.StatusCode(),
		)
	}

	body := resp.Body()
	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		var err error
		body, err = resp.BodyGunzip()
		if err != nil {
			r.logger.Error("Failed to gunzip Chainlist response body", zap.Error(err))
			return nil, fmt.Errorf("%w: failed to decompress chainlist response: %v",
				apperrors.ErrExternalServiceFailure, err,
			)
		}
	}

	var rawChains []dto.ChainRaw
	if err := json.Unmarshal(body, &rawChains); err != nil {
		r.logger.Error("Failed to unmarshal Chainlist response", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to parse chainlist response: %v",
			apperrors.ErrExternalServiceFailure, err,
		)
	}
	return rawChains, nil
}
