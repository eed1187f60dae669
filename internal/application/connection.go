package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"token-data-service/internal/adapter/contract"
	"token-data-service/internal/domain"
	"token-data-service/internal/domain/entity"
	domainService "token-data-service/internal/domain/service"
)

// Connect builds the binding when none exists yet. While a binding is held it returns it
// unchanged. A Failed client stays failed until Reconnect.
func (s *tokenService) Connect(ctx context.Context) (entity.ConnectionBinding, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	switch s.currentState() {
	case entity.StateBound, entity.StateDegraded:
		if b := s.acquire(); b != nil {
			defer s.release(b)
			return b.info, nil
		}
	case entity.StateFailed:
		return entity.ConnectionBinding{}, domain.NewError(domain.KindConnection, "", nil,
			"client is in failed state, call Reconnect to retry")
	}
	return s.connectLocked(ctx)
}

// Reconnect discards any existing binding, clears the last error and rebuilds the binding
// from the full candidate list, including candidates that failed before.
func (s *tokenService) Reconnect(ctx context.Context) (entity.ConnectionBinding, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.logger.Info("Reconnect requested")
	s.discard()
	s.stateMu.Lock()
	s.lastErr = nil
	s.stateMu.Unlock()

	return s.connectLocked(ctx)
}

// connectLocked runs selectEndpoint followed by verifyAndBind. Callers hold opMu.
func (s *tokenService) connectLocked(ctx context.Context) (entity.ConnectionBinding, error) {
	s.setState(entity.StateConnecting)

	address, err := s.contractAddressChecked()
	if err != nil {
		s.logger.Error("Contract address rejected", zap.Error(err))
		s.fail(entity.StateFailed, err)
		return entity.ConnectionBinding{}, err
	}

	node, height, err := s.selectEndpoint(ctx)
	if err != nil {
		return entity.ConnectionBinding{}, s.connectFailed(ctx, err)
	}
	s.setLiveNode(true)

	b, err := s.verifyAndBind(ctx, node, height, address)
	s.setLiveNode(false)
	if err != nil {
		node.Close()
		return entity.ConnectionBinding{}, s.connectFailed(ctx, err)
	}

	s.install(b)
	s.setState(entity.StateBound)
	s.logger.Info("Contract bound",
		zap.String("endpoint", b.info.Endpoint),
		zap.Uint64("block", b.info.BlockAtBind),
		zap.String("contract", address.String()),
	)
	return b.info, nil
}

// connectFailed records a pipeline failure, unless the caller cancelled it.
func (s *tokenService) connectFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.logger.Info("Connect cancelled by caller", zap.Error(ctx.Err()))
		s.setState(entity.StateUninitialized)
		return fmt.Errorf("connect: %w", ctx.Err())
	}
	s.fail(entity.StateFailed, err)
	return err
}

// contractAddressChecked applies the static address checks. No I/O happens here.
func (s *tokenService) contractAddressChecked() (entity.Address, error) {
	if entity.IsPlaceholder(s.contractAddress) {
		return "", domain.NewError(domain.KindConfiguration, "", nil, "contract address is not configured")
	}
	address, err := entity.NewAddress(s.contractAddress)
	if err != nil {
		return "", domain.NewError(domain.KindConfiguration, "", err, "invalid contract address")
	}
	if address.IsZero() {
		return "", domain.NewError(domain.KindConfiguration, "", nil, "contract address is the zero address")
	}
	return address, nil
}

// selectEndpoint probes the usable candidates sequentially and returns the first live node
// together with the block height it reported.
func (s *tokenService) selectEndpoint(ctx context.Context) (domainService.Node, uint64, error) {
	candidates, skipped := s.network.UsableCandidates()
	for _, sc := range skipped {
		s.logger.Warn("Skipping RPC candidate", zap.Int("position", sc.Position), zap.String("reason", sc.Reason))
	}
	if len(candidates) == 0 {
		return nil, 0, domain.NewError(domain.KindConfiguration, "", nil,
			"no usable RPC endpoint configured for %s", s.network.Name)
	}

	attempted := 0
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		attempted++

		node, height, err := s.probe(ctx, candidate)
		if err != nil {
			s.logger.Info("Endpoint probe failed",
				zap.Int("attempt", attempted),
				zap.String("endpoint", candidate.Redacted()),
				zap.String("outcome", "unreachable"),
			)
			s.logger.Debug("Endpoint probe error", zap.String("endpoint", candidate.Redacted()), zap.Error(err))
			continue
		}

		s.logger.Info("Endpoint probe succeeded",
			zap.Int("attempt", attempted),
			zap.String("endpoint", candidate.Redacted()),
			zap.String("outcome", "live"),
			zap.Uint64("block", height),
		)
		return node, height, nil
	}

	return nil, 0, domain.NewError(domain.KindConnection, "", nil,
		"no reachable endpoint for %s after %d attempt(s)", s.network.Name, attempted)
}

// probe dials one candidate and fetches its block height within the probe timeout.
func (s *tokenService) probe(ctx context.Context, candidate entity.RPCURL) (domainService.Node, uint64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.ProbeTimeout)
	defer cancel()

	node, err := s.dialer.Dial(probeCtx, candidate)
	if err != nil {
		return nil, 0, err
	}
	height, err := node.Probe(probeCtx)
	if err != nil {
		node.Close()
		return nil, 0, err
	}
	return node, height, nil
}

// verifyAndBind binds a typed handle to address on node and confirms identity with symbol().
// The candidate list is not walked again on failure: a dead contract on a live node is
// reported as such.
func (s *tokenService) verifyAndBind(
	ctx context.Context,
	node domainService.Node,
	height uint64,
	address entity.Address,
) (*binding, error) {
	token := contract.NewToken(address.Common(), node)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	symbol, err := token.Symbol(callCtx)
	if err != nil {
		return nil, domain.NewError(domain.KindContract, node.URL().Redacted(), err,
			"identity verification failed for %s", address)
	}
	s.logger.Debug("Identity verified", zap.String("symbol", symbol), zap.String("contract", address.String()))

	return &binding{
		info: entity.ConnectionBinding{
			Endpoint:        node.URL().Redacted(),
			BlockAtBind:     height,
			ContractAddress: address,
			BoundAt:         s.opts.Now(),
		},
		node:  node,
		token: token,
	}, nil
}
