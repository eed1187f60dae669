package application

import (
	"context"
	"fmt"

	"token-data-service/internal/domain/entity"
)

// Validate runs the static configuration checks, the binding check and a live identity
// probe, in that order, and reports every failure. It never changes the client state.
func (s *tokenService) Validate(ctx context.Context) entity.ValidationReport {
	errs := make([]string, 0)

	if _, err := s.contractAddressChecked(); err != nil {
		errs = append(errs, err.Error())
	}

	usable, skipped := s.network.UsableCandidates()
	if len(usable) == 0 {
		errs = append(errs, fmt.Sprintf("no usable RPC endpoint configured for %s (%d placeholder or invalid)",
			s.network.Name, len(skipped)))
	}

	b := s.acquire()
	if b == nil {
		errs = append(errs, fmt.Sprintf("no active connection to %s", s.network.Name))
	} else {
		defer s.release(b)
		probeCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
		defer cancel()
		if _, err := b.token.Symbol(probeCtx); err != nil {
			errs = append(errs, fmt.Sprintf("contract %s not reachable via %s: %v",
				b.info.ContractAddress, b.info.Endpoint, err))
		}
	}

	return entity.ValidationReport{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// GetStatus returns a snapshot of the client state. It performs no network call.
func (s *tokenService) GetStatus() entity.ServiceStatus {
	s.bindMu.RLock()
	b := s.current
	s.bindMu.RUnlock()

	s.stateMu.Lock()
	state := s.state
	liveNode := s.liveNode
	var lastErr *entity.ErrorRecord
	if s.lastErr != nil {
		copied := *s.lastErr
		lastErr = &copied
	}
	s.stateMu.Unlock()

	status := entity.ServiceStatus{
		State:           state,
		Initialized:     state == entity.StateBound || state == entity.StateDegraded,
		HasConnection:   b != nil || liveNode,
		HasBinding:      b != nil,
		LastError:       lastErr,
		ContractAddress: s.contractAddress,
		Network:         s.network.Name,
		Timestamp:       s.opts.Now(),
	}
	if b != nil {
		status.Endpoint = b.info.Endpoint
		status.BlockAtBind = b.info.BlockAtBind
	}
	return status
}
