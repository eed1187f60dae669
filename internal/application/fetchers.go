package application

import (
	"context"
	"errors"
	"math/big"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"token-data-service/internal/adapter/contract"
	"token-data-service/internal/domain"
	"token-data-service/internal/domain/entity"
)

var errNoBinding = domain.NewError(domain.KindConnection, "", nil, "no active binding, call Connect or Reconnect")

// withBinding runs fn against the binding held at call start. Fetch failures on a live
// binding are recorded and degrade the client; cancelled calls are not recorded.
func (s *tokenService) withBinding(ctx context.Context, op string, fn func(ctx context.Context, b *binding) error) error {
	b := s.acquire()
	if b == nil {
		return errNoBinding
	}
	defer s.release(b)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	err := fn(callCtx, b)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		s.logger.Debug("Fetch cancelled by caller", zap.String("op", op), zap.Error(ctx.Err()))
		return err
	}

	s.logger.Warn("Fetch failed", zap.String("op", op), zap.String("endpoint", b.info.Endpoint), zap.Error(err))
	if domain.KindOf(err) == domain.KindContract {
		s.degrade(b, err)
	}
	return err
}

// degrade records err and moves Bound to Degraded, as long as b is still the live binding.
func (s *tokenService) degrade(b *binding, err error) {
	if !s.isCurrent(b) {
		return
	}
	record := toRecord(err)
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.lastErr = record
	if s.state == entity.StateBound {
		s.state = entity.StateDegraded
	}
}

func contractErr(b *binding, cause error, format string, args ...any) error {
	return domain.NewError(domain.KindContract, b.info.Endpoint, cause, format, args...)
}

// GetTokenMetadata reads the required metadata concurrently. A missing
// getCirculatingSupply falls back to the total supply.
func (s *tokenService) GetTokenMetadata(ctx context.Context) (entity.TokenMetadata, error) {
	var meta entity.TokenMetadata
	err := s.withBinding(ctx, "metadata", func(ctx context.Context, b *binding) error {
		var (
			name, symbol string
			decimals     uint8
			total        *big.Int
			circulating  *big.Int
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			name, err = b.token.Name(gctx)
			return err
		})
		g.Go(func() (err error) {
			symbol, err = b.token.Symbol(gctx)
			return err
		})
		g.Go(func() (err error) {
			decimals, err = b.token.Decimals(gctx)
			return err
		})
		g.Go(func() (err error) {
			total, err = b.token.TotalSupply(gctx)
			return err
		})
		g.Go(func() error {
			v, err := b.token.CirculatingSupply(gctx)
			if errors.Is(err, domain.ErrUnsupportedCapability) {
				s.logger.Debug("Circulating supply not exposed, using total supply", zap.Error(err))
				return nil
			}
			circulating = v
			return err
		})
		if err := g.Wait(); err != nil {
			return contractErr(b, err, "read token metadata")
		}

		if circulating == nil {
			circulating = total
		}
		meta = entity.TokenMetadata{
			Name:              name,
			Symbol:            symbol,
			Decimals:          decimals,
			TotalSupply:       entity.FormatUnits(total, decimals),
			CirculatingSupply: entity.FormatUnits(circulating, decimals),
			ContractAddress:   b.info.ContractAddress,
			Network:           s.network.Name,
			Verified:          true,
		}
		return nil
	})
	return meta, err
}

// GetBalance validates address locally before any I/O, then reads balanceOf and decimals.
func (s *tokenService) GetBalance(ctx context.Context, address string) (entity.Balance, error) {
	account, err := entity.NewAddress(address)
	if err != nil {
		return entity.Balance{}, domain.NewError(domain.KindValidation, "", err, "invalid address")
	}

	var balance entity.Balance
	err = s.withBinding(ctx, "balance", func(ctx context.Context, b *binding) error {
		var (
			raw      *big.Int
			decimals uint8
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			raw, err = b.token.BalanceOf(gctx, account.Common())
			return err
		})
		g.Go(func() (err error) {
			decimals, err = b.token.Decimals(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return contractErr(b, err, "read balance of %s", account)
		}

		balance = entity.Balance{
			Address:          account,
			RawBalance:       raw,
			FormattedBalance: entity.FormatUnits(raw, decimals),
			Decimals:         decimals,
		}
		return nil
	})
	return balance, err
}

// GetRecentTransfers returns the most recent limit Transfer events in the lookback window,
// ascending by block number. Older events inside the window beyond limit are dropped.
// A non-positive limit yields an empty result without any I/O.
func (s *tokenService) GetRecentTransfers(ctx context.Context, limit int) ([]entity.Transfer, error) {
	if limit <= 0 {
		return []entity.Transfer{}, nil
	}

	var transfers []entity.Transfer
	err := s.withBinding(ctx, "transfers", func(ctx context.Context, b *binding) error {
		head, err := b.node.BlockNumber(ctx)
		if err != nil {
			return contractErr(b, err, "read chain head")
		}
		from := uint64(0)
		if head >= TransferLookbackBlocks {
			from = head - TransferLookbackBlocks + 1
		}

		var (
			decimals uint8
			events   []contract.TransferEvent
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			decimals, err = b.token.Decimals(gctx)
			return err
		})
		g.Go(func() error {
			logs, err := b.node.FilterLogs(gctx, contract.TransferQuery(b.token.Address(), from, head))
			if err != nil {
				return err
			}
			events = make([]contract.TransferEvent, 0, len(logs))
			for _, l := range logs {
				if l.Removed {
					continue
				}
				ev, err := contract.ParseTransfer(l)
				if err != nil {
					s.logger.Debug("Skipping undecodable Transfer log",
						zap.Uint64("block", l.BlockNumber), zap.Error(err))
					continue
				}
				events = append(events, ev)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return contractErr(b, err, "query Transfer logs in blocks %d-%d", from, head)
		}

		sort.SliceStable(events, func(i, j int) bool {
			if events[i].BlockNumber != events[j].BlockNumber {
				return events[i].BlockNumber < events[j].BlockNumber
			}
			return events[i].LogIndex < events[j].LogIndex
		})
		if len(events) > limit {
			events = events[len(events)-limit:]
		}

		transfers = make([]entity.Transfer, 0, len(events))
		for _, ev := range events {
			transfers = append(transfers, entity.Transfer{
				From:           ev.From.Hex(),
				To:             ev.To.Hex(),
				RawValue:       ev.Value,
				FormattedValue: entity.FormatUnits(ev.Value, decimals),
				BlockNumber:    ev.BlockNumber,
				LogIndex:       ev.LogIndex,
				TxHash:         ev.TxHash.Hex(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

// GetHolderCount reads the optional getHolderCount method. ok is false when the
// contract does not expose it; that case is neither an error nor a degradation.
func (s *tokenService) GetHolderCount(ctx context.Context) (uint64, bool, error) {
	var (
		count uint64
		ok    bool
	)
	err := s.withBinding(ctx, "holders", func(ctx context.Context, b *binding) error {
		v, err := b.token.HolderCount(ctx)
		if errors.Is(err, domain.ErrUnsupportedCapability) {
			s.logger.Debug("Holder count not exposed by contract", zap.Error(err))
			return nil
		}
		if err != nil {
			return contractErr(b, err, "read holder count")
		}
		if !v.IsUint64() {
			return contractErr(b, contract.ErrUnexpectedReturn, "holder count %s out of range", v)
		}
		count, ok = v.Uint64(), true
		return nil
	})
	return count, ok, err
}
