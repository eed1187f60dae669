package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"token-data-service/internal/domain/entity"
	domainService "token-data-service/internal/domain/service"
	"token-data-service/internal/pkg/apperrors"
)

// Compile-time checks
var (
	_ domainService.Node   = (*EthNode)(nil)
	_ domainService.Dialer = (*EthDialer)(nil)
)

// revertErrorCode is the JSON-RPC error code geth-compatible nodes use for reverted calls.
const revertErrorCode = 3

// EthDialer opens go-ethereum backed connections.
type EthDialer struct {
	checker     domainService.RPCChecker
	dialTimeout time.Duration
	logger      *zap.Logger
}

// NewEthDialer creates a dialer whose nodes use checker for their liveness probe.
func NewEthDialer(checker domainService.RPCChecker, dialTimeout time.Duration, logger *zap.Logger) *EthDialer {
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	return &EthDialer{
		checker:     checker,
		dialTimeout: dialTimeout,
		logger:      logger.Named("EthDialer"),
	}
}

// Dial opens an RPC client for rpcURL within the dial timeout.
func (d *EthDialer) Dial(ctx context.Context, rpcURL entity.RPCURL) (domainService.Node, error) {
	dialCtx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	client, err := gethrpc.DialContext(dialCtx, rpcURL.String())
	if err != nil {
		return nil, classify(dialCtx, rpcURL, fmt.Sprintf("dial %s", rpcURL.Redacted()), err)
	}
	d.logger.Debug("Dialed endpoint", zap.String("url", rpcURL.Redacted()))
	return &EthNode{
		url:     rpcURL,
		client:  client,
		eth:     ethclient.NewClient(client),
		checker: d.checker,
	}, nil
}

// EthNode is one go-ethereum connection to an endpoint.
type EthNode struct {
	url     entity.RPCURL
	client  *gethrpc.Client
	eth     *ethclient.Client
	checker domainService.RPCChecker
}

func (n *EthNode) URL() entity.RPCURL {
	return n.url
}

// Probe uses the raw checker when one is configured, the open client otherwise.
func (n *EthNode) Probe(ctx context.Context) (uint64, error) {
	if n.checker != nil {
		height, _, err := n.checker.CheckRPC(ctx, n.url)
		return height, err
	}
	return n.BlockNumber(ctx)
}

func (n *EthNode) BlockNumber(ctx context.Context) (uint64, error) {
	height, err := n.eth.BlockNumber(ctx)
	if err != nil {
		return 0, classify(ctx, n.url, "eth_blockNumber", err)
	}
	return height, nil
}

func (n *EthNode) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	out, err := n.eth.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return nil, classify(ctx, n.url, "eth_call", err)
	}
	return out, nil
}

func (n *EthNode) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	logs, err := n.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, classify(ctx, n.url, "eth_getLogs", err)
	}
	return logs, nil
}

func (n *EthNode) Close() {
	n.client.Close()
}

// classify maps go-ethereum errors onto the application sentinels. The endpoint URL
// is redacted out of the message since it may carry an API key.
func classify(ctx context.Context, rpcURL entity.RPCURL, op string, err error) error {
	err = &redactedError{msg: redact(rpcURL, err), err: err}
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrReverted, op, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrReverted, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrTimeout, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrExternalServiceFailure, op, err)
}

// redactedError keeps the error chain of err but reports msg.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

func redact(rpcURL entity.RPCURL, err error) string {
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.URL != "" {
		msg = strings.ReplaceAll(msg, urlErr.URL, rpcURL.Redacted())
	}
	if raw := rpcURL.String(); raw != "" {
		msg = strings.ReplaceAll(msg, raw, rpcURL.Redacted())
	}
	return msg
}
