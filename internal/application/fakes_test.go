package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"token-data-service/internal/adapter/contract"
	"token-data-service/internal/domain/entity"
	domainService "token-data-service/internal/domain/service"
	"token-data-service/internal/pkg/apperrors"
)

const testContract = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

var errDialRefused = errors.New("connection refused")

// fakeContract answers token calls the way a deployed contract would.
type fakeContract struct {
	mu          sync.Mutex
	name        string
	symbol      string
	decimals    uint8
	total       *big.Int
	circulating *big.Int // nil: method missing, empty return
	holders     *big.Int // nil: method missing, revert
	balances    map[common.Address]*big.Int
	logs        []types.Log
	failing     map[string]error
	calls       map[string]int
	// gate, when set, blocks calls of gateMethod until closed.
	gate       chan struct{}
	gateMethod string
	entered    chan struct{}
}

func newFakeContract() *fakeContract {
	return &fakeContract{
		name:     "Gemini Test Token",
		symbol:   "GTT",
		decimals: 18,
		total:    new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1e18)),
		balances: make(map[common.Address]*big.Int),
		failing:  make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (c *fakeContract) setFailing(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failing, method)
		return
	}
	c.failing[method] = err
}

func (c *fakeContract) callCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *fakeContract) call(ctx context.Context, data []byte) ([]byte, error) {
	method, ok := contract.MethodOf(data)
	if !ok {
		return nil, fmt.Errorf("%w: unknown selector", apperrors.ErrReverted)
	}

	c.mu.Lock()
	c.calls[method]++
	gate, entered := c.gate, c.entered
	gated := gate != nil && method == c.gateMethod
	failErr := c.failing[method]
	c.mu.Unlock()

	if gated {
		close(entered)
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch method {
	case "name":
		return contract.PackOutput(method, c.name)
	case "symbol":
		return contract.PackOutput(method, c.symbol)
	case "decimals":
		return contract.PackOutput(method, c.decimals)
	case "totalSupply":
		return contract.PackOutput(method, c.total)
	case "balanceOf":
		account, err := contract.DecodeAddressArg(data)
		if err != nil {
			return nil, err
		}
		balance, ok := c.balances[account]
		if !ok {
			balance = new(big.Int)
		}
		return contract.PackOutput(method, balance)
	case contract.MethodCirculatingSupply:
		if c.circulating == nil {
			return []byte{}, nil
		}
		return contract.PackOutput(method, c.circulating)
	case contract.MethodHolderCount:
		if c.holders == nil {
			return nil, fmt.Errorf("%w: getHolderCount", apperrors.ErrReverted)
		}
		return contract.PackOutput(method, c.holders)
	}
	return nil, fmt.Errorf("%w: %s", apperrors.ErrReverted, method)
}

// fakeEndpoint is one scripted RPC endpoint.
type fakeEndpoint struct {
	refuseDial bool
	dead       bool
	height     uint64
	contract   *fakeContract
}

// fakeDialer hands out fakeNodes and counts every network operation.
type fakeDialer struct {
	mu        sync.Mutex
	endpoints map[string]*fakeEndpoint
	nodes     []*fakeNode
	dials     []string
	netCalls  atomic.Int64
}

var _ domainService.Dialer = (*fakeDialer)(nil)

func newFakeDialer() *fakeDialer {
	return &fakeDialer{endpoints: make(map[string]*fakeEndpoint)}
}

func (d *fakeDialer) add(url string, ep *fakeEndpoint) {
	d.mu.Lock()
	d.endpoints[url] = ep
	d.mu.Unlock()
}

func (d *fakeDialer) Dial(ctx context.Context, rpcURL entity.RPCURL) (domainService.Node, error) {
	d.netCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, rpcURL.String())
	ep, ok := d.endpoints[rpcURL.String()]
	if !ok || ep.refuseDial {
		return nil, fmt.Errorf("%w: dial %s: %v", apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), errDialRefused)
	}
	n := &fakeNode{url: rpcURL, ep: ep, dialer: d}
	d.nodes = append(d.nodes, n)
	return n, nil
}

func (d *fakeDialer) allNodes() []*fakeNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeNode(nil), d.nodes...)
}

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

type fakeNode struct {
	url    entity.RPCURL
	ep     *fakeEndpoint
	dialer *fakeDialer
	closes atomic.Int32
}

var _ domainService.Node = (*fakeNode)(nil)

func (n *fakeNode) URL() entity.RPCURL { return n.url }

func (n *fakeNode) Probe(ctx context.Context) (uint64, error) {
	return n.BlockNumber(ctx)
}

func (n *fakeNode) BlockNumber(ctx context.Context) (uint64, error) {
	n.dialer.netCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if n.ep.dead {
		return 0, fmt.Errorf("%w: eth_blockNumber: 503 service unavailable", apperrors.ErrExternalServiceFailure)
	}
	return n.ep.height, nil
}

func (n *fakeNode) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	n.dialer.netCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n.ep.contract == nil || msg.To == nil {
		return []byte{}, nil
	}
	return n.ep.contract.call(ctx, msg.Data)
}

func (n *fakeNode) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	n.dialer.netCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n.ep.contract == nil {
		return nil, nil
	}
	n.ep.contract.mu.Lock()
	defer n.ep.contract.mu.Unlock()
	if err := n.ep.contract.failing["logs"]; err != nil {
		return nil, err
	}
	from, to := q.FromBlock.Uint64(), q.ToBlock.Uint64()
	out := make([]types.Log, 0)
	for _, l := range n.ep.contract.logs {
		if l.BlockNumber >= from && l.BlockNumber <= to {
			out = append(out, l)
		}
	}
	return out, nil
}

func (n *fakeNode) Close() { n.closes.Add(1) }

// transferLog builds a Transfer log emitted by address.
func transferLog(address common.Address, from, to common.Address, value int64, block uint64, index uint) types.Log {
	data, err := contract.PackTransferData(big.NewInt(value))
	if err != nil {
		panic(err)
	}
	return types.Log{
		Address:     address,
		Topics:      []common.Hash{contract.TransferEventID(), common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
	}
}
