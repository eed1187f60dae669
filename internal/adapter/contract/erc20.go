// Package contract holds the typed binding for the token contract read surface.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"token-data-service/internal/domain"
	"token-data-service/internal/pkg/apperrors"
)

// tokenABIJSON is the subset of the token ABI this client reads.
const tokenABIJSON = `[
	{"type":"function","name":"name","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"symbol","inputs":[],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"},
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"name":"","type":"uint8"}],"stateMutability":"view"},
	{"type":"function","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"getCirculatingSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"getHolderCount","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]}
]`

// Method names of the optional surface.
const (
	MethodCirculatingSupply = "getCirculatingSupply"
	MethodHolderCount       = "getHolderCount"
)

var (
	// ErrEmptyReturn means the call succeeded but returned no data, as calls to
	// accounts without code or without the method do.
	ErrEmptyReturn = errors.New("call returned no data")

	// ErrUnexpectedReturn means the returned data does not decode as the ABI declares.
	ErrUnexpectedReturn = errors.New("call returned data of an unexpected shape")
)

var tokenABI = mustParseABI(tokenABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid token ABI: %v", err))
	}
	return parsed
}

// Caller executes read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Token is a typed handle on one token contract, reached through one caller.
// Optional methods are probed on first use and the verdict is kept for the
// lifetime of the handle.
type Token struct {
	address common.Address
	caller  Caller

	mu          sync.Mutex
	unsupported map[string]bool
}

// NewToken binds address to caller.
func NewToken(address common.Address, caller Caller) *Token {
	return &Token{
		address:     address,
		caller:      caller,
		unsupported: make(map[string]bool),
	}
}

// Address returns the bound contract address.
func (t *Token) Address() common.Address {
	return t.address
}

func (t *Token) Name(ctx context.Context) (string, error) {
	var out string
	err := t.read(ctx, &out, "name")
	return out, err
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	var out string
	err := t.read(ctx, &out, "symbol")
	return out, err
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	var out uint8
	err := t.read(ctx, &out, "decimals")
	return out, err
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	out := new(big.Int)
	err := t.read(ctx, &out, "totalSupply")
	return out, err
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	out := new(big.Int)
	err := t.read(ctx, &out, "balanceOf", account)
	return out, err
}

// CirculatingSupply reads the optional getCirculatingSupply method. It returns an error
// matching domain.ErrUnsupportedCapability when the contract does not implement it.
func (t *Token) CirculatingSupply(ctx context.Context) (*big.Int, error) {
	out := new(big.Int)
	err := t.readOptional(ctx, &out, MethodCirculatingSupply)
	return out, err
}

// HolderCount reads the optional getHolderCount method. It returns an error
// matching domain.ErrUnsupportedCapability when the contract does not implement it.
func (t *Token) HolderCount(ctx context.Context) (*big.Int, error) {
	out := new(big.Int)
	err := t.readOptional(ctx, &out, MethodHolderCount)
	return out, err
}

// Supports reports the memoised verdict for an optional method. known is false until
// the method has been probed through this handle.
func (t *Token) Supports(method string) (supported, known bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	unsupported, known := t.unsupported[method]
	return !unsupported, known
}

func (t *Token) readOptional(ctx context.Context, result interface{}, method string) error {
	if supported, known := t.Supports(method); known && !supported {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedCapability, method)
	}

	err := t.read(ctx, result, method)
	switch {
	case err == nil:
		t.remember(method, false)
		return nil
	case errors.Is(err, apperrors.ErrReverted),
		errors.Is(err, ErrEmptyReturn),
		errors.Is(err, ErrUnexpectedReturn):
		t.remember(method, true)
		return fmt.Errorf("%w: %s: %v", domain.ErrUnsupportedCapability, method, err)
	default:
		return err
	}
}

func (t *Token) remember(method string, unsupported bool) {
	t.mu.Lock()
	t.unsupported[method] = unsupported
	t.mu.Unlock()
}

func (t *Token) read(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	data, err := tokenABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("%w: pack %s: %v", apperrors.ErrInternal, method, err)
	}

	to := t.address
	out, err := t.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return fmt.Errorf("%s: %w", method, ErrEmptyReturn)
	}
	if err := tokenABI.UnpackIntoInterface(result, method, out); err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrUnexpectedReturn, err)
	}
	return nil
}

// TransferEventID is the topic hash of Transfer(address,address,uint256).
func TransferEventID() common.Hash {
	return tokenABI.Events["Transfer"].ID
}

// TransferQuery builds the log filter for Transfer events of address in [from, to].
func TransferQuery(address common.Address, from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{TransferEventID()}},
	}
}

// TransferEvent is a decoded Transfer log.
type TransferEvent struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
}

// ParseTransfer decodes a Transfer log.
func ParseTransfer(log types.Log) (TransferEvent, error) {
	if len(log.Topics) != 3 || log.Topics[0] != TransferEventID() {
		return TransferEvent{}, fmt.Errorf("%w: log is not a Transfer event", ErrUnexpectedReturn)
	}
	values, err := tokenABI.Unpack("Transfer", log.Data)
	if err != nil {
		return TransferEvent{}, fmt.Errorf("%w: transfer data: %v", ErrUnexpectedReturn, err)
	}
	if len(values) != 1 {
		return TransferEvent{}, fmt.Errorf("%w: transfer data has %d values", ErrUnexpectedReturn, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return TransferEvent{}, fmt.Errorf("%w: transfer value is %T", ErrUnexpectedReturn, values[0])
	}
	return TransferEvent{
		From:        common.BytesToAddress(log.Topics[1].Bytes()),
		To:          common.BytesToAddress(log.Topics[2].Bytes()),
		Value:       value,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.Index,
		TxHash:      log.TxHash,
	}, nil
}

// PackOutput ABI-encodes the return values of method. Fake endpoints in tests use it
// to answer calls the way a real contract would.
func PackOutput(method string, values ...interface{}) ([]byte, error) {
	m, ok := tokenABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("unknown method %s", method)
	}
	return m.Outputs.Pack(values...)
}

// MethodOf returns the method name whose selector prefixes calldata.
func MethodOf(calldata []byte) (string, bool) {
	if len(calldata) < 4 {
		return "", false
	}
	m, err := tokenABI.MethodById(calldata[:4])
	if err != nil {
		return "", false
	}
	return m.Name, true
}

// PackTransferData ABI-encodes the non-indexed part of a Transfer event.
func PackTransferData(value *big.Int) ([]byte, error) {
	return tokenABI.Events["Transfer"].Inputs.NonIndexed().Pack(value)
}

// DecodeAddressArg decodes the single address argument of balanceOf calldata.
func DecodeAddressArg(calldata []byte) (common.Address, error) {
	if len(calldata) < 4 {
		return common.Address{}, fmt.Errorf("calldata too short")
	}
	args, err := tokenABI.Methods["balanceOf"].Inputs.Unpack(calldata[4:])
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := args[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected argument %T", args[0])
	}
	return addr, nil
}
