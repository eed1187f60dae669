package application

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"token-data-service/internal/adapter/contract"
	"token-data-service/internal/application/port"
	"token-data-service/internal/domain"
	"token-data-service/internal/domain/entity"
	domainService "token-data-service/internal/domain/service"
)

// Compile-time check to ensure tokenService implements TokenService
var _ port.TokenService = (*tokenService)(nil)

// TransferLookbackBlocks is the number of blocks scanned for Transfer events, chain head included.
const TransferLookbackBlocks uint64 = 10_000

// Options tunes timeouts of the token service. Zero values select defaults.
type Options struct {
	ProbeTimeout time.Duration
	CallTimeout  time.Duration
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 5 * time.Second
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// binding is a verified connection. It is never mutated after creation except for
// its reference count: the node is closed once the binding is retired and the last
// in-flight call has released it.
type binding struct {
	info  entity.ConnectionBinding
	node  domainService.Node
	token *contract.Token

	refs      atomic.Int64
	retired   atomic.Bool
	closeOnce sync.Once
}

func (b *binding) close() {
	b.closeOnce.Do(b.node.Close)
}

// tokenService implements port.TokenService over one network and one contract.
type tokenService struct {
	network         entity.NetworkDescriptor
	contractAddress string
	dialer          domainService.Dialer
	logger          *zap.Logger
	opts            Options

	// opMu serialises Connect and Reconnect.
	opMu sync.Mutex

	bindMu  sync.RWMutex
	current *binding

	stateMu  sync.Mutex
	state    entity.ClientState
	lastErr  *entity.ErrorRecord
	liveNode bool
}

// NewTokenService creates the token client. It does not touch the network; call Connect.
func NewTokenService(
	network entity.NetworkDescriptor,
	contractAddress string,
	dialer domainService.Dialer,
	logger *zap.Logger,
	opts Options,
) port.TokenService {
	return newTokenService(network, contractAddress, dialer, logger, opts)
}

func newTokenService(
	network entity.NetworkDescriptor,
	contractAddress string,
	dialer domainService.Dialer,
	logger *zap.Logger,
	opts Options,
) *tokenService {
	return &tokenService{
		network:         network,
		contractAddress: contractAddress,
		dialer:          dialer,
		logger:          logger.Named("TokenService").With(zap.String("network", network.Name)),
		opts:            opts.withDefaults(),
		state:           entity.StateUninitialized,
	}
}

// acquire returns the current binding with its reference count raised, or nil.
func (s *tokenService) acquire() *binding {
	s.bindMu.RLock()
	defer s.bindMu.RUnlock()
	b := s.current
	if b != nil {
		b.refs.Add(1)
	}
	return b
}

func (s *tokenService) release(b *binding) {
	if b.refs.Add(-1) == 0 && b.retired.Load() {
		b.close()
	}
}

// install makes b the current binding.
func (s *tokenService) install(b *binding) {
	s.bindMu.Lock()
	s.current = b
	s.bindMu.Unlock()
}

// discard retires the current binding. In-flight calls keep using it until they release it.
func (s *tokenService) discard() {
	s.bindMu.Lock()
	b := s.current
	s.current = nil
	s.bindMu.Unlock()
	if b == nil {
		return
	}
	b.retired.Store(true)
	if b.refs.Load() == 0 {
		b.close()
	}
	s.logger.Info("Binding discarded", zap.String("endpoint", b.info.Endpoint))
}

func (s *tokenService) isCurrent(b *binding) bool {
	s.bindMu.RLock()
	defer s.bindMu.RUnlock()
	return s.current == b
}

func (s *tokenService) setState(state entity.ClientState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

func (s *tokenService) currentState() entity.ClientState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *tokenService) setLiveNode(live bool) {
	s.stateMu.Lock()
	s.liveNode = live
	s.stateMu.Unlock()
}

// fail records err as the last error and moves the client to state.
func (s *tokenService) fail(state entity.ClientState, err error) {
	record := toRecord(err)
	s.stateMu.Lock()
	s.state = state
	s.lastErr = record
	s.stateMu.Unlock()
}

func toRecord(err error) *entity.ErrorRecord {
	var e *domain.Error
	if !errors.As(err, &e) {
		return &entity.ErrorRecord{Kind: string(domain.KindContract), Message: err.Error()}
	}
	return &entity.ErrorRecord{
		Kind:     string(e.Kind),
		Message:  e.Error(),
		Endpoint: e.Endpoint,
	}
}
