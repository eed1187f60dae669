package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"token-data-service/internal/domain/entity"
	domainService "token-data-service/internal/domain/service"
	"token-data-service/internal/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.RPCChecker = (*Checker)(nil)

// Checker probes endpoints with a raw eth_blockNumber request, over fasthttp for
// http(s) endpoints and gorilla/websocket for ws(s) endpoints.
type Checker struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewChecker creates a new RPC checker instance. timeout bounds every probe
// when the caller's context has no earlier deadline.
func NewChecker(timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		timeout: timeout,
		logger:  logger.Named("RPCChecker"),
	}
}

// checkPayload is the standard JSON-RPC request to check node health.
var checkPayload = []byte(`{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`)

// JSONRPCResponse defines the basic structure for a JSON-RPC response.
type JSONRPCResponse struct {
	ID      interface{}     `json:"id"`
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError defines the structure for a JSON-RPC error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CheckRPC determines the protocol and calls the appropriate check function.
func (c *Checker) CheckRPC(ctx context.Context, rpcURL entity.RPCURL) (uint64, time.Duration, error) {
	startTime := time.Now()

	switch rpcURL.Protocol() {
	case entity.ProtocolWS, entity.ProtocolWSS:
		return c.checkWSS(ctx, rpcURL, startTime)
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		return c.checkHTTP(ctx, rpcURL, startTime)
	}

	c.logger.Warn("Skipping check for unsupported protocol", zap.String("url", rpcURL.Redacted()))
	return 0, 0, fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, rpcURL.Redacted())
}

// effectiveTimeout clamps the configured timeout to the context deadline.
func (c *Checker) effectiveTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

// checkHTTP performs the JSON-RPC check over HTTP/HTTPS.
func (c *Checker) checkHTTP(ctx context.Context, rpcURL entity.RPCURL, startTime time.Time) (uint64, time.Duration, error) {
	timeout := c.effectiveTimeout(ctx)
	if timeout <= 0 {
		return 0, 0, fmt.Errorf("%w: no time left to probe %s", apperrors.ErrTimeout, rpcURL.Redacted())
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL.String())
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(checkPayload)

	requestErr := c.client.DoTimeout(req, resp, timeout)
	latency := time.Since(startTime)

	if requestErr != nil {
		if errors.Is(requestErr, fasthttp.ErrTimeout) {
			c.logger.Debug("HTTP RPC check timed out",
				zap.String("url", rpcURL.Redacted()),
				zap.Duration("timeout", timeout),
				zap.Error(requestErr),
			)
			return 0, latency, fmt.Errorf("%w: http request to %s timed out after %v: %v",
				apperrors.ErrTimeout, rpcURL.Redacted(), timeout, requestErr,
			)
		}
		c.logger.Debug("HTTP RPC check request failed", zap.String("url", rpcURL.Redacted()), zap.Error(requestErr))
		return 0, latency, fmt.Errorf("%w: http request to %s failed: %v",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), requestErr,
		)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Debug("HTTP RPC check returned non-OK status",
			zap.String("url", rpcURL.Redacted()),
			zap.Int("statusCode", resp.StatusCode()),
		)
		return 0, latency, fmt.Errorf("%w: rpc %s returned non-OK http status: %d",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), resp.StatusCode(),
		)
	}

	height, err := c.parseBlockNumber(rpcURL, resp.Body())
	return height, latency, err
}

// checkWSS performs the JSON-RPC check over WSS/WS.
func (c *Checker) checkWSS(ctx context.Context, rpcURL entity.RPCURL, startTime time.Time) (uint64, time.Duration, error) {
	timeout := c.effectiveTimeout(ctx)
	if timeout <= 0 {
		return 0, 0, fmt.Errorf("%w: no time left to probe %s", apperrors.ErrTimeout, rpcURL.Redacted())
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	c.logger.Debug("Attempting WS connection",
		zap.String("url", rpcURL.Redacted()), zap.Duration("handshakeTimeout", timeout),
	)

	conn, _, err := dialer.DialContext(ctx, rpcURL.String(), nil)
	if err != nil {
		c.logger.Debug("WS dial failed", zap.String("url", rpcURL.Redacted()), zap.Error(err))
		return 0, time.Since(startTime), c.wsError(ctx, "dial", rpcURL, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if wErr := conn.WriteMessage(websocket.TextMessage, checkPayload); wErr != nil {
		c.logger.Debug("WS write message failed", zap.String("url", rpcURL.Redacted()), zap.Error(wErr))
		return 0, time.Since(startTime), c.wsError(ctx, "write", rpcURL, wErr)
	}

	_, message, rErr := conn.ReadMessage()
	latency := time.Since(startTime)
	if rErr != nil {
		c.logger.Debug("WS read message failed", zap.String("url", rpcURL.Redacted()), zap.Error(rErr))
		return 0, latency, c.wsError(ctx, "read", rpcURL, rErr)
	}

	height, err := c.parseBlockNumber(rpcURL, message)
	return height, latency, err
}

// wsError classifies a websocket failure as a timeout or a generic upstream failure.
func (c *Checker) wsError(ctx context.Context, op string, rpcURL entity.RPCURL, err error) error {
	var netErr interface{ Timeout() bool }
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: ws %s %s timed out: %v", apperrors.ErrTimeout, op, rpcURL.Redacted(), err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ws %s %s: %w", op, rpcURL.Redacted(), ctxErr)
	}
	return fmt.Errorf("%w: ws %s %s failed: %v", apperrors.ErrExternalServiceFailure, op, rpcURL.Redacted(), err)
}

// parseBlockNumber checks that body is a successful JSON-RPC response carrying a hex quantity.
func (c *Checker) parseBlockNumber(rpcURL entity.RPCURL, body []byte) (uint64, error) {
	var rpcResp JSONRPCResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		c.logger.Debug("RPC check failed to unmarshal JSON response",
			zap.String("url", rpcURL.Redacted()),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: rpc %s returned invalid JSON response: %v",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), err,
		)
	}

	if rpcResp.Error != nil {
		c.logger.Debug("RPC check returned JSON-RPC error",
			zap.String("url", rpcURL.Redacted()),
			zap.Int("errorCode", rpcResp.Error.Code),
			zap.String("errorMessage", rpcResp.Error.Message),
		)
		return 0, fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), rpcResp.Error.Code, rpcResp.Error.Message,
		)
	}

	if rpcResp.Jsonrpc != "2.0" || rpcResp.Result == nil {
		c.logger.Debug("RPC check returned invalid JSON-RPC structure", zap.String("url", rpcURL.Redacted()))
		return 0, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(),
		)
	}

	var quantity string
	if err := json.Unmarshal(rpcResp.Result, &quantity); err != nil {
		return 0, fmt.Errorf("%w: rpc %s returned a non-string block number",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(),
		)
	}
	height, err := hexutil.DecodeUint64(quantity)
	if err != nil {
		return 0, fmt.Errorf("%w: rpc %s returned malformed block number %q: %v",
			apperrors.ErrExternalServiceFailure, rpcURL.Redacted(), quantity, err,
		)
	}
	return height, nil
}
