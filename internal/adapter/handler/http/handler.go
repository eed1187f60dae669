package http

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"token-data-service/internal/application/port"
	"token-data-service/internal/domain"
	"token-data-service/internal/domain/entity"
)

const (
	defaultTransferLimit = 10
	maxTransferLimit     = 100
)

// TokenHandler serves the token client over HTTP.
type TokenHandler struct {
	tokens port.TokenService
	health port.EndpointHealthService
	logger *zap.Logger
}

func NewTokenHandler(tokens port.TokenService, health port.EndpointHealthService, logger *zap.Logger) *TokenHandler {
	return &TokenHandler{
		tokens: tokens,
		health: health,
		logger: logger.Named("TokenHandler"),
	}
}

type tokenDataResponse struct {
	entity.TokenMetadata
	HolderCount *uint64   `json:"holderCount"`
	Timestamp   time.Time `json:"timestamp"`
}

type holdersResponse struct {
	HolderCount *uint64 `json:"holderCount"`
	Supported   bool    `json:"supported"`
}

type transfersResponse struct {
	Transfers []entity.Transfer `json:"transfers"`
	Count     int               `json:"count"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Action string `json:"action,omitempty"`
}

// GetTokenData handles requests for token metadata together with the holder count.
func (h *TokenHandler) GetTokenData(ctx *fasthttp.RequestCtx) {
	meta, err := h.tokens.GetTokenMetadata(ctx)
	if err != nil {
		h.writeError(ctx, "metadata", err)
		return
	}

	resp := tokenDataResponse{TokenMetadata: meta, Timestamp: time.Now().UTC()}
	count, ok, err := h.tokens.GetHolderCount(ctx)
	if err != nil {
		h.logger.Warn("Holder count unavailable for token data", zap.Error(err))
	} else if ok {
		resp.HolderCount = &count
	}
	h.writeJSON(ctx, fasthttp.StatusOK, resp)
}

// GetBalance handles balance requests for the address path parameter.
func (h *TokenHandler) GetBalance(ctx *fasthttp.RequestCtx) {
	address, _ := ctx.UserValue("address").(string)
	balance, err := h.tokens.GetBalance(ctx, address)
	if err != nil {
		h.writeError(ctx, "balance", err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, balance)
}

// GetTransfers handles requests for recent Transfer events. limit defaults to 10 and is capped at 100.
// A non-positive limit yields an empty list.
func (h *TokenHandler) GetTransfers(ctx *fasthttp.RequestCtx) {
	limit := defaultTransferLimit
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		n, err := strconv.Atoi(string(raw))
		if err != nil {
			h.logger.Debug("Rejected transfer limit", zap.ByteString("limit", raw))
			h.writeJSON(ctx, fasthttp.StatusBadRequest, errorResponse{
				Error: "limit must be an integer",
				Kind:  string(domain.KindValidation),
			})
			return
		}
		limit = min(n, maxTransferLimit)
	}

	transfers, err := h.tokens.GetRecentTransfers(ctx, limit)
	if err != nil {
		h.writeError(ctx, "transfers", err)
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, transfersResponse{Transfers: transfers, Count: len(transfers)})
}

// GetHolders handles holder count requests. holderCount is null when the contract lacks the method.
func (h *TokenHandler) GetHolders(ctx *fasthttp.RequestCtx) {
	count, ok, err := h.tokens.GetHolderCount(ctx)
	if err != nil {
		h.writeError(ctx, "holders", err)
		return
	}
	resp := holdersResponse{Supported: ok}
	if ok {
		resp.HolderCount = &count
	}
	h.writeJSON(ctx, fasthttp.StatusOK, resp)
}

// GetStatus returns the client snapshot. It never touches the network.
func (h *TokenHandler) GetStatus(ctx *fasthttp.RequestCtx) {
	h.writeJSON(ctx, fasthttp.StatusOK, h.tokens.GetStatus())
}

// Validate runs the configuration and connectivity checks.
func (h *TokenHandler) Validate(ctx *fasthttp.RequestCtx) {
	report := h.tokens.Validate(ctx)
	status := fasthttp.StatusOK
	if !report.IsValid {
		status = fasthttp.StatusServiceUnavailable
	}
	h.writeJSON(ctx, status, report)
}

// Reconnect discards the current binding and builds a new one.
func (h *TokenHandler) Reconnect(ctx *fasthttp.RequestCtx) {
	binding, err := h.tokens.Reconnect(ctx)
	if err != nil {
		h.writeError(ctx, "reconnect", err)
		return
	}
	h.logger.Info("Reconnected via API", zap.String("endpoint", binding.Endpoint))
	h.writeJSON(ctx, fasthttp.StatusOK, binding)
}

// GetRPCs returns the health of every configured endpoint.
func (h *TokenHandler) GetRPCs(ctx *fasthttp.RequestCtx) {
	rpcs, err := h.health.GetCheckedRPCs(ctx)
	if err != nil {
		h.logger.Error("Failed to check RPCs", zap.Error(err))
		h.writeJSON(ctx, fasthttp.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
		return
	}
	h.writeJSON(ctx, fasthttp.StatusOK, rpcs)
}

// StatusFor maps a client error to its HTTP status and suggested client action.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConfiguration):
		return fasthttp.StatusBadRequest, ""
	case errors.Is(err, domain.ErrConnection):
		return fasthttp.StatusServiceUnavailable, "reconnect"
	case errors.Is(err, domain.ErrContract):
		return fasthttp.StatusBadGateway, "reconnect"
	default:
		return fasthttp.StatusInternalServerError, ""
	}
}

func (h *TokenHandler) writeError(ctx *fasthttp.RequestCtx, op string, err error) {
	status, action := StatusFor(err)
	if status >= fasthttp.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Info("Request rejected", zap.String("op", op), zap.Int("status", status), zap.Error(err))
	}

	resp := errorResponse{Error: err.Error(), Kind: string(domain.KindOf(err)), Action: action}
	if status == fasthttp.StatusInternalServerError {
		resp.Error = "Internal Server Error"
	}
	h.writeJSON(ctx, status, resp)
}

func (h *TokenHandler) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
