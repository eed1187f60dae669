package http

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	handler "token-data-service/internal/adapter/handler/http"
)

// RegisterRoutes sets up the token routes, the legacy redirect and the health check.
func RegisterRoutes(r *router.Router, h *handler.TokenHandler, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	api := r.Group("/api/token")
	api.GET("/gtt-data", h.GetTokenData)
	api.GET("/balance/{address}", h.GetBalance)
	api.GET("/transfers", h.GetTransfers)
	api.GET("/holders", h.GetHolders)
	api.GET("/status", h.GetStatus)
	api.GET("/validate", h.Validate)
	api.POST("/reconnect", h.Reconnect)
	api.GET("/rpcs", h.GetRPCs)

	r.GET("/api/gtt/live-data", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/api/token/gtt-data", fasthttp.StatusFound)
	})

	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})

	logger.Info("All routes registered.")
}

// LoggingMiddleware logs every request at Info.
func LoggingMiddleware(logger *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		logger.Info("Request received",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()))
		next(ctx)
	}
}
