package http

import (
	"mining_hub/internal/config"
	"mining_hub/internal/http/handlers"
	"mining_hub/internal/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the public API, the admin surface and the
// websocket endpoint onto the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.Use(middleware.Metrics())

	// Health and metrics are unauthenticated and not rate limited.
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Websocket authenticates via query token inside the handler.
	r.GET("/ws", h.WS)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	api.POST("/auth/login", h.Login)

	auth := api.Group("")
	auth.Use(middleware.WithAuth())

	auth.GET("/me", h.Me)
	auth.GET("/referral", h.Referral)
	auth.POST("/referral/bind", h.BindUpline)

	auth.GET("/card-types", h.ListCardTypes)
	auth.GET("/card-types/:id/serials", h.CardTypeSerials)
	auth.GET("/card-types/:id/history/:serial", h.CardHistory)

	auth.GET("/cards", h.MyCards)
	auth.POST("/cards", h.BuyCard)
	auth.POST("/cards/:id/start", h.StartCard)
	auth.POST("/cards/:id/stop", h.StopCard)
	auth.POST("/cards/:id/sell", h.SellCard)

	auth.POST("/funds/deposit", h.RequestDeposit)
	auth.POST("/funds/withdraw", h.RequestWithdrawal)

	admin := auth.Group("/admin")
	admin.Use(h.RequireAdmin())

	admin.GET("/requests", h.PendingRequests)
	admin.POST("/requests/deposit/:id", h.DecideDeposit)
	admin.POST("/requests/withdrawal/:id", h.DecideWithdrawal)
	admin.POST("/card-types", h.CreateCardType)
	admin.POST("/card-types/:id/active", h.SetCardTypeActive)
	admin.POST("/users/:id/banned", h.SetBanned)
}
