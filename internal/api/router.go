package api

import (
	"net/http"

	"coin-heist/internal/logger"
	"coin-heist/internal/metrics"
	"coin-heist/internal/middleware"
	"coin-heist/internal/service"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Auth       service.AuthService
	AdminRoles []string
	Metrics    *metrics.Metrics
}

func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(h.Logger), cfg.Metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	RegisterHandlers(r, h, cfg)
	return r
}

func RegisterHandlers(r gin.IRouter, h *Handlers, cfg RouterConfig) {
	api := r.Group("/api", middleware.JWTAuthMiddleware(cfg.Auth, h.Logger))
	api.GET("/balance", h.GetBalance)
	api.GET("/info", h.GetInfo)
	api.POST("/give", h.PostGive)
	api.POST("/buy", h.PostBuy)
	api.POST("/steal", h.PostSteal)

	admin := api.Group("/admin", middleware.RequireRole(cfg.AdminRoles, h.Logger))
	admin.POST("/gencoins", h.PostGenCoins)
	admin.POST("/takecoins", h.PostTakeCoins)
	admin.POST("/setcoins", h.PostSetCoins)
	admin.GET("/history", h.GetHistory)
}
