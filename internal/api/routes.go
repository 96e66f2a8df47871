package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Grafana webhooks
	hooks := r.Group("/webhooks/grafana")
	hooks.Use(RequestID(), handler.countAborted, TokenAuth(handler.config.Webhook.TokenHeader, handler.config.Webhook.SharedSecret))
	{
		hooks.POST("/ip-blacklist", handler.ReceiveIPBlacklistWebhook)
	}

	return r
}
