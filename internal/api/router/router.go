package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/obranet/valuation-notifier/internal/api/handlers/metrics"
	"github.com/obranet/valuation-notifier/internal/api/handlers/notification"
	"github.com/obranet/valuation-notifier/internal/api/handlers/webhook"
	"github.com/obranet/valuation-notifier/internal/middlewares"
)

func New(
	notifHandler *notification.Handler,
	webhookHandler *webhook.Handler,
	metricsHandler *metrics.Handler,
) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api")
	{
		notifications := api.Group("/notifications")
		{
			notifications.POST("/events", notifHandler.CreateEvent)
			notifications.GET("/:id", notifHandler.GetStatus)
			notifications.POST("/:id/cancel", notifHandler.Cancel)
			notifications.POST("/requeue", notifHandler.Requeue)
		}

		api.GET("/webhook", webhookHandler.Verify)
		api.POST("/webhook", webhookHandler.Receive)

		api.POST("/metrics/recompute", metricsHandler.Recompute)
	}

	return e
}
