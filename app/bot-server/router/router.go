package router

import (
	"promoHunter/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupCurationRoutes(api *echo.Group, handler *rest.CurationHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	api.GET("/health", handler.Health)
	api.GET("/posts", handler.RecentPosts, authRequired)
	api.GET("/offers/:item_id", handler.OfferDetail, authRequired)

	runs := api.Group("/runs", authRequired, adminOnly)
	runs.POST("", handler.TriggerRun)

	conversions := api.Group("/conversions", authRequired, adminOnly)
	conversions.POST("/sync", handler.SyncConversions)
}

func SetupMetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
