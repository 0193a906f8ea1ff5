package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/server/handlers"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Catalog   *handlers.CatalogHandler
	Events    *handlers.EventsHandler
	Analytics *handlers.AnalyticsHandler
	Dashboard *handlers.DashboardHandler
}

// New wires the Gin engine with required routes and middlewares. Metrics
// from gatherer are served on /metrics.
func New(h Handlers, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")

	nurseries := api.Group("/nurseries")
	nurseries.GET("", h.Catalog.ListNurseries)
	nurseries.PUT("/:nurseryId", h.Catalog.PutNursery)
	nurseries.GET("/:nurseryId/beds", h.Catalog.ListBeds)
	nurseries.GET("/:nurseryId/events", h.Events.ListForNursery)
	nurseries.GET("/:nurseryId/comparative", h.Analytics.Comparative)
	nurseries.GET("/:nurseryId/trend", h.Analytics.NurseryTrend)

	bed := nurseries.Group("/:nurseryId/beds/:bedId")
	bed.PUT("", h.Catalog.PutBed)
	bed.GET("/events", h.Events.ListForBed)
	bed.POST("/events", h.Events.Create)
	bed.POST("/events/batch", h.Events.CreateBatch)
	bed.PATCH("/events/:eventId", h.Events.Update)
	bed.DELETE("/events/:eventId", h.Events.Delete)
	bed.POST("/statistics", h.Analytics.ComputeStatistics)
	bed.GET("/trend", h.Analytics.BedTrend)
	bed.GET("/recommendations", h.Analytics.Recommendations)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/esquejes", h.Dashboard.EsquejesByNursery)
	dashboard.GET("/top-beds", h.Dashboard.TopBeds)
	dashboard.GET("/summary", h.Dashboard.Summary)

	api.POST("/admin/statistics/refresh", h.Analytics.RefreshAll)

	logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
