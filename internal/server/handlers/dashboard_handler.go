package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

type DashboardService interface {
	GetEsquejesByNursery(ctx context.Context, periodName string) (models.NurseryCuttingsChart, error)
	GetTopProductiveBeds(ctx context.Context, limit int, periodName, criterion string) (models.TopBeds, error)
	GetGlobalSummary(ctx context.Context, periodName string) (models.GlobalSummary, error)
}

// DashboardHandler serves the cross-nursery aggregates. Responses are cached
// for ttl; a zero ttl disables caching.
type DashboardHandler struct {
	svc    DashboardService
	cache  *gocache.Cache
	logger *zap.Logger
}

func NewDashboardHandler(svc DashboardService, ttl time.Duration, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &DashboardHandler{svc: svc, logger: logger}
	if ttl > 0 {
		h.cache = gocache.New(ttl, 2*ttl)
	}
	return h
}

// EsquejesByNursery serves the per-nursery cutting chart.
func (h *DashboardHandler) EsquejesByNursery(c *gin.Context) {
	periodName := c.Query("period")
	h.serve(c, "esquejes:"+periodName, func(ctx context.Context) (any, error) {
		return h.svc.GetEsquejesByNursery(ctx, periodName)
	})
}

// TopBeds serves the global bed ranking.
func (h *DashboardHandler) TopBeds(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	periodName, criterion := c.Query("period"), c.Query("criterion")
	key := fmt.Sprintf("top:%d:%s:%s", limit, periodName, criterion)
	h.serve(c, key, func(ctx context.Context) (any, error) {
		return h.svc.GetTopProductiveBeds(ctx, limit, periodName, criterion)
	})
}

// Summary serves the global totals.
func (h *DashboardHandler) Summary(c *gin.Context) {
	periodName := c.Query("period")
	h.serve(c, "summary:"+periodName, func(ctx context.Context) (any, error) {
		return h.svc.GetGlobalSummary(ctx, periodName)
	})
}

func (h *DashboardHandler) serve(c *gin.Context, key string, load func(context.Context) (any, error)) {
	if h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := load(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if h.cache != nil {
		h.cache.SetDefault(key, result)
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, result)
}
