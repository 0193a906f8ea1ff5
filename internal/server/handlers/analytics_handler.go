package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/service/comparative"
	"github.com/OlmanCE/agro-track-sub000/internal/service/trends"
)

type StatisticsService interface {
	ComputeBedStatistics(ctx context.Context, nurseryID, bedID string) (models.Statistics, error)
	RefreshAll(ctx context.Context) (models.RefreshReport, error)
}

type ComparativeService interface {
	ComputeNurseryComparative(ctx context.Context, nurseryID string, opts comparative.Options) (models.NurseryComparative, error)
}

type TrendService interface {
	AnalyzeBedTrend(ctx context.Context, nurseryID, bedID string, opts trends.Options) (models.TrendAnalysis, error)
	AnalyzeNurseryTrend(ctx context.Context, nurseryID string, opts trends.Options) (models.TrendAnalysis, error)
}

type RecommendationService interface {
	ForBed(ctx context.Context, nurseryID, bedID string) (models.BedRecommendations, error)
}

// AnalyticsHandler serves per-bed and per-nursery analytics.
type AnalyticsHandler struct {
	stats           StatisticsService
	comparative     ComparativeService
	trends          TrendService
	recommendations RecommendationService
	logger          *zap.Logger
}

func NewAnalyticsHandler(stats StatisticsService, comp ComparativeService, tr TrendService, recs RecommendationService, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{stats: stats, comparative: comp, trends: tr, recommendations: recs, logger: logger}
}

// ComputeStatistics recomputes and returns a bed's statistics snapshot.
func (h *AnalyticsHandler) ComputeStatistics(c *gin.Context) {
	stats, err := h.stats.ComputeBedStatistics(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RefreshAll recomputes every snapshot.
func (h *AnalyticsHandler) RefreshAll(c *gin.Context) {
	report, err := h.stats.RefreshAll(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Comparative ranks the beds of a nursery.
func (h *AnalyticsHandler) Comparative(c *gin.Context) {
	topN, err := queryInt(c, "topN")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.comparative.ComputeNurseryComparative(c.Request.Context(), c.Param("nurseryId"), comparative.Options{
		TopN:   topN,
		SortBy: c.Query("sortBy"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BedTrend buckets a bed's history.
func (h *AnalyticsHandler) BedTrend(c *gin.Context) {
	opts, err := trendOptions(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.trends.AnalyzeBedTrend(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"), opts)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// NurseryTrend buckets the history of every bed of a nursery together.
func (h *AnalyticsHandler) NurseryTrend(c *gin.Context) {
	opts, err := trendOptions(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.trends.AnalyzeNurseryTrend(c.Request.Context(), c.Param("nurseryId"), opts)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Recommendations returns the rule engine output for one bed.
func (h *AnalyticsHandler) Recommendations(c *gin.Context) {
	result, err := h.recommendations.ForBed(c.Request.Context(), c.Param("nurseryId"), c.Param("bedId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func trendOptions(c *gin.Context) (trends.Options, error) {
	periods, err := queryInt(c, "periods")
	if err != nil {
		return trends.Options{}, err
	}
	return trends.Options{Granularity: models.Granularity(c.Query("granularity")), Periods: periods}, nil
}
