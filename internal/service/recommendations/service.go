package recommendations

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/service/trends"
)

type BedReader interface {
	GetBed(ctx context.Context, nurseryID, bedID string) (models.GrowBed, error)
}

type StatisticsSource interface {
	Ensure(ctx context.Context, bed models.GrowBed) (models.Statistics, error)
}

type TrendSource interface {
	AnalyzeBedTrend(ctx context.Context, nurseryID, bedID string, opts trends.Options) (models.TrendAnalysis, error)
}

// Service loads a bed's statistics and trend and runs the engine on them.
type Service struct {
	beds   BedReader
	stats  StatisticsSource
	trends TrendSource
	engine *Engine
	logger *zap.Logger
	now    func() time.Time
}

func NewService(beds BedReader, stats StatisticsSource, trendSource TrendSource, engine *Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{beds: beds, stats: stats, trends: trendSource, engine: engine, logger: logger, now: time.Now}
}

// ForBed returns the recommendations of one bed along with their inputs.
// The trend uses monthly buckets over the default horizon.
func (s *Service) ForBed(ctx context.Context, nurseryID, bedID string) (models.BedRecommendations, error) {
	bed, err := s.beds.GetBed(ctx, nurseryID, bedID)
	if err != nil {
		return models.BedRecommendations{}, err
	}
	stats, err := s.stats.Ensure(ctx, bed)
	if err != nil {
		return models.BedRecommendations{}, err
	}
	trend, err := s.trends.AnalyzeBedTrend(ctx, nurseryID, bedID, trends.Options{})
	if err != nil {
		return models.BedRecommendations{}, err
	}

	recs := s.engine.Generate(bed, stats, trend.Summary, s.now().UTC())
	s.logger.Debug("recommendations generated",
		zap.String("nursery_id", nurseryID),
		zap.String("bed_id", bedID),
		zap.Int("count", len(recs)))
	return models.BedRecommendations{
		NurseryID:       nurseryID,
		BedID:           bedID,
		Statistics:      stats,
		Trend:           trend.Summary,
		Recommendations: recs,
	}, nil
}
