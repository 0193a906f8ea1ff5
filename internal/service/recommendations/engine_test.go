package recommendations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/service/trends"
)

var fixedNow = time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

func newEngine() *Engine {
	return NewEngine(Thresholds{})
}

func ptr(t time.Time) *time.Time { return &t }

// healthy is a bed that triggers no rule: 4 cuts over the last 30 days,
// 40 cuttings for 20 plants, stable trend.
func healthy() (models.GrowBed, models.Statistics, models.TrendSummary) {
	bed := models.GrowBed{ID: "c1", NurseryID: "vivero-norte", PlantedQuantity: 20, State: models.BedStateActive}
	stats := models.Statistics{
		TotalCuttings:  40,
		EventCount:     4,
		FirstEventDate: ptr(fixedNow.AddDate(0, 0, -20)),
		LastEventDate:  ptr(fixedNow.AddDate(0, 0, -2)),
	}
	return bed, stats, models.TrendSummary{Trend: models.TrendStable}
}

func categories(recs []models.Recommendation) []models.RecommendationCategory {
	out := make([]models.RecommendationCategory, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Category)
	}
	return out
}

func TestGenerateHealthyBedGetsSinglePraise(t *testing.T) {
	t.Parallel()
	bed, stats, trend := healthy()

	recs := newEngine().Generate(bed, stats, trend, fixedNow)
	require.Len(t, recs, 1)
	assert.Equal(t, models.CategoryPraise, recs[0].Category)
	assert.Equal(t, models.PriorityInfo, recs[0].Priority)
}

func TestGenerateZeroEvents(t *testing.T) {
	t.Parallel()
	bed, _, _ := healthy()

	recs := newEngine().Generate(bed, models.Statistics{}, models.TrendSummary{Trend: models.TrendNoData}, fixedNow)
	assert.Equal(t, []models.RecommendationCategory{models.CategoryAction, models.CategoryImprovement}, categories(recs))
	assert.Equal(t, models.PriorityHigh, recs[0].Priority)
}

func TestGenerateZeroEventsWithoutPlants(t *testing.T) {
	t.Parallel()

	recs := newEngine().Generate(models.GrowBed{State: models.BedStateActive}, models.Statistics{}, models.TrendSummary{}, fixedNow)
	assert.Equal(t, []models.RecommendationCategory{models.CategoryAction}, categories(recs))
}

func TestGenerateRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*models.GrowBed, *models.Statistics, *models.TrendSummary)
		want   []models.RecommendationCategory
	}{
		{
			name:   "low efficiency",
			mutate: func(b *models.GrowBed, _ *models.Statistics, _ *models.TrendSummary) { b.PlantedQuantity = 100 },
			want:   []models.RecommendationCategory{models.CategoryImprovement},
		},
		{
			name: "low frequency",
			mutate: func(_ *models.GrowBed, s *models.Statistics, _ *models.TrendSummary) {
				s.FirstEventDate = ptr(fixedNow.AddDate(0, 0, -120))
			},
			want: []models.RecommendationCategory{models.CategoryFrequency},
		},
		{
			name:   "shrinking trend",
			mutate: func(_ *models.GrowBed, _ *models.Statistics, tr *models.TrendSummary) { tr.Trend = models.TrendShrinking },
			want:   []models.RecommendationCategory{models.CategoryAlert},
		},
		{
			name:   "inactive bed",
			mutate: func(b *models.GrowBed, _ *models.Statistics, _ *models.TrendSummary) { b.State = models.BedStateMaintenance },
			want:   []models.RecommendationCategory{models.CategoryState},
		},
		{
			name: "rules do not short-circuit and are ordered by priority",
			mutate: func(b *models.GrowBed, _ *models.Statistics, tr *models.TrendSummary) {
				b.State = models.BedStateInactive
				b.PlantedQuantity = 1000
				tr.Trend = models.TrendShrinking
			},
			want: []models.RecommendationCategory{models.CategoryAlert, models.CategoryImprovement, models.CategoryState},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bed, stats, trend := healthy()
			tt.mutate(&bed, &stats, &trend)

			recs := newEngine().Generate(bed, stats, trend, fixedNow)
			assert.Equal(t, tt.want, categories(recs))
		})
	}
}

func TestCustomThresholds(t *testing.T) {
	t.Parallel()
	bed, stats, trend := healthy()

	e := NewEngine(Thresholds{MinEfficiency: 5, MinMonthlyFrequency: 10})

	assert.Equal(t, []models.RecommendationCategory{models.CategoryImprovement, models.CategoryFrequency}, categories(e.Generate(bed, stats, trend, fixedNow)))
}

func TestGenerateDependsOnlyOnInputs(t *testing.T) {
	t.Parallel()
	bed, stats, trend := healthy()
	e := newEngine()

	assert.Equal(t, e.Generate(bed, stats, trend, fixedNow), e.Generate(bed, stats, trend, fixedNow))

	later := fixedNow.AddDate(0, 6, 0)
	assert.Equal(t, []models.RecommendationCategory{models.CategoryFrequency}, categories(e.Generate(bed, stats, trend, later)),
		"frequency is measured up to the given reference time")
}

func TestCutFrequency(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 3.0, CutFrequency(3, fixedNow.AddDate(0, 0, -10), fixedNow), 1e-9, "short history counts as one month")
	assert.InDelta(t, 2.0, CutFrequency(6, fixedNow.AddDate(0, 0, -90), fixedNow), 1e-9)
}

type fakeBeds struct{ bed models.GrowBed }

func (f fakeBeds) GetBed(context.Context, string, string) (models.GrowBed, error) {
	if f.bed.ID == "" {
		return models.GrowBed{}, models.NewNotFound("bed not found")
	}
	return f.bed, nil
}

type fakeStats struct{ stats models.Statistics }

func (f fakeStats) Ensure(context.Context, models.GrowBed) (models.Statistics, error) {
	return f.stats, nil
}

type fakeTrends struct{ summary models.TrendSummary }

func (f fakeTrends) AnalyzeBedTrend(_ context.Context, nurseryID, bedID string, _ trends.Options) (models.TrendAnalysis, error) {
	return models.TrendAnalysis{NurseryID: nurseryID, BedID: bedID, Summary: f.summary}, nil
}

func TestServiceForBed(t *testing.T) {
	t.Parallel()
	bed, stats, _ := healthy()
	svc := NewService(fakeBeds{bed: bed}, fakeStats{stats: stats}, fakeTrends{summary: models.TrendSummary{Trend: models.TrendShrinking, ChangePercent: -30}}, newEngine(), nil)
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.ForBed(context.Background(), "vivero-norte", "c1")
	require.NoError(t, err)
	assert.Equal(t, 40, result.Statistics.TotalCuttings)
	assert.Equal(t, models.TrendShrinking, result.Trend.Trend)
	assert.Equal(t, []models.RecommendationCategory{models.CategoryAlert}, categories(result.Recommendations))
}

func TestServiceForBedMissing(t *testing.T) {
	t.Parallel()
	svc := NewService(fakeBeds{}, fakeStats{}, fakeTrends{}, newEngine(), nil)

	_, err := svc.ForBed(context.Background(), "vivero-norte", "nope")
	assert.True(t, models.IsKind(err, models.KindNotFound))
}
