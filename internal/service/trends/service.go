package trends

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

const (
	DefaultPeriods          = 12
	DefaultThresholdPercent = 5.0
)

type EventSource interface {
	ListEventsForBed(ctx context.Context, nurseryID, bedID string, opts models.EventListOptions) ([]models.CuttingEvent, error)
	ListEventsForNursery(ctx context.Context, nurseryID string, opts models.NurseryEventListOptions) (models.NurseryEvents, error)
}

// Options select the bucketing of a trend query. Zero values select monthly
// buckets over the last DefaultPeriods periods.
type Options struct {
	Granularity models.Granularity
	Periods     int
}

type Service struct {
	events    EventSource
	threshold float64
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService builds a trend analyzer. thresholdPct is the percentage change
// between the two halves above which a trend counts as growing or shrinking.
func NewService(events EventSource, thresholdPct float64, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholdPct <= 0 {
		thresholdPct = DefaultThresholdPercent
	}
	return &Service{events: events, threshold: thresholdPct, metrics: m, logger: logger}
}

// AnalyzeBedTrend buckets a bed's full event history and classifies the
// direction of the most recent periods.
func (s *Service) AnalyzeBedTrend(ctx context.Context, nurseryID, bedID string, opts Options) (models.TrendAnalysis, error) {
	opts, err := normalize(opts)
	if err != nil {
		return models.TrendAnalysis{}, err
	}
	if strings.TrimSpace(bedID) == "" {
		return models.TrendAnalysis{}, models.NewInvalidInput("bed id is required")
	}

	events, err := s.events.ListEventsForBed(ctx, nurseryID, bedID, models.EventListOptions{OrderBy: "date", Direction: models.SortAsc})
	if err != nil {
		return models.TrendAnalysis{}, err
	}

	buckets := Bucketize(events, opts.Granularity, opts.Periods)
	return models.TrendAnalysis{
		NurseryID:   nurseryID,
		BedID:       bedID,
		Granularity: opts.Granularity,
		Buckets:     buckets,
		Summary:     Summarize(buckets, s.threshold),
	}, nil
}

// AnalyzeNurseryTrend buckets the events of every bed in a nursery together.
// Beds whose events cannot be read are skipped.
func (s *Service) AnalyzeNurseryTrend(ctx context.Context, nurseryID string, opts Options) (models.TrendAnalysis, error) {
	opts, err := normalize(opts)
	if err != nil {
		return models.TrendAnalysis{}, err
	}

	start := time.Now()
	listed, err := s.events.ListEventsForNursery(ctx, nurseryID, models.NurseryEventListOptions{})
	if err != nil {
		return models.TrendAnalysis{}, err
	}

	buckets := Bucketize(listed.Events, opts.Granularity, opts.Periods)
	s.metrics.ObserveAggregate("nursery_trend", start, len(listed.Skipped))
	return models.TrendAnalysis{
		NurseryID:      nurseryID,
		Granularity:    opts.Granularity,
		Buckets:        buckets,
		Summary:        Summarize(buckets, s.threshold),
		PartialFailure: listed.PartialFailure,
	}, nil
}

func normalize(opts Options) (Options, error) {
	if opts.Granularity == "" {
		opts.Granularity = models.GranularityMonthly
	}
	if _, err := period.Key(string(opts.Granularity), time.Time{}); errors.Is(err, period.ErrUnknownGranularity) {
		return opts, models.NewInvalidInput("unknown granularity %q", opts.Granularity)
	}
	switch {
	case opts.Periods < 0:
		return opts, models.NewInvalidInput("periods must not be negative")
	case opts.Periods == 0:
		opts.Periods = DefaultPeriods
	}
	return opts, nil
}

// Bucketize groups events by period key and returns the most recent periods
// buckets in chronological order. Periods without events produce no bucket.
func Bucketize(events []models.CuttingEvent, granularity models.Granularity, periods int) []models.PeriodBucket {
	byKey := map[string]*models.PeriodBucket{}
	for _, ev := range events {
		key, err := period.Key(string(granularity), ev.Date)
		if err != nil {
			continue
		}
		b, ok := byKey[key]
		if !ok {
			b = &models.PeriodBucket{Period: key}
			byKey[key] = b
		}
		b.TotalCuttings += ev.Quantity
		b.EventCount++
	}

	buckets := make([]models.PeriodBucket, 0, len(byKey))
	for _, b := range byKey {
		b.AveragePerCut = period.Round2(float64(b.TotalCuttings) / float64(b.EventCount))
		buckets = append(buckets, *b)
	}
	// every key layout sorts chronologically as a string
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Period < buckets[j].Period })

	if periods > 0 && len(buckets) > periods {
		buckets = buckets[len(buckets)-periods:]
	}
	return buckets
}

// Summarize describes buckets and classifies their direction.
func Summarize(buckets []models.PeriodBucket, thresholdPct float64) models.TrendSummary {
	summary := models.TrendSummary{PeriodCount: len(buckets)}
	totals := make([]int, 0, len(buckets))
	for i, b := range buckets {
		totals = append(totals, b.TotalCuttings)
		summary.TotalCuttings += b.TotalCuttings
		if i == 0 || b.TotalCuttings > summary.MaxPeriodTotal {
			summary.MaxPeriodTotal = b.TotalCuttings
		}
		if i == 0 || b.TotalCuttings < summary.MinPeriodTotal {
			summary.MinPeriodTotal = b.TotalCuttings
		}
	}
	if len(buckets) > 0 {
		summary.AveragePerPeriod = period.Round2(float64(summary.TotalCuttings) / float64(len(buckets)))
	}
	summary.Trend, summary.ChangePercent = Classify(totals, thresholdPct)
	return summary
}

// Classify compares the mean of the later half of totals with the earlier
// half. With an odd count the middle value belongs to the later half. This is
// a coarse heuristic, not a regression.
func Classify(totals []int, thresholdPct float64) (models.TrendClass, float64) {
	n := len(totals)
	if n < 2 {
		return models.TrendNoData, 0
	}

	earlier := mean(totals[:n/2])
	later := mean(totals[n/2:])

	var change float64
	switch {
	case earlier == 0 && later > 0:
		change = 100
	case earlier == 0:
		change = 0
	default:
		change = (later - earlier) / earlier * 100
	}

	// the threshold applies to the exact change, only the reported value is rounded
	switch {
	case change > thresholdPct:
		return models.TrendGrowing, period.Round2(change)
	case change < -thresholdPct:
		return models.TrendShrinking, period.Round2(change)
	default:
		return models.TrendStable, period.Round2(change)
	}
}

func mean(values []int) float64 {
	var sum int
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
