package statistics

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
	"github.com/OlmanCE/agro-track-sub000/pkg/fanout"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

// Repository is the persistence surface the calculator needs.
type Repository interface {
	ListNurseries(ctx context.Context) ([]models.Nursery, error)
	GetBed(ctx context.Context, nurseryID, bedID string) (models.GrowBed, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
	ListEvents(ctx context.Context, nurseryID, bedID string, q store.Query) ([]models.CuttingEvent, error)
	SaveStatistics(ctx context.Context, nurseryID, bedID string, stats models.Statistics) error
}

// Service folds bed events into cached statistics snapshots.
type Service struct {
	repo        Repository
	metrics     *metrics.Metrics
	logger      *zap.Logger
	maxAge      time.Duration
	concurrency int
	now         func() time.Time
}

// NewService wires a statistics calculator. maxAge bounds how old a cached
// snapshot may be before Ensure recomputes it; zero accepts any snapshot.
func NewService(repo Repository, m *metrics.Metrics, maxAge time.Duration, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		repo:        repo,
		metrics:     m,
		logger:      logger,
		maxAge:      maxAge,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ComputeBedStatistics recomputes a bed's snapshot from all of its events and
// stores it, replacing the previous one.
func (s *Service) ComputeBedStatistics(ctx context.Context, nurseryID, bedID string) (models.Statistics, error) {
	if strings.TrimSpace(nurseryID) == "" || strings.TrimSpace(bedID) == "" {
		return models.Statistics{}, models.NewInvalidInput("nursery id and bed id are required")
	}
	if _, err := s.repo.GetBed(ctx, nurseryID, bedID); err != nil {
		return models.Statistics{}, err
	}
	return s.recompute(ctx, nurseryID, bedID)
}

// Ensure returns the bed's cached snapshot when fresh, otherwise recomputes it.
func (s *Service) Ensure(ctx context.Context, bed models.GrowBed) (models.Statistics, error) {
	if bed.StatisticsFresh(s.now(), s.maxAge) {
		return *bed.Statistics, nil
	}
	return s.recompute(ctx, bed.NurseryID, bed.ID)
}

// Snapshot pairs a bed with its current statistics.
type Snapshot struct {
	Bed   models.GrowBed
	Stats models.Statistics
}

// EnsureAll runs Ensure for every bed concurrently. Beds whose statistics
// cannot be read are left out and reported; the rest keep the order of beds.
func (s *Service) EnsureAll(ctx context.Context, beds []models.GrowBed) ([]Snapshot, []models.SkippedUnit) {
	results := make([]models.Statistics, len(beds))
	errs := fanout.Run(ctx, len(beds), s.concurrency, func(ctx context.Context, i int) error {
		stats, err := s.Ensure(ctx, beds[i])
		results[i] = stats
		return err
	})

	snapshots := make([]Snapshot, 0, len(beds))
	var skipped []models.SkippedUnit
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("skipping bed without statistics",
				zap.String("nursery_id", beds[i].NurseryID),
				zap.String("bed_id", beds[i].ID),
				zap.Error(err))
			skipped = append(skipped, models.SkippedUnit{NurseryID: beds[i].NurseryID, BedID: beds[i].ID, Reason: err.Error()})
			continue
		}
		snapshots = append(snapshots, Snapshot{Bed: beds[i], Stats: results[i]})
	}
	return snapshots, skipped
}

// RefreshAll recomputes the snapshot of every bed in every nursery. Failing
// nurseries or beds are skipped and reported.
func (s *Service) RefreshAll(ctx context.Context) (models.RefreshReport, error) {
	start := time.Now()
	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return models.RefreshReport{}, err
	}

	var report models.RefreshReport
	for _, n := range nurseries {
		beds, err := s.repo.ListBeds(ctx, n.ID)
		if err != nil {
			s.logger.Warn("skipping nursery in statistics refresh", zap.String("nursery_id", n.ID), zap.Error(err))
			report.Skipped = append(report.Skipped, models.SkippedUnit{NurseryID: n.ID, Reason: err.Error()})
			continue
		}

		errs := fanout.Run(ctx, len(beds), s.concurrency, func(ctx context.Context, i int) error {
			_, err := s.recompute(ctx, n.ID, beds[i].ID)
			return err
		})
		for i, err := range errs {
			if err != nil {
				s.logger.Warn("skipping bed in statistics refresh", zap.String("nursery_id", n.ID), zap.String("bed_id", beds[i].ID), zap.Error(err))
				report.Skipped = append(report.Skipped, models.SkippedUnit{NurseryID: n.ID, BedID: beds[i].ID, Reason: err.Error()})
				continue
			}
			report.Refreshed++
		}
	}

	s.metrics.ObserveAggregate("statistics_refresh", start, len(report.Skipped))
	s.logger.Info("statistics refresh finished", zap.Int("refreshed", report.Refreshed), zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

func (s *Service) recompute(ctx context.Context, nurseryID, bedID string) (models.Statistics, error) {
	events, err := s.repo.ListEvents(ctx, nurseryID, bedID, store.Query{OrderBy: "date", Descending: true})
	if err != nil {
		return models.Statistics{}, err
	}

	stats := Fold(events, s.now().UTC())
	if err := s.repo.SaveStatistics(ctx, nurseryID, bedID, stats); err != nil {
		return models.Statistics{}, err
	}

	s.metrics.RecordStatistics()
	s.logger.Debug("bed statistics recomputed",
		zap.String("nursery_id", nurseryID),
		zap.String("bed_id", bedID),
		zap.Int("events", stats.EventCount),
		zap.Int("total", stats.TotalCuttings))
	return stats, nil
}

// Fold derives a snapshot from events in one pass. The result depends only on
// the event set and computedAt.
func Fold(events []models.CuttingEvent, computedAt time.Time) models.Statistics {
	ordered := make([]models.CuttingEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.After(ordered[j].Date)
		}
		return ordered[i].ID > ordered[j].ID
	})

	stats := models.Statistics{
		Monthly:      map[string]models.MonthBucket{},
		RecentEvents: make([]models.CuttingEvent, 0, min(len(ordered), models.RecentEventsLimit)),
		ComputedAt:   computedAt,
	}

	var first, last time.Time
	for i, ev := range ordered {
		stats.TotalCuttings += ev.Quantity
		stats.EventCount++

		if first.IsZero() || ev.Date.Before(first) {
			first = ev.Date
		}
		if last.IsZero() || ev.Date.After(last) {
			last = ev.Date
		}

		key := period.MonthKey(ev.Date)
		bucket := stats.Monthly[key]
		bucket.Count++
		bucket.Total += ev.Quantity
		stats.Monthly[key] = bucket

		if i < models.RecentEventsLimit {
			ev.NurseryID, ev.BedID = "", ""
			stats.RecentEvents = append(stats.RecentEvents, ev)
		}
	}

	if stats.EventCount == 0 {
		return stats
	}

	stats.FirstEventDate = &first
	stats.LastEventDate = &last
	stats.AveragePerEvent = period.Round2(float64(stats.TotalCuttings) / float64(stats.EventCount))
	days := max(1, period.DaysBetween(first, last))
	stats.DailyProductivity = period.Round2(float64(stats.TotalCuttings) / float64(days))
	return stats
}
