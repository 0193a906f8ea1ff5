package comparative

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/internal/service/statistics"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

const (
	DefaultTopN = 10
	bottomN     = 5
)

// Sort criteria for the allBedsSorted view.
const (
	SortByTotal        = "total"
	SortByAverage      = "average"
	SortByFrequency    = "frequency"
	SortByProductivity = "productivity"
)

type Repository interface {
	GetNursery(ctx context.Context, nurseryID string) (models.Nursery, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
}

type StatisticsSource interface {
	EnsureAll(ctx context.Context, beds []models.GrowBed) ([]statistics.Snapshot, []models.SkippedUnit)
}

// Options tune a comparative query. Zero values select the defaults.
type Options struct {
	TopN   int
	SortBy string
}

type Service struct {
	repo    Repository
	stats   StatisticsSource
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(repo Repository, stats StatisticsSource, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, stats: stats, metrics: m, logger: logger}
}

// ComputeNurseryComparative ranks every bed of a nursery. Statistics are
// reused when fresh and recomputed otherwise; beds whose statistics cannot be
// obtained are reported in Skipped.
func (s *Service) ComputeNurseryComparative(ctx context.Context, nurseryID string, opts Options) (models.NurseryComparative, error) {
	if strings.TrimSpace(nurseryID) == "" {
		return models.NurseryComparative{}, models.NewInvalidInput("nursery id is required")
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByTotal
	}
	less, ok := criteria[opts.SortBy]
	if !ok {
		return models.NurseryComparative{}, models.NewInvalidInput("unknown sort criterion %q", opts.SortBy)
	}

	start := time.Now()
	nursery, err := s.repo.GetNursery(ctx, nurseryID)
	if err != nil {
		return models.NurseryComparative{}, err
	}
	beds, err := s.repo.ListBeds(ctx, nurseryID)
	if err != nil {
		return models.NurseryComparative{}, err
	}

	snapshots, skipped := s.stats.EnsureAll(ctx, beds)
	summaries := make([]models.BedSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		row := models.SummarizeBed(snap.Bed, snap.Stats)
		row.NurseryName = nursery.Name
		summaries = append(summaries, row)
	}

	result := models.NurseryComparative{
		NurseryID: nurseryID,
		Totals:    totals(summaries),
		Rankings: models.Rankings{
			TopByTotal:     rank(summaries, criteria[SortByTotal], opts.TopN),
			TopByAverage:   rank(summaries, criteria[SortByAverage], opts.TopN),
			TopByFrequency: rank(summaries, criteria[SortByFrequency], opts.TopN),
			BottomByTotal:  rank(summaries, func(a, b models.BedSummary) bool { return a.TotalCuttings < b.TotalCuttings }, bottomN),
		},
		PlantTypeBreakdown: breakdown(summaries),
		AllBedsSorted:      rank(summaries, less, len(summaries)),
		PartialFailure:     models.PartialFailure{Skipped: skipped},
	}

	s.metrics.ObserveAggregate("comparative", start, len(skipped))
	s.logger.Debug("nursery comparative computed",
		zap.String("nursery_id", nurseryID),
		zap.Int("beds", len(summaries)),
		zap.Int("skipped", len(skipped)))
	return result, nil
}

var criteria = map[string]func(a, b models.BedSummary) bool{
	SortByTotal:        func(a, b models.BedSummary) bool { return a.TotalCuttings > b.TotalCuttings },
	SortByAverage:      func(a, b models.BedSummary) bool { return a.AveragePerEvent > b.AveragePerEvent },
	SortByFrequency:    func(a, b models.BedSummary) bool { return a.EventCount > b.EventCount },
	SortByProductivity: func(a, b models.BedSummary) bool { return a.DailyProductivity > b.DailyProductivity },
}

// rank returns at most n rows stably sorted by less. Ties keep input order.
func rank(rows []models.BedSummary, less func(a, b models.BedSummary) bool, n int) []models.BedSummary {
	sorted := make([]models.BedSummary, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func totals(rows []models.BedSummary) models.NurseryTotals {
	t := models.NurseryTotals{BedCount: len(rows)}
	for _, r := range rows {
		t.TotalCuttings += r.TotalCuttings
		t.TotalEvents += r.EventCount
	}
	if t.BedCount > 0 {
		t.AverageCuttingsPerBed = period.Round2(float64(t.TotalCuttings) / float64(t.BedCount))
		t.AverageEventsPerBed = period.Round2(float64(t.TotalEvents) / float64(t.BedCount))
	}
	if t.TotalEvents > 0 {
		t.AveragePerEvent = period.Round2(float64(t.TotalCuttings) / float64(t.TotalEvents))
	}
	return t
}

func breakdown(rows []models.BedSummary) []models.PlantTypeGroup {
	index := map[string]int{}
	groups := make([]models.PlantTypeGroup, 0)
	for _, r := range rows {
		i, ok := index[r.PlantType]
		if !ok {
			i = len(groups)
			index[r.PlantType] = i
			groups = append(groups, models.PlantTypeGroup{PlantType: r.PlantType})
		}
		groups[i].BedCount++
		groups[i].TotalCuttings += r.TotalCuttings
		groups[i].EventCount += r.EventCount
	}
	for i := range groups {
		groups[i].AveragePerBed = period.Round2(float64(groups[i].TotalCuttings) / float64(groups[i].BedCount))
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].TotalCuttings > groups[j].TotalCuttings })
	return groups
}
