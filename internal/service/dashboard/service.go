package dashboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
	"github.com/OlmanCE/agro-track-sub000/internal/service/statistics"
	"github.com/OlmanCE/agro-track-sub000/pkg/fanout"
	"github.com/OlmanCE/agro-track-sub000/pkg/period"
)

// Ranking criteria accepted by GetTopProductiveBeds.
const (
	CriterionTotal        = "total_esquejes"
	CriterionProductivity = "productividad_diaria"
	CriterionAverage      = "promedio_corte"
)

const DefaultTopLimit = 10

// Palette holds the chart colors nurseries are hashed onto.
var Palette = []string{
	"#2E7D32", "#43A047", "#66BB6A", "#00897B", "#26A69A",
	"#F9A825", "#FB8C00", "#8D6E63", "#5C6BC0", "#AB47BC",
}

var criteria = map[string]func(a, b models.BedSummary) bool{
	CriterionTotal:        func(a, b models.BedSummary) bool { return a.TotalCuttings > b.TotalCuttings },
	CriterionProductivity: func(a, b models.BedSummary) bool { return a.DailyProductivity > b.DailyProductivity },
	CriterionAverage:      func(a, b models.BedSummary) bool { return a.AveragePerEvent > b.AveragePerEvent },
}

type Repository interface {
	ListNurseries(ctx context.Context) ([]models.Nursery, error)
	ListBeds(ctx context.Context, nurseryID string) ([]models.GrowBed, error)
	ListEvents(ctx context.Context, nurseryID, bedID string, q store.Query) ([]models.CuttingEvent, error)
}

type StatisticsSource interface {
	EnsureAll(ctx context.Context, beds []models.GrowBed) ([]statistics.Snapshot, []models.SkippedUnit)
}

// Service aggregates across every nursery for dashboard views.
type Service struct {
	repo        Repository
	stats       StatisticsSource
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

func NewService(repo Repository, stats StatisticsSource, m *metrics.Metrics, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		repo:        repo,
		stats:       stats,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// ColorFor maps a nursery id onto Palette. The same id always yields the same color.
func ColorFor(nurseryID string) string {
	return Palette[xxhash.Sum64String(nurseryID)%uint64(len(Palette))]
}

// GetEsquejesByNursery sums the cuttings of every nursery within the window,
// largest total first.
func (s *Service) GetEsquejesByNursery(ctx context.Context, periodName string) (models.NurseryCuttingsChart, error) {
	window, err := s.resolve(periodName)
	if err != nil {
		return models.NurseryCuttingsChart{}, err
	}

	start := time.Now()
	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return models.NurseryCuttingsChart{}, err
	}

	rows, skipped := eachNursery(ctx, s, nurseries, func(ctx context.Context, n models.Nursery) (models.NurseryCuttingsRow, []models.SkippedUnit, error) {
		beds, err := s.repo.ListBeds(ctx, n.ID)
		if err != nil {
			return models.NurseryCuttingsRow{}, nil, err
		}
		row := models.NurseryCuttingsRow{NurseryID: n.ID, Name: n.Name, Color: ColorFor(n.ID)}
		total, count, skipped := s.windowTotals(ctx, beds, window)
		row.TotalCuttings, row.EventCount = total, count
		return row, skipped, nil
	})

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalCuttings > rows[j].TotalCuttings })

	s.metrics.ObserveAggregate("esquejes_by_nursery", start, len(skipped))
	return models.NurseryCuttingsChart{
		Period:         window.Name,
		From:           window.From,
		To:             window.To,
		Rows:           rows,
		PartialFailure: models.PartialFailure{Skipped: skipped},
	}, nil
}

// GetTopProductiveBeds ranks every bed whose latest event falls inside the
// window by the chosen criterion.
func (s *Service) GetTopProductiveBeds(ctx context.Context, limit int, periodName, criterion string) (models.TopBeds, error) {
	window, err := s.resolve(periodName)
	if err != nil {
		return models.TopBeds{}, err
	}
	switch {
	case limit < 0:
		return models.TopBeds{}, models.NewInvalidInput("limit must not be negative")
	case limit == 0:
		limit = DefaultTopLimit
	}
	if criterion == "" {
		criterion = CriterionTotal
	}
	less, ok := criteria[criterion]
	if !ok {
		return models.TopBeds{}, models.NewInvalidInput("unknown criterion %q", criterion)
	}

	start := time.Now()
	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return models.TopBeds{}, err
	}

	perNursery, skipped := eachNursery(ctx, s, nurseries, func(ctx context.Context, n models.Nursery) ([]models.BedSummary, []models.SkippedUnit, error) {
		snapshots, skipped, err := s.snapshots(ctx, n.ID)
		if err != nil {
			return nil, nil, err
		}
		rows := make([]models.BedSummary, 0, len(snapshots))
		for _, snap := range snapshots {
			last := snap.Stats.LastEventDate
			if last == nil || !window.Contains(*last) {
				continue
			}
			row := models.SummarizeBed(snap.Bed, snap.Stats)
			row.NurseryName = n.Name
			rows = append(rows, row)
		}
		return rows, skipped, nil
	})

	var flat []models.BedSummary
	for _, rows := range perNursery {
		flat = append(flat, rows...)
	}
	sort.SliceStable(flat, func(i, j int) bool { return less(flat[i], flat[j]) })
	if len(flat) > limit {
		flat = flat[:limit]
	}

	ranked := make([]models.RankedBed, 0, len(flat))
	for i, row := range flat {
		ranked = append(ranked, models.RankedBed{Rank: i + 1, BedSummary: row})
	}

	s.metrics.ObserveAggregate("top_productive_beds", start, len(skipped))
	return models.TopBeds{
		Period:         window.Name,
		Criterion:      criterion,
		Beds:           ranked,
		PartialFailure: models.PartialFailure{Skipped: skipped},
	}, nil
}

type nurseryTally struct {
	beds           int
	planted        int
	plantTypes     []string
	periodCuttings int
	allTime        int
}

// GetGlobalSummary counts nurseries, beds and cuttings across the whole system.
func (s *Service) GetGlobalSummary(ctx context.Context, periodName string) (models.GlobalSummary, error) {
	window, err := s.resolve(periodName)
	if err != nil {
		return models.GlobalSummary{}, err
	}

	start := time.Now()
	nurseries, err := s.repo.ListNurseries(ctx)
	if err != nil {
		return models.GlobalSummary{}, err
	}

	tallies, skipped := eachNursery(ctx, s, nurseries, func(ctx context.Context, n models.Nursery) (nurseryTally, []models.SkippedUnit, error) {
		beds, err := s.repo.ListBeds(ctx, n.ID)
		if err != nil {
			return nurseryTally{}, nil, err
		}
		tally := nurseryTally{beds: len(beds)}
		for _, bed := range beds {
			tally.planted += bed.PlantedQuantity
			tally.plantTypes = append(tally.plantTypes, bed.PlantType)
		}
		// beds without statistics still count, they only miss the all-time total
		snapshots, skipped := s.stats.EnsureAll(ctx, beds)
		for _, snap := range snapshots {
			tally.allTime += snap.Stats.TotalCuttings
		}
		periodTotal, _, windowSkipped := s.windowTotals(ctx, beds, window)
		tally.periodCuttings = periodTotal
		return tally, append(skipped, windowSkipped...), nil
	})

	summary := models.GlobalSummary{
		Period:         window.Name,
		NurseryCount:   len(tallies),
		PartialFailure: models.PartialFailure{Skipped: skipped},
	}
	plantTypes := map[string]struct{}{}
	for _, t := range tallies {
		summary.BedCount += t.beds
		summary.TotalPlanted += t.planted
		summary.PeriodCuttings += t.periodCuttings
		summary.AllTimeCuttings += t.allTime
		for _, pt := range t.plantTypes {
			plantTypes[pt] = struct{}{}
		}
	}
	summary.PlantTypeCount = len(plantTypes)
	if summary.BedCount > 0 {
		summary.AverageCuttingsPerBed = period.Round2(float64(summary.AllTimeCuttings) / float64(summary.BedCount))
		summary.AveragePeriodCuttingsPerBed = period.Round2(float64(summary.PeriodCuttings) / float64(summary.BedCount))
	}

	s.metrics.ObserveAggregate("global_summary", start, len(skipped))
	return summary, nil
}

func (s *Service) resolve(name string) (period.Window, error) {
	window, err := period.Resolve(name, s.now().UTC())
	if errors.Is(err, period.ErrUnknownWindow) {
		return period.Window{}, models.NewInvalidInput("unknown period %q", name)
	}
	return window, err
}

func (s *Service) snapshots(ctx context.Context, nurseryID string) ([]statistics.Snapshot, []models.SkippedUnit, error) {
	beds, err := s.repo.ListBeds(ctx, nurseryID)
	if err != nil {
		return nil, nil, err
	}
	snapshots, skipped := s.stats.EnsureAll(ctx, beds)
	return snapshots, skipped, nil
}

// windowTotals sums the events of beds dated inside window. Beds whose events
// cannot be listed are reported and contribute nothing.
func (s *Service) windowTotals(ctx context.Context, beds []models.GrowBed, window period.Window) (int, int, []models.SkippedUnit) {
	q := store.Query{OrderBy: "date", Range: &store.Range{Field: "date", From: &window.From, To: &window.To}}
	var total, count int
	var skipped []models.SkippedUnit
	for _, bed := range beds {
		events, err := s.repo.ListEvents(ctx, bed.NurseryID, bed.ID, q)
		if err != nil {
			s.logger.Warn("skipping bed in windowed totals",
				zap.String("nursery_id", bed.NurseryID),
				zap.String("bed_id", bed.ID),
				zap.Error(err))
			skipped = append(skipped, models.SkippedUnit{NurseryID: bed.NurseryID, BedID: bed.ID, Reason: err.Error()})
			continue
		}
		for _, ev := range events {
			total += ev.Quantity
		}
		count += len(events)
	}
	return total, count, skipped
}

// eachNursery runs fn for every nursery concurrently. Results of failed
// nurseries are dropped and reported; the rest keep nursery order.
func eachNursery[T any](ctx context.Context, s *Service, nurseries []models.Nursery, fn func(context.Context, models.Nursery) (T, []models.SkippedUnit, error)) ([]T, []models.SkippedUnit) {
	results := make([]T, len(nurseries))
	nested := make([][]models.SkippedUnit, len(nurseries))
	errs := fanout.Run(ctx, len(nurseries), s.concurrency, func(ctx context.Context, i int) error {
		res, skipped, err := fn(ctx, nurseries[i])
		if err != nil {
			return err
		}
		results[i], nested[i] = res, skipped
		return nil
	})

	out := make([]T, 0, len(nurseries))
	var skipped []models.SkippedUnit
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("skipping nursery in dashboard aggregate", zap.String("nursery_id", nurseries[i].ID), zap.Error(err))
			skipped = append(skipped, models.SkippedUnit{NurseryID: nurseries[i].ID, Reason: err.Error()})
			continue
		}
		out = append(out, results[i])
		skipped = append(skipped, nested[i]...)
	}
	return out, skipped
}
