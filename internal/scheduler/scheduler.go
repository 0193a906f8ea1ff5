package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/config"
	"github.com/OlmanCE/agro-track-sub000/internal/domain/models"
)

const jobTimeout = 10 * time.Minute

type StatisticsRefresher interface {
	RefreshAll(ctx context.Context) (models.RefreshReport, error)
}

type Reporter interface {
	SendWeeklyDigest(ctx context.Context) error
	ExportWeekly(ctx context.Context) (int, error)
}

// Scheduler runs the nightly statistics refresh and the weekly digest.
type Scheduler struct {
	cron      *cron.Cron
	refresher StatisticsRefresher
	reporter  Reporter
	logger    *zap.Logger
}

// NewScheduler registers the jobs with the configured cron expressions,
// evaluated in cfg.Timezone.
func NewScheduler(cfg config.ReportingConfig, refresher StatisticsRefresher, reporter Reporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		refresher: refresher,
		reporter:  reporter,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(cfg.StatsRefreshCron, s.refreshStatistics); err != nil {
		return nil, fmt.Errorf("schedule statistics refresh %q: %w", cfg.StatsRefreshCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.DigestCron, s.weeklyDigest); err != nil {
		return nil, fmt.Errorf("schedule weekly digest %q: %w", cfg.DigestCron, err)
	}
	return s, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshStatistics() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		s.logger.Error("statistics refresh failed", zap.Error(err))
		return
	}
	if report.Partial() {
		s.logger.Warn("statistics refresh skipped units", zap.Int("skipped", len(report.Skipped)))
	}
}

func (s *Scheduler) weeklyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reporter.SendWeeklyDigest(ctx); err != nil {
		s.logger.Error("failed to send weekly digest", zap.Error(err))
	}
	if _, err := s.reporter.ExportWeekly(ctx); err != nil {
		s.logger.Error("failed to export weekly rows", zap.Error(err))
	}
}
