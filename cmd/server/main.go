package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/OlmanCE/agro-track-sub000/internal/config"
	"github.com/OlmanCE/agro-track-sub000/internal/observability/metrics"
	"github.com/OlmanCE/agro-track-sub000/internal/repository"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/memory"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/mongodb"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/sheets"
	"github.com/OlmanCE/agro-track-sub000/internal/repository/store"
	"github.com/OlmanCE/agro-track-sub000/internal/scheduler"
	"github.com/OlmanCE/agro-track-sub000/internal/server/handlers"
	"github.com/OlmanCE/agro-track-sub000/internal/server/router"
	"github.com/OlmanCE/agro-track-sub000/internal/service/catalog"
	"github.com/OlmanCE/agro-track-sub000/internal/service/comparative"
	"github.com/OlmanCE/agro-track-sub000/internal/service/dashboard"
	"github.com/OlmanCE/agro-track-sub000/internal/service/events"
	"github.com/OlmanCE/agro-track-sub000/internal/service/recommendations"
	"github.com/OlmanCE/agro-track-sub000/internal/service/reporting"
	"github.com/OlmanCE/agro-track-sub000/internal/service/statistics"
	"github.com/OlmanCE/agro-track-sub000/internal/service/trends"
	whatsappclient "github.com/OlmanCE/agro-track-sub000/pkg/clients/whatsapp"
	"github.com/OlmanCE/agro-track-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Config(cfg.Logger)))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		baseLogger.Fatal("failed to init metrics", zap.Error(err))
	}

	var docs store.Store
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		docs = memory.NewStore(cfg.Store.MaxBatchSize)
		baseLogger.Warn("using in-memory store, data is lost on restart")
	default:
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Collection, cfg.Store.MaxBatchSize, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		docs = mongoRepo
	}
	repo := repository.New(docs)

	concurrency := cfg.Analytics.Concurrency
	eventSvc := events.NewService(repo, m, concurrency, baseLogger.Named("svc.events"))
	statsSvc := statistics.NewService(repo, m, cfg.Analytics.StatsMaxAge, concurrency, baseLogger.Named("svc.statistics"))
	comparativeSvc := comparative.NewService(repo, statsSvc, m, baseLogger.Named("svc.comparative"))
	trendSvc := trends.NewService(eventSvc, cfg.Analytics.TrendThresholdPct, m, baseLogger.Named("svc.trends"))
	dashboardSvc := dashboard.NewService(repo, statsSvc, m, concurrency, baseLogger.Named("svc.dashboard"))
	engine := recommendations.NewEngine(recommendations.Thresholds{
		MinEfficiency:       cfg.Analytics.MinEfficiency,
		MinMonthlyFrequency: cfg.Analytics.MinMonthlyFrequency,
	})
	recommendationSvc := recommendations.NewService(repo, statsSvc, trendSvc, engine, baseLogger.Named("svc.recommendations"))
	catalogSvc := catalog.NewService(repo, baseLogger.Named("svc.catalog"))

	// Outlets stay untyped nil when disabled so the reporting service sees a nil interface.
	var sender reporting.Sender
	if cfg.WhatsApp.Enabled() {
		sender = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp digest enabled")
	}
	var writer reporting.RowWriter
	if cfg.Sheets.Enabled() {
		exporter, err := sheets.NewExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		writer = exporter
		baseLogger.Info("sheets export enabled")
	}
	reportingSvc := reporting.NewService(dashboardSvc, sender, cfg.WhatsApp.DigestRecipient, writer, baseLogger.Named("svc.reporting"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, statsSvc, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	httpEngine := router.New(router.Handlers{
		Catalog:   handlers.NewCatalogHandler(catalogSvc, baseLogger.Named("handlers.catalog")),
		Events:    handlers.NewEventsHandler(eventSvc, baseLogger.Named("handlers.events")),
		Analytics: handlers.NewAnalyticsHandler(statsSvc, comparativeSvc, trendSvc, recommendationSvc, baseLogger.Named("handlers.analytics")),
		Dashboard: handlers.NewDashboardHandler(dashboardSvc, cfg.Server.DashboardCacheTTL, baseLogger.Named("handlers.dashboard")),
	}, registry, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
