package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/statengine/internal/aggregation"
	corecfg "github.com/aevon-lab/statengine/internal/core/config"
	"github.com/aevon-lab/statengine/internal/core/stats"
	"github.com/aevon-lab/statengine/internal/core/storage"
	"github.com/aevon-lab/statengine/internal/core/storage/file"
	"github.com/aevon-lab/statengine/internal/core/storage/memory"
	"github.com/aevon-lab/statengine/internal/core/storage/postgres"
	"github.com/aevon-lab/statengine/internal/core/timeindex"
	"github.com/aevon-lab/statengine/internal/engine"
	"github.com/aevon-lab/statengine/internal/entrylog"
	"github.com/aevon-lab/statengine/internal/ingestion"
	"github.com/aevon-lab/statengine/internal/metrics"
	"github.com/aevon-lab/statengine/internal/migrations"
	"github.com/aevon-lab/statengine/internal/projection"
	"github.com/aevon-lab/statengine/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"entry_backend", cfg.Storage.EntryBackend,
		"page_backend", cfg.Storage.PageBackend,
		"bucket_size", cfg.TimeIndex.Bucket(),
		"flush_enabled", cfg.Flush.Enabled)

	if err := run(cfg); err != nil {
		slog.Error("Stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(cfg *corecfg.Config) error {
	// 2. Initialize Storage
	stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	// 3. Initialize Engine
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clock := timeindex.NewClock(cfg.TimeIndex.Bucket())
	eng := engine.New(entrylog.New(stores.segments, m), stores.pages, clock, m)

	// 4. Initialize Flush Scheduler
	aggregators := make([]stats.Aggregator, 0, len(stats.Aggregators))
	for _, agg := range stats.Aggregators {
		aggregators = append(aggregators, agg)
	}
	scheduler := aggregation.NewScheduler(eng, aggregation.Options{
		PollInterval: cfg.Flush.Interval(),
		WarmCache:    cfg.Flush.WarmCache,
		WorkerCount:  cfg.Flush.WorkerCount,
		Aggregators:  aggregators,
	})

	// 5. Initialize Ingestion and Projection
	ingestionSvc := ingestion.NewService(eng, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(eng, projection.Options{
		DefaultHorizon: cfg.Series.DefaultHorizon,
		MaxHorizon:     cfg.Series.MaxHorizon,
		MaxRange:       cfg.Series.MaxRange,
	})

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, reg, stores.checks)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	// 7. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Flush.Enabled {
		g.Go(func() error {
			return scheduler.Start(ctx)
		})
	} else {
		slog.Info("Flush scheduler disabled by config")
	}

	// HTTP server blocks until ctx is cancelled.
	g.Go(func() error {
		return srv.Run(ctx)
	})

	return g.Wait()
}

// stores holds the opened backends and how to release them.
type stores struct {
	segments storage.SegmentStore
	pages    storage.PageStore
	checks   map[string]server.HealthChecker
	closers  []func() error
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
	}
}

func openStores(cfg *corecfg.Config) (*stores, error) {
	s := &stores{checks: make(map[string]server.HealthChecker)}

	var dir *file.Dir
	if cfg.Storage.Uses(corecfg.BackendFile) {
		d, err := file.OpenDir(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data dir: %w", err)
		}
		dir = d
		s.closers = append(s.closers, dir.Close)
		s.checks["data_dir"] = dir
	}

	var adapter *postgres.Adapter
	if cfg.Storage.Uses(corecfg.BackendPostgres) {
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := migrations.Run(db, cfg.Database.AutoMigrate); err != nil {
			db.Close()
			s.close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		adapter, err = postgres.NewAdapterFromDB(db)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.closers = append(s.closers, adapter.Close)
		s.checks["database"] = adapter
	}

	switch cfg.Storage.EntryBackend {
	case corecfg.BackendFile:
		s.segments = dir.Segments(cfg.Storage.SyncWrites)
	case corecfg.BackendPostgres:
		s.segments = adapter
	case corecfg.BackendMemory:
		slog.Warn("Entry backend is in-memory; entries are lost on restart")
		s.segments = memory.NewSegmentStore()
	}

	switch cfg.Storage.PageBackend {
	case corecfg.BackendFile:
		s.pages = dir.Pages()
	case corecfg.BackendPostgres:
		s.pages = postgres.NewPageAdapter(adapter.DB())
	}

	return s, nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
