package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/approved-premises/internal/apiclient"
	"github.com/terra-clan/approved-premises/internal/audit"
	"github.com/terra-clan/approved-premises/internal/cleanup"
	"github.com/terra-clan/approved-premises/internal/health"
	"github.com/terra-clan/approved-premises/internal/journeys"
	"github.com/terra-clan/approved-premises/internal/metrics"
	"github.com/terra-clan/approved-premises/internal/render"
	"github.com/terra-clan/approved-premises/internal/session"
	"github.com/terra-clan/approved-premises/internal/web"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	slog.Info("starting approved-premises",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"api", cfg.API.BaseURL,
		"session_store", cfg.Session.Store,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	defer initCancel()

	registry := health.NewRegistry(5 * time.Second)

	// Upstream API
	api := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		apiclient.WithObserver(metrics.ObserveUpstream),
	)
	registry.Register(health.NewAPIChecker(api))

	// Sessions
	var (
		store      session.Store
		collectors []cleanup.Collector
	)
	switch cfg.Session.Store {
	case "redis":
		client, err := session.NewRedisClient(initCtx, session.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		store = session.NewRedisStore(client)
		registry.Register(health.NewRedisChecker(client))
	default:
		badgerStore, err := session.OpenBadgerStore(cfg.Session.BadgerPath)
		if err != nil {
			return err
		}
		store = badgerStore
		collectors = append(collectors, badgerStore)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("session store close error", "error", err)
		}
	}()
	slog.Info("session store ready", "store", cfg.Session.Store)

	// Audit trail
	var auditRepo audit.Repository = audit.NopRepository{}
	if cfg.Database.DSN != "" {
		slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
		if err := audit.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
			return err
		}
		repo, err := audit.NewPostgresRepository(initCtx, audit.PostgresConfig{
			DSN:          cfg.Database.DSN,
			MaxOpenConns: int32(cfg.Database.MaxOpenConns),
			MaxIdleConns: int32(cfg.Database.MaxIdleConns),
		})
		if err != nil {
			return err
		}
		auditRepo = repo

		checker, err := health.NewPostgresChecker(cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer checker.Close()
		registry.Register(checker)
		slog.Info("database connected successfully")
	} else {
		slog.Warn("DATABASE_DSN not set, audit events are not recorded")
	}
	defer func() {
		if err := auditRepo.Close(); err != nil {
			slog.Error("audit repository close error", "error", err)
		}
	}()

	// Journeys
	loader, err := loadJourneys(cfg.Journeys.Dir)
	if err != nil {
		return err
	}
	slog.Info("journeys loaded", "count", len(loader.List()))

	views, err := render.New()
	if err != nil {
		return err
	}

	server := web.NewServer(
		cfg.Server,
		web.NewServices(api, loader, auditRepo),
		views,
		session.NewManager(store, cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure),
		registry,
	)
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	cleaner := cleanup.NewCleaner(auditRepo, cfg.Cleanup.AuditRetention, cfg.Cleanup.Interval, collectors...)
	g.Go(func() error {
		return cleaner.Run(gctx)
	})

	if cfg.Journeys.Watch {
		watcher := journeys.NewWatcher(cfg.Journeys.Dir, loader, metrics.JourneysReloaded)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	slog.Info("approved-premises stopped")
	return nil
}
