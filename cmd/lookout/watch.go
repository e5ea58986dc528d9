package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/backyonatan-alt/lookout/internal/alert"
	"github.com/backyonatan-alt/lookout/internal/cache"
	"github.com/backyonatan-alt/lookout/internal/config"
	"github.com/backyonatan-alt/lookout/internal/defense"
	"github.com/backyonatan-alt/lookout/internal/game"
	"github.com/backyonatan-alt/lookout/internal/metrics"
	"github.com/backyonatan-alt/lookout/internal/notify"
	"github.com/backyonatan-alt/lookout/internal/pipeline"
	"github.com/backyonatan-alt/lookout/internal/responder"
	"github.com/backyonatan-alt/lookout/internal/scheduler"
	"github.com/backyonatan-alt/lookout/internal/server"
	"github.com/backyonatan-alt/lookout/internal/store"
	"github.com/backyonatan-alt/lookout/internal/threat"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll for attacks, alert the operator and defend pirate raids",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := game.New(cfg.Game)
	if err != nil {
		return err
	}
	notifier := newNotifier(cfg)

	journal, closeJournal, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	status := cache.New()
	m := metrics.New()
	executor := defense.NewExecutor(client, cfg.Defense)

	p := pipeline.New(pipeline.Deps{
		Fetcher:    client,
		Classifier: threat.Default(),
		Defender:   executor,
		Notifier:   notifier,
		Store:      journal,
		Status:     status,
		Metrics:    m,
		InstanceID: cfg.InstanceID,
	})
	sched := scheduler.New(p, cfg.PollInterval, notifier, m)
	listener := responder.New(notifier, client, m, cfg.InstanceID, cfg.Telegram.Wait)

	srv := server.New(status, journal, m.Handler())
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := notifier.Send(ctx, alert.WatchInfo(cfg.PollInterval)); err != nil {
		slog.Warn("failed to send startup message", "error", err)
	}
	slog.Info("watch started",
		"instance_id", cfg.InstanceID,
		"interval", cfg.PollInterval,
		"auto_defense", cfg.Defense.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})
	g.Go(func() error {
		if err := listener.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		serveStatus(httpServer)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}

func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.BotToken == "" {
		slog.Warn("telegram not configured, operator messages go to the log only")
		return notify.Log{}
	}
	return notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		notify.WithHeader(fmt.Sprintf("pid:%d", cfg.InstanceID)),
	)
}

// openStore returns the Postgres journal when database_url is set and an
// in-memory journal otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Info("no database configured, journaling alerts in memory")
		return store.NewMemory(store.DefaultMemoryCapacity), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := store.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pg, func() { db.Close() }, nil
}

// serveStatus runs the status server until it is shut down. A failure is
// logged only; polling continues without the server.
func serveStatus(srv *http.Server) {
	slog.Info("server starting", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("status server failed, polling continues without it", "addr", srv.Addr, "error", err)
	}
}
