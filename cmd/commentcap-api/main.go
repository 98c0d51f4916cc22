package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/commentcap/internal/audit"
	"example.com/commentcap/internal/automation"
	"example.com/commentcap/internal/config"
	"example.com/commentcap/internal/dispatch"
	"example.com/commentcap/internal/idempotency"
	"example.com/commentcap/internal/reddit"
	spg "example.com/commentcap/internal/storage/postgres"
	sredis "example.com/commentcap/internal/storage/redis"
	transport "example.com/commentcap/internal/transport/http"
)

const flagPurgeInterval = time.Hour

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)
	log.Info("config loaded", "port", cfg.Port, "flag_store", cfg.FlagStore, "workers", cfg.DispatchWorkers)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := spg.Connect(ctx, cfg.PostgresDSN, int32(cfg.PGMaxConns))
	if err != nil {
		fatal(log, "db connect", err)
	}
	defer db.Close()
	log.Info("db connected")

	applied, err := db.Migrate(ctx, cfg.Migrations)
	if err != nil {
		fatal(log, "migration", err)
	}
	log.Info("db migrations applied", "files", applied)

	ready := []func(context.Context) error{db.Ready}
	var flags idempotency.Store
	switch cfg.FlagStore {
	case "postgres":
		pf := spg.NewFlagStore(db)
		go purgeFlags(ctx, pf, log)
		flags = pf
	case "redis":
		rf, err := sredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			fatal(log, "redis connect", err)
		}
		defer rf.Close()
		ready = append(ready, rf.Ping)
		flags = rf
	default:
		fatal(log, "config", errors.New("FLAG_STORE must be redis or postgres"))
	}
	log.Info("flag store ready", "kind", cfg.FlagStore)

	content := reddit.NewClient(cfg.RedditToken, cfg.RedditUserAgent, cfg.HTTPTimeout)
	content.BaseURL = cfg.RedditAPIBase

	recorder := audit.NewRecorder(spg.NewWriter(db), cfg.AuditQueueMaxSize, cfg.AuditBatchMaxSize, cfg.AuditBatchMaxWait, log)
	recorder.Start(ctx)
	log.Info("audit recorder started", "queue", cfg.AuditQueueMaxSize, "batch", cfg.AuditBatchMaxSize, "wait", cfg.AuditBatchMaxWait)

	settings := spg.NewSettingsStore(db)
	now := func() time.Time { return time.Now().UTC() }

	var handlers []dispatch.TriggerHandler
	for _, a := range automation.All() {
		handlers = append(handlers, automation.NewHandler(a, automation.Deps{
			Settings:     settings,
			Content:      content,
			Flags:        flags,
			Recorder:     recorder,
			AppAccountID: cfg.AppAccountID,
			Now:          now,
			Logger:       log,
		}))
	}
	dispatcher := dispatch.NewDispatcher(handlers, cfg.QueueMaxSize, cfg.DispatchWorkers, log)
	dispatcher.Start(ctx)
	log.Info("dispatcher started", "automations", len(handlers))

	deps := &transport.ServerDeps{
		Cfg:        cfg,
		Dispatcher: dispatcher,
		Settings:   settings,
		Metrics:    db,
		Ready: func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
		Now: now,
		Log: log,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http server", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)

	dispatcher.Wait()
	recorder.Wait()
	log.Info("stopped")
}

func purgeFlags(ctx context.Context, fs *spg.FlagStore, log *slog.Logger) {
	t := time.NewTicker(flagPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := fs.PurgeExpired(ctx)
			if err != nil {
				log.Warn("flag purge failed", "err", err)
				continue
			}
			log.Debug("flags purged", "rows", n)
		}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
