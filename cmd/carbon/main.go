package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "carbon/internal/adapter/http"
	"carbon/internal/adapter/localstore"
	"carbon/internal/adapter/memory"
	"carbon/internal/adapter/postgres"
	"carbon/internal/app"
	"carbon/internal/config"
	"carbon/internal/domain"
	"carbon/internal/logger"
	"carbon/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// store is what the services need from a backend.
type store interface {
	domain.UserRepository
	domain.SessionStore
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	db, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	passwords, err := app.PasswordPolicyByName(cfg.PasswordPolicy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	accounts := app.NewAccountService(db, db, passwords,
		app.WithAccountLogger(log),
		app.WithAccountMetrics(collector),
	)
	tracker := app.NewTracker(accounts, app.WithTrackerMetrics(collector))
	accounts.Attach(tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sess, err := accounts.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	} else if sess != nil {
		log.Info("session restored", slog.String("user_id", sess.UserID))
	}

	srv := adapthttp.New(accounts, tracker, adapthttp.Options{
		Logger:         log,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
		AuthRatePerMin: cfg.AuthRatePerMin,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.Addr), slog.String("store", cfg.Store))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (store, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), func() {}, nil
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	default:
		db, err := localstore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	}
}
