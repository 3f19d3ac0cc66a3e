package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/mind-engage/mindengage-studycentre/internal/api/http"
	"github.com/mind-engage/mindengage-studycentre/internal/assess"
	authmw "github.com/mind-engage/mindengage-studycentre/internal/auth/middleware"
	"github.com/mind-engage/mindengage-studycentre/internal/catalog"
	"github.com/mind-engage/mindengage-studycentre/internal/config"
	"github.com/mind-engage/mindengage-studycentre/internal/db"
	"github.com/mind-engage/mindengage-studycentre/internal/logger"
	"github.com/mind-engage/mindengage-studycentre/internal/session"
)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			return serve(cfg, log)
		},
	}
}

func serve(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []func(context.Context) error
	deps := httpapi.Deps{Config: cfg, Log: log}

	switch cfg.CatalogSource {
	case "db":
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer dbh.Close()
		deps.Catalog = catalog.NewSQLStore(dbh)
		checks = append(checks, pingDB(dbh))
	default:
		mem, err := catalog.LoadMemory(cfg.ContentDir)
		if err != nil {
			return fmt.Errorf("load content from %s: %w", cfg.ContentDir, err)
		}
		deps.Catalog = mem
		deps.Reloader = mem
	}

	var sessions session.Store
	switch cfg.SessionStore {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		sessions = session.NewRedis(rdb, cfg.SessionTTL)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	default:
		mem := session.NewMemory(cfg.SessionTTL, time.Minute)
		defer mem.Close()
		sessions = mem
	}

	deps.Auth = authmw.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)
	deps.Assess = assess.New(deps.Catalog, sessions, log)
	deps.Ready = func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("catalog", cfg.CatalogSource),
			zap.String("sessions", cfg.SessionStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func pingDB(dbh *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error { return dbh.PingContext(ctx) }
}
