package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clubm8/clubm8api/internal/logging"
	"github.com/clubm8/clubm8api/internal/server"
)

const (
	shutdownTimeout = 5 * time.Second
	cleanupInterval = 5 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := logging.Setup(cfg.LogLevel)
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	srv := server.New(db, server.Config{
		DefaultLimit:    cfg.API.DefaultLimit,
		MaxLimit:        cfg.API.MaxLimit,
		Location:        loc,
		WritesPerMinute: cfg.Throttle.WritesPerMinute,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("clubm8 listening", "addr", httpServer.Addr, "driver", cfg.Database.Driver, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		srv.RateLimiter().RunCleanup(gctx.Done(), cleanupInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
