package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/cobra"

	"salesreports/internal/infrastructure/config"
	"salesreports/internal/infrastructure/export"
	v1 "salesreports/internal/infrastructure/http/v1"
	"salesreports/pkg/logger"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx = logger.WithLogger(ctx, a.log)
	if a.invalidator != nil {
		a.invalidator.Start(ctx)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Database:         a.pool,
		Reports:          a.service,
		Logger:           a.log,
		Location:         a.location,
		CurrencyExponent: cfg.Reports.CurrencyExponent,
		Version:          version,
	})

	// Workbooks are zip archives already.
	gzip, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ExceptContentTypes([]string{export.ContentType}),
	)
	if err != nil {
		return fmt.Errorf("init gzip: %w", err)
	}

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      gzip(router),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  2 * cfg.App.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infow("server starting", "port", cfg.App.Port, "env", cfg.App.Env, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down server...")
	a.pool.LogStats(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}
