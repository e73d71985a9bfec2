package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"salesreports/internal/domain/reports"
	"salesreports/internal/infrastructure/cache"
	"salesreports/internal/infrastructure/config"
	"salesreports/internal/infrastructure/storage/postgres"
	"salesreports/internal/infrastructure/storage/postgres/report_repo"
	"salesreports/pkg/logger"
)

// app holds the wired components shared by the serve and export commands.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	pool        *postgres.Pool
	redis       *redis.Client
	invalidator *cache.Invalidator
	service     *reports.Service
	location    *time.Location
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
		Version:     version,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	if err := a.init(logger.WithLogger(ctx, log)); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(ctx context.Context) error {
	eligibility, err := a.cfg.Reports.EligibilityPolicy()
	if err != nil {
		return err
	}
	adjustments, err := a.cfg.Reports.AdjustmentTypes()
	if err != nil {
		return err
	}
	if a.location, err = a.cfg.Reports.Location(); err != nil {
		return err
	}

	poolCfg := postgres.DefaultPoolConfig(a.cfg.Database.URL)
	poolCfg.MaxConns = a.cfg.Database.MaxConns
	poolCfg.MinConns = a.cfg.Database.MinConns
	if a.pool, err = postgres.NewPool(ctx, poolCfg); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	txManager := postgres.NewTxManager(a.pool, a.cfg.Database.StatementTimeout)

	var options reports.OptionIndex = report_repo.NewOptionRepo(txManager)
	var targets []cache.Invalidatable

	if a.cfg.Redis.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// Labels still load from the database when redis is down.
			a.log.Warnw("redis unavailable, option labels fall through to database", "addr", a.cfg.Redis.Addr, "error", err)
		}
		shared, err := cache.NewRedisOptionIndex(a.redis, options, a.cfg.Reports.LabelCacheTTL, cache.DefaultCompressThreshold)
		if err != nil {
			return fmt.Errorf("init redis label cache: %w", err)
		}
		options = shared
		targets = append(targets, shared)
	}

	if ttl := a.cfg.Reports.LabelCacheTTL; ttl > 0 {
		local := cache.NewOptionIndexCache(options, ttl)
		options = local
		targets = append(targets, local)
	}

	if len(targets) > 0 {
		a.invalidator = cache.NewInvalidator(a.pool.Pool, targets...)
	}

	projector := reports.NewProjector(report_repo.NewOrderRowRepo(txManager), eligibility, adjustments)
	a.service = reports.NewService(projector, report_repo.NewChannelRepo(txManager), options, txManager)

	a.log.Infow("report service initialized",
		"order_states", eligibility.OrderStates,
		"payment_states", eligibility.PaymentStates,
		"adjustment_types", adjustments.All(),
		"label_cache_ttl", a.cfg.Reports.LabelCacheTTL,
		"redis", a.cfg.Redis.Enabled(),
	)
	return nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	if a.invalidator != nil {
		a.invalidator.Stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.log.Sync()
}
