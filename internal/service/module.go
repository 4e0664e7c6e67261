package service

import (
	"context"
	"time"

	"github.com/jengzang/quota-backend-go/internal/config"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the services and ties background work to the app lifecycle
var Module = fx.Options(
	fx.Provide(newLifecycleRunner),
	fx.Provide(NewDailyAggregator),
	fx.Provide(NewQuotaService),
	fx.Provide(NewBackfillService),
	fx.Provide(NewPriorityService),
	fx.Provide(NewAnalyticsService),
	fx.Provide(NewActivityService),
	fx.Provide(newLifecycleDailyJob),
	fx.Invoke(func(*DailyJob) {}),
	fx.Invoke(startCatchUp),
)

func newLifecycleRunner(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *BackgroundRunner {
	runner := NewBackgroundRunner(logger, metrics, cfg.BackgroundTimeout)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				runner.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				logger.Warn("background jobs still running at shutdown")
				return ctx.Err()
			}
		},
	})
	return runner
}

func newLifecycleDailyJob(
	lc fx.Lifecycle,
	cfg *config.Config,
	backfill *BackfillService,
	loc *time.Location,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DailyJob {
	job := NewDailyJob(backfill, cfg.NightlyJobHour, loc, 0, metrics, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go job.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := job.Stop(ctx); err != nil {
				logger.Warn("daily analytics job still running at shutdown")
				return err
			}
			return nil
		},
	})
	return job
}

// startCatchUp replays missed days once the app is up. Failures abort the
// replay and are logged; serving continues either way. Shutdown cancels the
// replay and waits for it before the database hook runs.
func startCatchUp(lc fx.Lifecycle, backfill *BackfillService, logger *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				if err := backfill.OnServerStart(runCtx); err != nil {
					logger.Error("startup catch-up failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				logger.Warn("startup catch-up still running at shutdown")
				return ctx.Err()
			}
		},
	})
}
