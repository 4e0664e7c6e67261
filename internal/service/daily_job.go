package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/quota-backend-go/internal/analytics"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"go.uber.org/zap"
)

// DailyJob brings daily analytics up to yesterday for every user once a day
// at a fixed local hour.
type DailyJob struct {
	backfill *BackfillService
	hour     int
	loc      *time.Location
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	now      func() time.Time
}

// NewDailyJob creates a job that fires at hour:00 in loc
func NewDailyJob(
	backfill *BackfillService,
	hour int,
	loc *time.Location,
	timeout time.Duration,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DailyJob {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DailyJob{
		ctx:      ctx,
		cancel:   cancel,
		backfill: backfill,
		hour:     hour,
		loc:      loc,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Start runs the scheduling loop until Stop is called
func (j *DailyJob) Start() {
	j.running.Store(true)
	defer close(j.done)

	for {
		next := j.nextRun(j.now())
		j.logger.Info("daily analytics job scheduled", zap.Time("next_run", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-j.shutdown:
			timer.Stop()
			return
		case <-timer.C:
			j.RunOnce(j.ctx)
		}
	}
}

// Stop ends the loop, cancels a run in flight and waits for the loop to
// exit or for ctx to expire.
func (j *DailyJob) Stop(ctx context.Context) error {
	j.stopOnce.Do(func() {
		close(j.shutdown)
		j.cancel()
	})
	if !j.running.Load() {
		return nil
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce catches daily analytics up through the day before now
func (j *DailyJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	yesterday := analytics.StartOfDay(j.now(), j.loc).AddDate(0, 0, -1)
	log := j.logger.With(zap.String("through", analytics.FormatDate(yesterday)))

	if err := j.backfill.RunNightly(ctx); err != nil {
		log.Error("daily analytics job failed", zap.Error(err))
		j.metrics.BackgroundJob("daily_job", false)
		return
	}
	log.Info("daily analytics job completed")
	j.metrics.BackgroundJob("daily_job", true)
}

// nextRun returns the first hour:00 strictly after now
func (j *DailyJob) nextRun(now time.Time) time.Time {
	now = now.In(j.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hour, 0, 0, 0, j.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
