package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/quota-backend-go/internal/observability"
	"go.uber.org/zap"
)

// BackgroundRunner runs fire-and-forget jobs. Failures are logged and
// counted, never returned to whoever scheduled the job.
type BackgroundRunner struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewBackgroundRunner creates a runner whose jobs get the given timeout
func NewBackgroundRunner(logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) *BackgroundRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BackgroundRunner{logger: logger, metrics: metrics, timeout: timeout}
}

// Go schedules fn and returns immediately
func (r *BackgroundRunner) Go(name string, fn func(ctx context.Context) error) {
	jobID := uuid.NewString()
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		log := r.logger.With(zap.String("job", name), zap.String("job_id", jobID))

		defer func() {
			if p := recover(); p != nil {
				log.Error("background job panicked", zap.Any("panic", p))
				r.metrics.BackgroundJob(name, false)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error("background job failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			r.metrics.BackgroundJob(name, false)
			return
		}
		log.Debug("background job completed", zap.Duration("elapsed", time.Since(start)))
		r.metrics.BackgroundJob(name, true)
	}()
}

// Wait blocks until every scheduled job has finished
func (r *BackgroundRunner) Wait() {
	r.wg.Wait()
}
