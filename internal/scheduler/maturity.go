package scheduler

import (
	"context"
	"errors"
	"time"

	"cryptovest/internal/investment"
	"cryptovest/internal/lock"

	"go.uber.org/zap"
)

// Maturer completes due investments.
type Maturer interface {
	MatureInvestments(ctx context.Context) (*investment.MaturityReport, error)
}

// MaturityJob runs one maturity sweep under a lock.
type MaturityJob struct {
	maturer Maturer
	locker  lock.Locker
	key     string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewMaturityJob creates a MaturityJob guarded by key for at most ttl.
func NewMaturityJob(maturer Maturer, locker lock.Locker, key string, ttl time.Duration, logger *zap.Logger) *MaturityJob {
	return &MaturityJob{
		maturer: maturer,
		locker:  locker,
		key:     key,
		ttl:     ttl,
		logger:  logger.Named("maturity"),
	}
}

// Run performs a sweep. It returns a nil report without error when another
// worker holds the lock.
func (j *MaturityJob) Run(ctx context.Context) (*investment.MaturityReport, error) {
	lease, err := j.locker.Acquire(ctx, j.key, j.ttl)
	if errors.Is(err, lock.ErrNotAcquired) {
		j.logger.Debug("Maturity sweep already running elsewhere, skipping", zap.String("lock_key", j.key))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		// Release even if ctx was cancelled mid-sweep.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			j.logger.Warn("Failed to release maturity lock", zap.Error(err))
		}
	}()

	start := time.Now()
	report, err := j.maturer.MatureInvestments(ctx)
	if err != nil {
		return report, err
	}
	j.logger.Debug("Maturity sweep finished",
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.Duration("took", time.Since(start)))
	return report, nil
}

// Tick is the cron entry point; errors are logged rather than returned.
func (j *MaturityJob) Tick(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("Maturity sweep failed", zap.Error(err))
	}
}
