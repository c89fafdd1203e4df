// Package job holds periodic maintenance work run by the cron scheduler.
package job

import (
	"context"
	"time"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/pkg/timeutil"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type LockReleaser interface {
	ReleaseStaleLocks(ctx context.Context, cutoff int64) (int64, error)
}

// StaleLockJob frees note edit locks whose holder went away. Acquire
// already treats expired locks as free; this sweep keeps the rows tidy so
// lock state stays readable.
type StaleLockJob struct {
	notes LockReleaser
	ttl   time.Duration
}

func NewStaleLockJob(notes LockReleaser, ttl time.Duration) *StaleLockJob {
	return &StaleLockJob{notes: notes, ttl: ttl}
}

func (j *StaleLockJob) Name() string {
	return "stale_lock_release"
}

func (j *StaleLockJob) Run(ctx context.Context) error {
	ttl := j.ttl
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	released, err := j.notes.ReleaseStaleLocks(ctx, timeutil.NowMilli()-ttl.Milliseconds())
	if err != nil {
		return err
	}
	if released > 0 {
		logutil.GetLogger(ctx).Info("released stale note locks", zap.Int64("count", released))
	}
	return nil
}
