package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Trigger(ctx context.Context, name string) error
	Start(ctx context.Context)
	Stop()
}

// scheduledJob pairs a job with its spec and an overlap guard, so a slow
// run is skipped rather than stacked when the next tick arrives.
type scheduledJob struct {
	job     Job
	spec    string
	running atomic.Bool
}

type CronScheduler struct {
	cron *cron.Cron
	jobs map[string]*scheduledJob
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]*scheduledJob),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("job already registered: %s", name)
	}
	sj := &scheduledJob{job: job, spec: spec}
	if _, err := c.cron.AddFunc(spec, func() { _ = c.fire(c.runCtx(), sj) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	c.jobs[name] = sj
	logutil.GetLogger(context.Background()).Info("job scheduled",
		zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Trigger runs a registered job immediately, outside its cron spec. A job
// whose scheduled run is still in flight is skipped the same way a cron
// tick would be.
func (c *CronScheduler) Trigger(ctx context.Context, name string) error {
	sj, ok := c.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	return c.fire(ctx, sj)
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *CronScheduler) runCtx() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

func (c *CronScheduler) fire(ctx context.Context, sj *scheduledJob) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("job", sj.job.Name()),
		zap.String("spec", sj.spec),
	)
	if !sj.running.CompareAndSwap(false, true) {
		logger.Info("job skipped: still running")
		return nil
	}
	defer sj.running.Store(false)

	start := time.Now()
	logger.Info("job started")
	err := sj.job.Run(ctx)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("job finished", zap.Error(err), zap.Duration("duration", elapsed))
		return err
	}
	logger.Info("job finished", zap.Duration("duration", elapsed))
	return nil
}
