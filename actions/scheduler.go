package actions

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/transform"
)

type SchedulerOptions struct {
	StartDate time.Time // intervals starting before this are not run
	Now       func() time.Time
}

// Scheduler triggers one DAG run at the top of every hour in UTC.
// Missed intervals are not replayed.
type Scheduler struct {
	log     logger.Logger
	runFn   RunFunc
	opts    SchedulerOptions
	cron    *gocron.Scheduler
	job     *gocron.Job
	ctx     context.Context
	cancel  context.CancelFunc
	runMu   sync.Mutex // runs share fixed S3 keys so they must not overlap.
	mu      sync.Mutex // guards stopped and wg.Add against Stop.
	stopped bool
	wg      sync.WaitGroup
}

func NewScheduler(log logger.Logger, runFn RunFunc, opts SchedulerOptions) (*Scheduler, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Scheduler{log: log, runFn: runFn, opts: opts, cron: gocron.NewScheduler(time.UTC)}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron.SingletonModeAll()
	job, err := s.cron.Cron(c.DagScheduleHourly).Do(s.onTick)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", c.DagScheduleHourly)
	}
	s.job = job
	return s, nil
}

// LogicalDateFor returns the start of the hourly interval that ended at or before now.
func LogicalDateFor(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour).Add(-time.Hour)
}

// Start runs the schedule in the background until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()
	s.cron.StartAsync()
	s.log.Info("scheduler started with cron '", c.DagScheduleHourly, "' UTC, next run at ", s.NextRun().Format(time.RFC3339))
}

// Stop stops the schedule, cancels any run in progress and waits for it to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

func (s *Scheduler) onTick() {
	logicalDate := LogicalDateFor(s.opts.Now())
	if logicalDate.Before(s.opts.StartDate) {
		s.log.Info("skipping interval ", logicalDate.Format(time.RFC3339), " before start date ", s.opts.StartDate.Format(time.RFC3339))
		return
	}
	if _, err := s.TriggerNow(logicalDate); err != nil {
		s.log.Error(err)
	}
}

// TriggerNow executes a run for logicalDate and blocks until it finishes.
// Runs are serialized.
func (s *Scheduler) TriggerNow(logicalDate time.Time) (*transform.DagRun, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, errors.New("scheduler stopped")
	}
	if err := s.ctx.Err(); err != nil {
		s.mu.Unlock()
		return nil, errors.Wrap(err, "scheduler stopped")
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.log.Info("triggering run for logical date ", logicalDate.Format(time.RFC3339))
	return s.runFn(s.ctx, logicalDate)
}
