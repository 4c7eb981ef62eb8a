// Package scheduler runs the ledger's background jobs: the grace-period
// sweep on a short interval and the commission cutoff once a day.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobFunc is one unit of background work. The context is canceled on Stop.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration // interval jobs
	hour     int           // daily jobs, hour in UTC
	daily    bool
	run      JobFunc
}

// Scheduler owns a set of periodic jobs and their goroutines.
type Scheduler struct {
	logger *slog.Logger
	jobs   []job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// New creates an empty scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{logger: logger, now: time.Now}
}

// Every registers a job that runs on a fixed interval.
func (s *Scheduler) Every(name string, interval time.Duration, run JobFunc) {
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
}

// DailyAt registers a job that runs once a day at the given UTC hour.
func (s *Scheduler) DailyAt(name string, hour int, run JobFunc) {
	s.jobs = append(s.jobs, job{name: name, hour: hour, daily: true, run: run})
}

// Start launches one goroutine per job. It returns immediately.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		if j.daily {
			go s.runDaily(ctx, j)
		} else {
			go s.runInterval(ctx, j)
		}
	}
	s.logger.Info("Scheduler started", slog.Int("jobs", len(s.jobs)))
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runInterval(ctx context.Context, j job) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, j)
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context, j job) {
	defer s.wg.Done()
	for {
		wait := time.Until(nextDailyRun(s.now(), j.hour))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.execute(ctx, j)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, j job) {
	start := s.now()
	if err := j.run(ctx); err != nil {
		s.logger.Error("Scheduled job failed",
			slog.String("job", j.name),
			slog.Duration("elapsed", s.now().Sub(start)),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("Scheduled job finished",
		slog.String("job", j.name),
		slog.Duration("elapsed", s.now().Sub(start)))
}

// nextDailyRun returns the next instant the given UTC hour occurs after now.
func nextDailyRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
