package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/startupgate/startupgate/config"
	"github.com/startupgate/startupgate/db"
)

// JobExecutor dispatches a claimed job to its handler.
type JobExecutor interface {
	Execute(ctx context.Context, job db.Job) error
}

// Scheduler periodically claims due jobs from the queue and runs them
// through the executor with bounded concurrency.
type Scheduler struct {
	cfg          config.Scheduler
	db           db.DbQueue
	executor     JobExecutor
	logger       *slog.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownDone chan struct{}
}

func NewScheduler(cfg config.Scheduler, dbq db.DbQueue, executor JobExecutor, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:          cfg,
		db:           dbq,
		executor:     executor,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		shutdownDone: make(chan struct{}),
	}
}

// Name identifies the scheduler in server lifecycle logs.
func (s *Scheduler) Name() string { return "job scheduler" }

// Start launches the scheduler loop in its own goroutine.
func (s *Scheduler) Start() error {
	go func() {
		s.logger.Info("starting job scheduler", "interval", s.cfg.Interval.Duration)
		ticker := time.NewTicker(s.cfg.Interval.Duration)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Info("job scheduler received shutdown signal")
				close(s.shutdownDone)
				return
			case <-ticker.C:
				s.processJobs()
			}
		}
	}()
	return nil
}

// Stop signals the scheduler to stop and waits for it to wind down or
// for ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping job scheduler")
	s.cancel()

	select {
	case <-s.shutdownDone:
		s.logger.Info("job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Info("job scheduler shutdown timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) processJobs() {
	jobs, err := s.db.Claim(s.cfg.MaxJobsPerTick)
	if err != nil {
		s.logger.Error("failed to claim jobs", "err", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	s.logger.Info("claimed jobs", "count", len(jobs))

	// The scheduler's context is the parent so in-flight jobs see the
	// shutdown signal.
	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(runtime.NumCPU() * s.cfg.ConcurrencyMultiplier)

	// Written from multiple worker goroutines.
	var processed atomic.Int64
	for _, job := range jobs {
		jobCopy := *job
		g.Go(func() error {
			jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout.Duration)
			defer cancel()

			err := s.executor.Execute(jobCtx, jobCopy)

			switch {
			case err == nil:
				if updateErr := s.db.MarkCompleted(jobCopy.ID); updateErr != nil {
					s.logger.Error("failed to mark job as completed", "job_id", jobCopy.ID, "err", updateErr)
				}
				processed.Add(1)
			case errors.Is(err, context.DeadlineExceeded):
				if updateErr := s.db.MarkFailed(jobCopy.ID, "job timeout reached: "+err.Error()); updateErr != nil {
					s.logger.Error("failed to mark job as timed out", "job_id", jobCopy.ID, "err", updateErr)
				}
			case errors.Is(err, context.Canceled):
				if updateErr := s.db.MarkFailed(jobCopy.ID, "scheduler shutting down: "+err.Error()); updateErr != nil {
					s.logger.Error("failed to mark job as interrupted", "job_id", jobCopy.ID, "err", updateErr)
				}
				s.logger.Info("job interrupted", "job_id", jobCopy.ID)
			default:
				if updateErr := s.db.MarkFailed(jobCopy.ID, err.Error()); updateErr != nil {
					s.logger.Error("failed to mark job as failed", "job_id", jobCopy.ID, "err", updateErr)
				}
			}

			return err
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("job batch interrupted due to scheduler shutdown")
		} else {
			s.logger.Error("error executing job batch", "err", err)
		}
	}

	s.logger.Info("finished processing claimed jobs", "success", processed.Load(), "total", len(jobs))
}
