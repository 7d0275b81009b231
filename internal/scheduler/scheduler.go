package scheduler

import (
	"context"
	"fmt"
	"time"

	"expertsolve.com/hub/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Job is a unit of background maintenance work.
type Job interface {
	// Name identifies the job in logs and RunJobByName.
	Name() string

	// Schedule is a cron spec ("@daily", "0 3 * * *"). An empty schedule
	// registers the job for on-demand runs only.
	Schedule() string

	Execute(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	log     *logger.Logger
	timeout time.Duration
}

func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:    make([]Job, 0),
		log:     log,
		timeout: 30 * time.Minute,
	}
}

// RegisterJob adds job and schedules it when it has a schedule.
func (s *Scheduler) RegisterJob(job Job) error {
	s.jobs = append(s.jobs, job)

	schedule := job.Schedule()
	if schedule == "" {
		s.log.Info("job registered for on-demand runs", "job", job.Name())
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.run(job) }); err != nil {
		return fmt.Errorf("schedule job %s: %w", job.Name(), err)
	}
	s.log.Info("job scheduled", "job", job.Name(), "schedule", schedule)
	return nil
}

func (s *Scheduler) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Execute(ctx); err != nil {
		s.log.Error("scheduled job failed", "job", job.Name(), "error", err)
		return
	}
	s.log.Info("scheduled job completed", "job", job.Name(), "duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop prevents new runs and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// RunJobByName executes a registered job immediately.
func (s *Scheduler) RunJobByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return job.Execute(ctx)
		}
	}
	return fmt.Errorf("job %q not found", name)
}

func (s *Scheduler) RegisteredJobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
