package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	// Schedule is a cron spec, including descriptors such as "@every 12h".
	// An empty schedule registers the job for on-demand runs only.
	Schedule() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	jobs []Job
}

// New returns a scheduler whose jobs receive ctx; cancel it to ask running
// jobs to stop early.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		ctx:  ctx,
	}
}

func (s *Scheduler) Register(job Job) error {
	if spec := job.Schedule(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(s.ctx, job) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
		}
		log.Info().Str("job", job.Name()).Str("schedule", spec).Msg("job scheduled")
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	log.Info().Str("job", job.Name()).Msg("job started")

	if err := job.Run(ctx); err != nil {
		log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return err
	}

	log.Info().Str("job", job.Name()).Dur("took", time.Since(start)).Msg("job completed")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.run(ctx, job)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Names() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
