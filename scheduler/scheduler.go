package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job rebuilds one archive. A job still running when its next run is due
// is skipped rather than started twice.
type Job interface {
	Run()
}

type SchedulerParams struct {
	Logger zerolog.Logger
}

func NewScheduler(params SchedulerParams) *Scheduler {
	cronLogger := cronLog{parent: params.Logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: params.Logger,
		jobs:   make(map[cron.EntryID]Job),
	}
}

type Scheduler struct {
	lock   sync.Mutex
	cron   *cron.Cron
	jobs   map[cron.EntryID]Job
	logger zerolog.Logger
}

// Start the scheduler in its own routine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop the scheduler and wait for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) AddJob(ctx context.Context, schedule string, job Job) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, err := s.cron.AddJob(schedule, job)
	if err != nil {
		return fmt.Errorf("could not add job: %w", err)
	}

	s.jobs[entry] = job
	s.logger.Debug().Int("entry", int(entry)).Str("schedule", schedule).Msg("scheduled job")

	return nil
}

func (s *Scheduler) RemoveJobs() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for entry := range s.jobs {
		s.cron.Remove(entry)
		delete(s.jobs, entry)
	}
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.jobs)
}

// cronLog implements cron.Logger.
type cronLog struct {
	parent zerolog.Logger
}

func (c cronLog) Info(msg string, keysAndValues ...interface{}) {
	c.parent.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLog) Error(err error, msg string, keysAndValues ...interface{}) {
	c.parent.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
