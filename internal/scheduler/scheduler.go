package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Maintainer is the session housekeeping the scheduler drives.
type Maintainer interface {
	Checkpoint(ctx context.Context) (int, error)
	ReapIdle(ctx context.Context, idle time.Duration) int
}

// Pruner drops expired resume snapshots.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Heartbeat refreshes shared liveness markers of the sessions held here.
type Heartbeat interface {
	Touch(ctx context.Context) error
}

// Options sets the job intervals. A zero interval disables its job.
type Options struct {
	CheckpointEvery time.Duration
	ReapEvery       time.Duration
	IdleAfter       time.Duration
	PruneEvery      time.Duration
	// JobTimeout bounds one run of any job.
	JobTimeout time.Duration
}

// Scheduler manages periodic session maintenance.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	maintainer Maintainer
	pruner     Pruner
	heartbeat  Heartbeat
	opts       Options
}

// New creates a new scheduler instance. pruner may be nil.
func New(maintainer Maintainer, pruner Pruner, opts Options) *Scheduler {
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Second
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:  s,
		maintainer: maintainer,
		pruner:     pruner,
		opts:       opts,
	}
}

// WithHeartbeat refreshes h on the checkpoint cadence.
func (s *Scheduler) WithHeartbeat(h Heartbeat) *Scheduler {
	s.heartbeat = h
	return s
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.opts.CheckpointEvery > 0 {
		if _, err := s.scheduler.Every(s.opts.CheckpointEvery).WaitForSchedule().Do(s.checkpoint); err != nil {
			return err
		}
	}
	if s.opts.CheckpointEvery > 0 && s.heartbeat != nil {
		if _, err := s.scheduler.Every(s.opts.CheckpointEvery).WaitForSchedule().Do(s.touch); err != nil {
			return err
		}
	}
	if s.opts.ReapEvery > 0 && s.opts.IdleAfter > 0 {
		if _, err := s.scheduler.Every(s.opts.ReapEvery).WaitForSchedule().Do(s.reap); err != nil {
			return err
		}
	}
	if s.opts.PruneEvery > 0 && s.pruner != nil {
		if _, err := s.scheduler.Every(s.opts.PruneEvery).WaitForSchedule().Do(s.prune); err != nil {
			return err
		}
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkpoint() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()
	n, err := s.maintainer.Checkpoint(ctx)
	if err != nil {
		log.Printf("scheduler: checkpoint saved %d sessions with errors: %v", n, err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: checkpointed %d sessions", n)
	}
}

func (s *Scheduler) touch() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()
	if err := s.heartbeat.Touch(ctx); err != nil {
		log.Printf("scheduler: refresh session markers: %v", err)
	}
}

func (s *Scheduler) reap() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()
	if n := s.maintainer.ReapIdle(ctx, s.opts.IdleAfter); n > 0 {
		log.Printf("scheduler: reaped %d idle sessions", n)
	}
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.JobTimeout)
	defer cancel()
	n, err := s.pruner.Prune(ctx)
	if err != nil {
		log.Printf("scheduler: prune snapshots: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: pruned %d expired snapshots", n)
	}
}
