// Package scheduler runs periodic jobs whose lifetime is bound to a
// context: Start begins them, Stop cancels the context handed to every job
// and waits for running jobs to return.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	appLog "meditrack/internal/log"
)

// parser accepts standard 5-field specs, an optional leading seconds field
// and descriptors such as "@every 30s".
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Job is a unit of periodic work. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context)

// Scheduler owns a cron instance and the context of its jobs.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	names   map[cron.EntryID]string
	started bool
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}

// New creates a stopped Scheduler. Jobs never overlap with themselves and a
// panicking job is logged instead of crashing the process.
func New() *Scheduler {
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
		names:  make(map[cron.EntryID]string),
	}
}

// Validate reports whether spec is a schedule this package accepts.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Add registers job under name with the given cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if err := Validate(spec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		appLog.Debug("job start", "job", name)
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduler: add %s: %w", name, err)
	}
	s.names[id] = name
	appLog.Info("job scheduled", "job", name, "schedule", spec)
	return nil
}

// Jobs returns the registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.names))
	for _, e := range s.cron.Entries() {
		out = append(out, s.names[e.ID])
	}
	return out
}

// Start begins running jobs. Cancelling parent stops the scheduler as if
// Stop had been called.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.cron.Start()

	go func() {
		select {
		case <-parent.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

// Stop cancels the job context, stops scheduling and waits for running
// jobs to return. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}
