// Package scheduler runs the background reminder sweep on a fixed interval.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler provides cron-based background job scheduling with panic
// recovery. Overlapping runs of the same job are skipped, so a slow sweep
// cannot double-deliver.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts the scheduler.
func NewScheduler() *Scheduler {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
		cron.Recover(cron.DefaultLogger),
	))
	c.Start()
	return &Scheduler{cron: c}
}

// Every schedules the task at the fixed interval.
func (s *Scheduler) Every(interval time.Duration, task func()) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), task)
	return err
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
