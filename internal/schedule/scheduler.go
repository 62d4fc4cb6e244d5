// Package schedule drives the daily job trigger.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs one job function once per day at a configurable time.
// Reconfiguration replaces the single cron entry; triggers that land while a
// job is active are dropped by the run guard downstream, not queued here.
type Scheduler struct {
	cron *cron.Cron
	job  func()

	mu    sync.Mutex
	entry cron.EntryID
}

// New creates a stopped Scheduler for the given job function.
func New(job func()) *Scheduler {
	return &Scheduler{cron: cron.New(), job: job}
}

// Start launches the background timer.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the timer. Running jobs are unaffected.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// SetDaily (re)schedules the job at the given HH:MM, replacing any prior
// schedule. Called at startup and again whenever configuration is saved.
func (s *Scheduler) SetDaily(runTime string) error {
	spec, err := cronSpec(runTime)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	entry, err := s.cron.AddFunc(spec, s.job)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", runTime, err)
	}
	s.entry = entry
	return nil
}

// cronSpec converts HH:MM into a five-field daily cron expression.
func cronSpec(runTime string) (string, error) {
	parts := strings.Split(runTime, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("run time must be HH:MM, got %q", runTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("run time hour out of range in %q", runTime)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("run time minute out of range in %q", runTime)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
