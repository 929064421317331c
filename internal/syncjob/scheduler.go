package syncjob

import (
	"context"
	"log/slog"
	"time"
)

// Submitter hands work to the task runner.
type Submitter interface {
	Submit(name string, payload interface{}) (string, error)
}

// Scheduler submits a sync task on a fixed interval.
// Serialization is enforced by the Job, so a tick that lands while a previous
// run is still executing becomes a skipped run, never a second writer.
type Scheduler struct {
	interval  time.Duration
	submitter Submitter
}

func NewScheduler(interval time.Duration, submitter Submitter) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{interval: interval, submitter: submitter}
}

// Start submits one sync immediately to catch up with any backlog, then one per
// tick. Runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting sync scheduler", "interval", s.interval)

	s.submit()

	for {
		select {
		case <-ticker.C:
			s.submit()
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) submit() {
	taskID, err := s.submitter.Submit(TaskName, nil)
	if err != nil {
		slog.Warn("[Scheduler] Failed to submit sync", "error", err)
		return
	}
	slog.Debug("[Scheduler] Sync submitted", "task_id", taskID)
}
