package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/aevon-lab/project-pulse/internal/api/v1"
	"github.com/aevon-lab/project-pulse/internal/metrics"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Status is the lifecycle state of a task. A task is pending from submission until
// its last attempt finishes, including while it waits between retries.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

const (
	defaultWorkers        = 4
	defaultQueueSize      = 1024
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultResultTTL      = 24 * time.Hour
	defaultShutdownGrace  = 30 * time.Second
	sweepInterval         = time.Minute
)

var (
	ErrUnknownTask   = errors.New("unknown task name")
	ErrQueueFull     = errors.New("task queue is full")
	ErrRunnerStopped = errors.New("task runner is stopped")
	ErrTaskNotFound  = errors.New("task not found")
)

// Handler executes one attempt of a task. A non-nil error schedules a retry unless
// it is wrapped with Permanent or the attempt budget is exhausted.
type Handler func(ctx context.Context, payload interface{}) (interface{}, error)

// Permanent marks err as not retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Config controls concurrency, retry and retention of task results.
type Config struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	ResultTTL      time.Duration
	ShutdownGrace  time.Duration
}

func (c Config) normalized() Config {
	n := c
	if n.Workers <= 0 {
		n.Workers = defaultWorkers
	}
	if n.QueueSize <= 0 {
		n.QueueSize = defaultQueueSize
	}
	if n.MaxAttempts <= 0 {
		n.MaxAttempts = defaultMaxAttempts
	}
	if n.InitialBackoff <= 0 {
		n.InitialBackoff = defaultInitialBackoff
	}
	if n.MaxBackoff < n.InitialBackoff {
		n.MaxBackoff = defaultMaxBackoff
		if n.MaxBackoff < n.InitialBackoff {
			n.MaxBackoff = n.InitialBackoff
		}
	}
	if n.ResultTTL <= 0 {
		n.ResultTTL = defaultResultTTL
	}
	if n.ShutdownGrace <= 0 {
		n.ShutdownGrace = defaultShutdownGrace
	}
	return n
}

type task struct {
	id         string
	name       string
	payload    interface{}
	status     Status
	attempts   int
	result     interface{}
	err        error
	finishedAt time.Time
}

// Runner is an in-process task queue with a fixed worker pool.
// Task state lives in memory and does not survive a restart.
type Runner struct {
	cfg      Config
	handlers map[string]Handler
	queue    chan *task
	now      func() time.Time

	mu      sync.RWMutex
	tasks   map[string]*task
	stopped bool
}

func NewRunner(cfg Config) *Runner {
	cfg = cfg.normalized()
	return &Runner{
		cfg:      cfg,
		handlers: make(map[string]Handler),
		queue:    make(chan *task, cfg.QueueSize),
		now:      func() time.Time { return time.Now().UTC() },
		tasks:    make(map[string]*task),
	}
}

// Register binds a handler to a task name. Call before Start.
func (r *Runner) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Submit enqueues a task and returns its id without waiting for execution.
func (r *Runner) Submit(name string, payload interface{}) (string, error) {
	if _, ok := r.handlers[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	t := &task{
		id:      uuid.NewString(),
		name:    name,
		payload: payload,
		status:  StatusPending,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return "", ErrRunnerStopped
	}

	select {
	case r.queue <- t:
	default:
		return "", ErrQueueFull
	}
	r.tasks[t.id] = t

	slog.Debug("[Tasks] Submitted", "task_id", t.id, "name", name)
	return t.id, nil
}

// Status returns a snapshot of the task. Unknown and expired ids yield ErrTaskNotFound.
func (r *Runner) Status(id string) (v1.TaskStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || r.expired(t, r.now()) {
		return v1.TaskStatus{}, ErrTaskNotFound
	}

	st := v1.TaskStatus{
		TaskID:   t.id,
		Status:   string(t.status),
		Attempts: t.attempts,
		Result:   t.result,
	}
	if t.err != nil {
		st.Error = t.err.Error()
	}
	return st, nil
}

// Start runs the worker pool until ctx is cancelled. Queued tasks are then drained,
// with their contexts cancelled once the shutdown grace period elapses.
func (r *Runner) Start(ctx context.Context) error {
	execCtx, cancelExec := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelExec()

	slog.Info("[Tasks] Starting task runner",
		"workers", r.cfg.Workers,
		"queue_size", r.cfg.QueueSize,
		"max_attempts", r.cfg.MaxAttempts)

	var g errgroup.Group
	for i := 0; i < r.cfg.Workers; i++ {
		g.Go(func() error {
			for t := range r.queue {
				r.execute(execCtx, t)
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-done:
				return
			}
		}
	}()

	<-ctx.Done()
	slog.Info("[Tasks] Stopping, draining queued tasks", "queued", len(r.queue), "grace", r.cfg.ShutdownGrace)

	r.mu.Lock()
	r.stopped = true
	close(r.queue)
	r.mu.Unlock()

	grace := time.AfterFunc(r.cfg.ShutdownGrace, cancelExec)
	defer grace.Stop()

	err := g.Wait()
	close(done)

	slog.Info("[Tasks] Task runner stopped")
	return err
}

func (r *Runner) execute(ctx context.Context, t *task) {
	h := r.handlers[t.name]

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.cfg.InitialBackoff
	expo.MaxInterval = r.cfg.MaxBackoff

	operation := func() (interface{}, error) {
		attempt := r.beginAttempt(t)
		res, err := h(ctx, t.payload)
		if err != nil {
			slog.Warn("[Tasks] Attempt failed",
				"task_id", t.id,
				"name", t.name,
				"attempt", attempt,
				"max_attempts", r.cfg.MaxAttempts,
				"error", err)
		}
		return res, err
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(r.cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	r.finish(t, res, err)
}

func (r *Runner) beginAttempt(t *task) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.attempts++
	return t.attempts
}

func (r *Runner) finish(t *task, res interface{}, err error) {
	r.mu.Lock()
	t.finishedAt = r.now()
	if err != nil {
		t.status = StatusFailure
		t.err = err
	} else {
		t.status = StatusSuccess
		t.result = res
	}
	attempts := t.attempts
	r.mu.Unlock()

	metrics.Tasks.WithLabelValues(t.name, string(t.status)).Inc()

	if err != nil {
		slog.Error("[Tasks] Task failed", "task_id", t.id, "name", t.name, "attempts", attempts, "error", err)
		return
	}
	slog.Debug("[Tasks] Task succeeded", "task_id", t.id, "name", t.name, "attempts", attempts)
}

// expired reports whether a finished task's result is past its TTL. Caller holds mu.
func (r *Runner) expired(t *task, now time.Time) bool {
	return t.status != StatusPending && now.Sub(t.finishedAt) > r.cfg.ResultTTL
}

func (r *Runner) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, t := range r.tasks {
		if r.expired(t, now) {
			delete(r.tasks, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("[Tasks] Expired task results removed", "count", removed)
	}
}
