package scheduler

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/alanyang/threadkeeper/internal/observ"
	portlocker "github.com/alanyang/threadkeeper/internal/port/locker"
)

var (
	// ErrBusy means the task is already running, here or in another process
	// sharing the advisory lock.
	ErrBusy        = errors.New("task already running")
	ErrUnknownTask = errors.New("unknown task")
)

// retryAfter is how long a cron loop waits when the next tick cannot be
// computed.
const retryAfter = 30 * time.Second

// Task is one periodic job. Exactly one of Every and Cron is set.
type Task struct {
	Name  string
	Every time.Duration
	Cron  string
	Run   func(ctx context.Context) error
}

type entry struct {
	Task
	running sync.Mutex
}

// Runner drives a fixed set of tasks, one goroutine each. A task's next run
// is scheduled only after the previous one returns, so no task overlaps
// itself.
type Runner struct {
	locker  portlocker.AdvisoryLocker
	metrics *observ.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	wg      sync.WaitGroup
}

// NewRunner builds a runner. locker may be nil for a single-process deploy.
func NewRunner(locker portlocker.AdvisoryLocker, metrics *observ.Metrics) *Runner {
	return &Runner{locker: locker, metrics: metrics, entries: make(map[string]*entry)}
}

func (r *Runner) Add(t Task) error {
	switch {
	case t.Name == "":
		return errors.New("add task: name is required")
	case t.Run == nil:
		return fmt.Errorf("add task %s: run func is required", t.Name)
	case (t.Every > 0) == (t.Cron != ""):
		return fmt.Errorf("add task %s: set exactly one of every and cron", t.Name)
	case t.Cron != "" && !gronx.IsValid(t.Cron):
		return fmt.Errorf("add task %s: invalid cron expression %q", t.Name, t.Cron)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.entries[t.Name]; dup {
		return fmt.Errorf("add task %s: duplicate name", t.Name)
	}
	r.entries[t.Name] = &entry{Task: t}
	r.order = append(r.order, t.Name)
	return nil
}

// Names lists the registered tasks in name order.
func (r *Runner) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Start launches every task loop. Interval tasks fire immediately, cron
// tasks wait for their first tick. Loops stop when ctx is cancelled; Wait
// blocks until they have.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		e := r.entries[name]
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if e.Cron != "" {
				r.cronLoop(ctx, e)
			} else {
				r.intervalLoop(ctx, e)
			}
		}()
		slog.Info("scheduler: task started", "task", e.Name, "every", e.Every, "cron", e.Cron)
	}
}

func (r *Runner) Wait() { r.wg.Wait() }

// RunNow runs the named task on the caller's goroutine. It returns ErrBusy
// without running when the task is already in flight.
func (r *Runner) RunNow(ctx context.Context, name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return r.run(ctx, e)
}

func (r *Runner) intervalLoop(ctx context.Context, e *entry) {
	for {
		r.runLogged(ctx, e)

		timer := time.NewTimer(e.Every)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *Runner) cronLoop(ctx context.Context, e *entry) {
	for {
		wait := retryAfter
		next, err := gronx.NextTickAfter(e.Cron, time.Now(), false)
		if err != nil {
			slog.ErrorContext(ctx, "scheduler: next tick failed", "task", e.Name, "cron", e.Cron, "error", err)
		} else {
			wait = time.Until(next)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if err == nil {
			r.runLogged(ctx, e)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context, e *entry) {
	err := r.run(ctx, e)
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, ErrBusy):
		slog.InfoContext(ctx, "scheduler: skipped busy task", "task", e.Name)
	default:
		slog.ErrorContext(ctx, "scheduler: task failed", "task", e.Name, "error", err)
	}
}

// run executes one pass under the in-process guard and, when configured, the
// cross-process advisory lock. Panics are recovered into errors.
func (r *Runner) run(ctx context.Context, e *entry) error {
	if !e.running.TryLock() {
		r.metrics.TaskRun(e.Name, "busy", 0)
		return ErrBusy
	}
	defer e.running.Unlock()

	start := time.Now()
	var err error
	if r.locker == nil {
		err = safeRun(ctx, e.Task)
	} else {
		var acquired bool
		acquired, err = r.locker.TryWithLock(ctx, lockKey(e.Name), func(ctx context.Context) error {
			return safeRun(ctx, e.Task)
		})
		if err == nil && !acquired {
			err = ErrBusy
		}
	}

	outcome := "ok"
	switch {
	case errors.Is(err, ErrBusy):
		outcome = "busy"
	case err != nil:
		outcome = "error"
	}
	r.metrics.TaskRun(e.Name, outcome, time.Since(start))
	return err
}

func safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task %s panicked: %v", t.Name, p)
		}
	}()
	return t.Run(ctx)
}

// lockKey maps a task name onto the advisory lock key space.
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("threadkeeper:task:" + name)) //nolint:errcheck
	return int64(h.Sum64())
}
