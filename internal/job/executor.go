package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrAlreadyLeased  = errors.New("job already has an active executor task")
	ErrExecutorClosed = errors.New("executor is shut down")
	ErrUnknownType    = errors.New("unknown job type")
)

// Executor runs each job on its own goroutine and drives the record through
// pending -> running -> completed|failed. A job id is leased for the lifetime
// of its task so at most one task ever mutates a given record.
type Executor struct {
	store    Store
	registry *Registry
	sem      *semaphore.Weighted
	now      func() time.Time

	mu     sync.Mutex
	leases map[string]struct{}
	closed bool
	wg     sync.WaitGroup
}

type ExecutorOption func(*Executor)

// WithMaxConcurrent bounds how many work functions run at once. Jobs waiting
// for a slot stay pending. n <= 0 means unbounded.
func WithMaxConcurrent(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithClock overrides the time source used for lifecycle timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(store Store, registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:    store,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
		leases:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Spawn starts the task for jobID and returns without waiting for it.
func (e *Executor) Spawn(jobID, jobType string) error {
	d, ok := e.registry.Get(jobType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, jobType)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	if _, held := e.leases[jobID]; held {
		e.mu.Unlock()
		return ErrAlreadyLeased
	}
	e.leases[jobID] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer e.release(jobID)
		// Tasks outlive the request that created them.
		e.run(context.Background(), jobID, d)
	}()
	return nil
}

// Active reports whether a task currently holds the lease for jobID.
func (e *Executor) Active(jobID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, held := e.leases[jobID]
	return held
}

// Shutdown stops accepting new tasks and blocks until in-flight tasks finish
// or ctx is done.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) release(jobID string) {
	e.mu.Lock()
	delete(e.leases, jobID)
	e.mu.Unlock()
}

func (e *Executor) run(ctx context.Context, jobID string, d Descriptor) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			slog.Error("executor: acquire slot", "job", jobID, "error", err)
			return
		}
		defer e.sem.Release(1)
	}

	rec, err := e.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			slog.Warn("executor: job not found", "job", jobID)
			return
		}
		slog.Error("executor: load job", "job", jobID, "error", err)
		return
	}
	if rec.Status != StatusPending {
		slog.Warn("executor: job is not pending, skipping", "job", jobID, "status", rec.Status)
		return
	}

	if err := e.transition(ctx, rec, StartPatch(e.now())); err != nil {
		slog.Error("executor: start job", "job", jobID, "error", err)
		return
	}
	slog.Info("executor: job running", "job", jobID, "type", d.Type)

	result, werr := e.invoke(ctx, d, rec.InputData)
	if werr != nil {
		if err := e.transition(ctx, rec, FailPatch(werr.Error(), e.now())); err != nil {
			slog.Error("executor: record failure", "job", jobID, "error", err)
			return
		}
		slog.Error("executor: job failed", "job", jobID, "type", d.Type, "error", werr)
		return
	}

	if err := e.transition(ctx, rec, CompletePatch(result, e.now())); err != nil {
		slog.Error("executor: record completion", "job", jobID, "error", err)
		return
	}
	slog.Info("executor: job completed", "job", jobID, "type", d.Type)
}

// invoke calls the work function, turning a panic into an error.
func (e *Executor) invoke(ctx context.Context, d Descriptor, input map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Work(ctx, d.Args(input)...)
}

func (e *Executor) transition(ctx context.Context, rec *Record, p Patch) error {
	next := *p.Status
	if !rec.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid transition %s -> %s", rec.Status, next)
	}
	if err := e.store.Update(ctx, rec.JobID, p); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	p.Apply(rec)
	return nil
}
