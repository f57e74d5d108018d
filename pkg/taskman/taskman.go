// Package taskman supervises a named set of long-running tasks:
// it restarts them with capped backoff when they fail, and exposes
// introspection and control for operators.
package taskman

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mikage-io/kagami/pkg/utils/retry"
)

// Task is one long-running unit of work.
//
// A Task is expected to run until its context is done; returning the
// context's error then counts as cooperative shutdown. Any other return
// (error, nil, or panic) makes the supervisor restart the task.
//
// Task bodies must suspend periodically (sleep, I/O wait) even when idle,
// so that cancellation is observed promptly.
type Task func(ctx context.Context) error

// Factory yields a fresh Task.
//
// The supervisor calls the factory again on every restart, and never reuses
// a failed Task: state captured by a previous run (stale connections,
// exhausted iterators) is discarded and rebuilt from scratch.
type Factory func() Task

// Definitions maps task name to factory.
type Definitions map[string]Factory

// TaskContext is an introspection snapshot of one supervised task.
type TaskContext struct {
	// Name of the task.
	Name string

	// Started is when the task was started or last restarted.
	Started time.Time

	// Restarts counts restarts since start (or since the last reset).
	Restarts int
}

type supervised struct {
	name     string
	started  time.Time
	restarts int
	cancel   context.CancelFunc
	done     chan struct{}
}

// Manager runs and supervises tasks. Build with New.
type Manager struct {
	mux        sync.Mutex
	logger     *log.Logger
	newBackoff func() retry.Backoff
	tasks      map[string]*supervised
}

type Option func(*Manager) *Manager

// WithMaxRetryWait bounds the wait between restarts of a failing task.
// The wait grows from one second up to this ceiling; there is no jitter.
func WithMaxRetryWait(max time.Duration) Option {
	return WithBackoff(func() retry.Backoff {
		return retry.Capped(time.Second, 2, max)
	})
}

// WithBackoff replaces the restart wait policy wholesale.
// newBackoff is invoked once per supervised task.
func WithBackoff(newBackoff func() retry.Backoff) Option {
	return func(m *Manager) *Manager {
		m.newBackoff = newBackoff
		return m
	}
}

func New(logger *log.Logger, option ...Option) *Manager {
	m := &Manager{
		logger: logger,
		newBackoff: func() retry.Backoff {
			return retry.Capped(time.Second, 2, 30*time.Second)
		},
		tasks: map[string]*supervised{},
	}
	for _, opt := range option {
		m = opt(m)
	}
	return m
}

// StartAll begins supervising every definition whose name is not running yet.
//
// Names already running are left alone: restarting a healthy task would
// discard connections and closures its current run holds, so only a crash
// may trigger that. Re-invoking StartAll is therefore safe and idempotent.
func (m *Manager) StartAll(ctx context.Context, defs Definitions) {
	m.mux.Lock()
	defer m.mux.Unlock()

	for name, factory := range defs {
		if _, ok := m.tasks[name]; ok {
			continue
		}

		tctx, cancel := context.WithCancel(ctx)
		s := &supervised{
			name:    name,
			started: time.Now(),
			cancel:  cancel,
			done:    make(chan struct{}),
		}
		m.tasks[name] = s
		m.logger.Printf("task %s: started", name)

		go m.supervise(tctx, s, factory)
	}
}

func (m *Manager) supervise(ctx context.Context, s *supervised, factory Factory) {
	defer close(s.done)
	defer func() {
		m.mux.Lock()
		delete(m.tasks, s.name)
		m.mux.Unlock()
	}()

	backoff := m.newBackoff()
	for {
		err := runFresh(ctx, factory)

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			m.logger.Printf("task %s: cancelled", s.name)
			return
		}
		if err != nil {
			m.logger.Printf("task %s: failed: %s", s.name, err)
		} else {
			m.logger.Printf("task %s: finished unexpectedly", s.name)
		}

		if err := backoff(ctx); err != nil {
			m.logger.Printf("task %s: cancelled", s.name)
			return
		}

		m.mux.Lock()
		s.restarts += 1
		s.started = time.Now()
		m.mux.Unlock()
		m.logger.Printf("task %s: restarted (%d restarts)", s.name, s.restarts)
	}
}

// runFresh obtains a brand-new Task from the factory and runs it.
// A panic in the task body is returned as an error.
func runFresh(ctx context.Context, factory Factory) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return factory()(ctx)
}

// Handle waits for the termination of a cancelled task.
type Handle struct {
	done <-chan struct{}
}

// Join blocks until the task terminated, or the timeout passed.
func (h *Handle) Join(timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case <-h.done:
		return nil
	case <-timer.C:
		return fmt.Errorf("task did not terminate within %s", timeout)
	}
}

// Cancel requests cancellation of the named task.
//
// Returns a Handle to wait for actual termination, or nil when no such
// task is supervised.
func (m *Manager) Cancel(name string) *Handle {
	m.mux.Lock()
	s, ok := m.tasks[name]
	m.mux.Unlock()
	if !ok {
		return nil
	}

	s.cancel()
	return &Handle{done: s.done}
}

// CurrentTasks snapshots supervised tasks, sorted by name.
func (m *Manager) CurrentTasks() []TaskContext {
	m.mux.Lock()
	defer m.mux.Unlock()

	ret := make([]TaskContext, 0, len(m.tasks))
	for _, s := range m.tasks {
		ret = append(ret, TaskContext{
			Name: s.name, Started: s.started, Restarts: s.restarts,
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// ResetRestarts zeroes the restart counter of the named task,
// or of every task when name is empty. Running state is not affected.
// Unknown names are ignored.
func (m *Manager) ResetRestarts(name string) {
	m.mux.Lock()
	defer m.mux.Unlock()

	for _, s := range m.tasks {
		if name == "" || s.name == name {
			s.restarts = 0
		}
	}
}
