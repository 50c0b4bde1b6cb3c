// Package jobmgr runs named background loops (the stream poller, the
// console reader) as cancellable goroutines and stops them together at
// shutdown. Jobs are removed automatically when they return.
package jobmgr

import (
	"context"
	"fmt"
	"sync"
)

// JobFunc is a long-running unit of work that honours ctx cancellation.
type JobFunc func(ctx context.Context) error

// StatusReporter receives lifecycle events: "running:<name>",
// "done:<name>" or "error:<name>:<detail>".
type StatusReporter func(string)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager starts, stops and tracks jobs. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	reporter StatusReporter
}

// NewManager creates a Manager. The reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

func (m *Manager) report(msg string) {
	if m.reporter != nil {
		m.reporter(msg)
	}
}

// Start launches fn under the given name. It fails when a job with that
// name is already running. The job's context is derived from parent.
func (m *Manager) Start(parent context.Context, name string, fn JobFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job %q is already running", name)
	}

	ctx, cancel := context.WithCancel(parent)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j

	m.report("running:" + name)

	go func() {
		defer close(j.done)
		defer m.remove(name)

		if err := fn(ctx); err != nil && ctx.Err() == nil {
			m.report("error:" + name + ":" + err.Error())
			return
		}
		m.report("done:" + name)
	}()

	return nil
}

func (m *Manager) remove(name string) {
	m.mu.Lock()
	delete(m.jobs, name)
	m.mu.Unlock()
}

// Stop cancels the named job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no job named %q", name)
	}

	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job and waits for all of them to return.
func (m *Manager) StopAll() {
	m.mu.Lock()
	snapshot := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		snapshot = append(snapshot, j)
	}
	m.mu.Unlock()

	for _, j := range snapshot {
		j.cancel()
	}
	for _, j := range snapshot {
		<-j.done
	}
}

// Running returns the names of jobs currently running.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		names = append(names, name)
	}
	return names
}
