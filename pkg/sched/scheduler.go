package sched

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/task"
)

// Scheduler drives one RunIteration at a time over a TaskManager's
// dependency graph: tasks with no unfinished predecessor are
// dispatched immediately; as each completion is reported, its
// successors' pending-predecessor counters are decremented, and any
// that reach zero are dispatched in turn. Queues and their worker
// pools persist across iterations; only Start/Stop manage their
// lifecycle.
type Scheduler struct {
	tm     *TaskManager
	router *Router

	mu     sync.Mutex
	queues map[int]Queue

	runMu     sync.Mutex
	pendingIn map[string]int
	doneCh    chan doneEvent
}

type doneEvent struct {
	name string
	err  error
}

// NewScheduler binds a scheduler to a task manager and router. Both
// must be fully populated (all tasks added, all dependencies wired,
// all kinds routed) before the first RunIteration.
func NewScheduler(tm *TaskManager, router *Router) *Scheduler {
	return &Scheduler{tm: tm, router: router, queues: make(map[int]Queue)}
}

// CreateQueue registers a plain FIFO queue under id.
func (s *Scheduler) CreateQueue(id int, slots int) error {
	return s.addQueue(id, NewFIFOQueue(queueLabel(id), slots))
}

// CreateSplittingQueue registers a row-splitting queue under id.
func (s *Scheduler) CreateSplittingQueue(id int, slots int) error {
	return s.addQueue(id, NewSplittingQueue(queueLabel(id), slots, s.router))
}

func queueLabel(id int) string {
	return "queue-" + strconv.Itoa(id)
}

func (s *Scheduler) addQueue(id int, q Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.queues[id]; exists {
		return ferrors.New(ferrors.ErrLogic, "queue id %d already registered", id)
	}
	q.SetCallback(func(name string, err error) {
		s.runMu.Lock()
		ch := s.doneCh
		s.runMu.Unlock()
		if ch != nil {
			ch <- doneEvent{name: name, err: err}
		}
	})
	s.queues[id] = q
	return nil
}

// Start launches every registered queue's worker pool.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		q.Start(ctx)
	}
}

// Stop gracefully drains and halts every queue's worker pool.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		q.Stop()
	}
}

// RunIteration drives one full pass over every registered task,
// releasing each as its predecessors complete, and returns the first
// error reported by any task (if any). A task failure aborts the
// iteration at the next drain: tasks already dispatched run to
// completion, but no task still waiting on its predecessors is
// released afterward. Every task is still settled exactly once — a
// task skipped this way is never run, only counted, so RunIteration
// always returns once every branch has either completed or been
// skipped.
func (s *Scheduler) RunIteration(ctx context.Context) error {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	log.Info("iteration starting")
	defer func() { log.Info("iteration finished") }()

	names := s.tm.Names()
	pendingIn := make(map[string]int, len(names))
	ready := make([]string, 0, len(names))
	for _, n := range names {
		indeg := s.tm.Indegree(n)
		pendingIn[n] = indeg
		if indeg == 0 {
			ready = append(ready, n)
		}
	}

	s.runMu.Lock()
	s.pendingIn = pendingIn
	s.doneCh = make(chan doneEvent, len(names)+1)
	doneCh := s.doneCh
	s.runMu.Unlock()

	var firstErr error
	aborted := false
	remaining := len(names)

	var dispatchOrSkip func(name string)

	// settle accounts for name's completion (run to completion, failed
	// to dispatch, or skipped after an abort) and releases any
	// successor whose last pending predecessor this was.
	settle := func(name string, err error) {
		remaining--
		if err != nil && firstErr == nil {
			firstErr = err
			aborted = true
		}
		for _, succ := range s.tm.Successors(name) {
			s.runMu.Lock()
			s.pendingIn[succ]--
			becameReady := s.pendingIn[succ] == 0
			s.runMu.Unlock()
			if becameReady {
				dispatchOrSkip(succ)
			}
		}
	}

	dispatchOrSkip = func(name string) {
		if aborted {
			log.Warn("skipping task after iteration abort", "task", name)
			settle(name, nil)
			return
		}
		if err := s.dispatch(name); err != nil {
			log.Error("dispatch failed", "task", name, "error", err)
			settle(name, err)
		}
	}

	for _, n := range ready {
		dispatchOrSkip(n)
	}

	for remaining > 0 {
		ev := <-doneCh
		events := []doneEvent{ev}
	drain:
		for {
			select {
			case e := <-doneCh:
				events = append(events, e)
			default:
				break drain
			}
		}

		for _, e := range events {
			settle(e.name, e.err)
		}
	}

	s.runMu.Lock()
	s.doneCh = nil
	s.runMu.Unlock()
	return firstErr
}

func (s *Scheduler) dispatch(name string) error {
	t, ok := s.tm.Get(name)
	if !ok {
		return ferrors.New(ferrors.ErrLogic, "task %q not found in task manager", name)
	}
	qid, err := s.router.QueueFor(t.Kind())
	if err != nil {
		return err
	}
	s.mu.Lock()
	q, ok := s.queues[qid]
	s.mu.Unlock()
	if !ok {
		return ferrors.New(ferrors.ErrLogic, "queue %d not registered", qid)
	}
	q.Enqueue(t)
	return nil
}

// Health reports a point-in-time snapshot of every registered queue,
// for introspection endpoints.
func (s *Scheduler) Health() []QueueHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]QueueHealth, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, q.Health())
	}
	return out
}
