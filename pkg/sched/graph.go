// Package sched implements the task manager's dependency graph, the
// queue routing map, FIFO/splitting task queues backed by worker
// goroutine pools, and the per-iteration scheduler that releases
// dependents as their predecessors complete.
package sched

import (
	"sync"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/task"
)

// TaskManager owns every registered task, keyed by name, plus the
// inter-task dependency multigraph: edge u->v means "v may not begin
// until u has completed in this iteration." It is built once during
// model assembly and read concurrently at runtime.
type TaskManager struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
	order []string

	// preds[v] is the set of tasks that must finish before v starts.
	preds map[string]map[string]struct{}
	// succs[u] is the set of tasks waiting on u.
	succs map[string]map[string]struct{}
}

// NewTaskManager returns an empty task manager.
func NewTaskManager() *TaskManager {
	return &TaskManager{
		tasks: make(map[string]task.Task),
		preds: make(map[string]map[string]struct{}),
		succs: make(map[string]map[string]struct{}),
	}
}

// Add registers a task. Registering the same task name twice is a
// logic-error.
func (tm *TaskManager) Add(t task.Task) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, exists := tm.tasks[t.Name()]; exists {
		return ferrors.New(ferrors.ErrLogic, "task %q already registered", t.Name())
	}
	tm.tasks[t.Name()] = t
	tm.order = append(tm.order, t.Name())
	tm.preds[t.Name()] = make(map[string]struct{})
	tm.succs[t.Name()] = make(map[string]struct{})
	return nil
}

// AddDependency records that successor may not start until predecessor
// completes. Unknown task names raise invalid-argument; introducing a
// cycle raises a logic-error and leaves the graph unchanged.
func (tm *TaskManager) AddDependency(successor, predecessor string) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if _, ok := tm.tasks[successor]; !ok {
		return ferrors.New(ferrors.ErrInvalidArgument, "unknown task %q", successor)
	}
	if _, ok := tm.tasks[predecessor]; !ok {
		return ferrors.New(ferrors.ErrInvalidArgument, "unknown task %q", predecessor)
	}
	if successor == predecessor {
		return ferrors.New(ferrors.ErrLogic, "task %q cannot depend on itself", successor)
	}

	tm.preds[successor][predecessor] = struct{}{}
	tm.succs[predecessor][successor] = struct{}{}

	if tm.hasCycleLocked() {
		delete(tm.preds[successor], predecessor)
		delete(tm.succs[predecessor], successor)
		return ferrors.New(ferrors.ErrLogic, "dependency %s<-%s introduces a cycle", successor, predecessor)
	}
	return nil
}

func (tm *TaskManager) hasCycleLocked() bool {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(tm.order))
	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		for succ := range tm.succs[name] {
			switch color[succ] {
			case gray:
				return true
			case white:
				if visit(succ) {
					return true
				}
			}
		}
		color[name] = black
		return false
	}
	for _, name := range tm.order {
		if color[name] == white {
			if visit(name) {
				return true
			}
		}
	}
	return false
}

// Get returns the task registered under name.
func (tm *TaskManager) Get(name string) (task.Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.tasks[name]
	return t, ok
}

// Names returns every registered task name in registration order.
func (tm *TaskManager) Names() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	out := make([]string, len(tm.order))
	copy(out, tm.order)
	return out
}

// Indegree returns the number of predecessors of name.
func (tm *TaskManager) Indegree(name string) int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.preds[name])
}

// Successors returns the tasks waiting on name.
func (tm *TaskManager) Successors(name string) []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	out := make([]string, 0, len(tm.succs[name]))
	for s := range tm.succs[name] {
		out = append(out, s)
	}
	return out
}

// TopologicalOrder returns one valid topological iteration plan over
// the dependency graph. It is exposed for introspection/logging and
// tests; RunIteration itself drives execution via indegree counters,
// not this plan.
func (tm *TaskManager) TopologicalOrder() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	indeg := make(map[string]int, len(tm.order))
	for _, n := range tm.order {
		indeg[n] = len(tm.preds[n])
	}
	var queue []string
	for _, n := range tm.order {
		if indeg[n] == 0 {
			queue = append(queue, n)
		}
	}
	var plan []string
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		plan = append(plan, n)
		for s := range tm.succs[n] {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	return plan
}
