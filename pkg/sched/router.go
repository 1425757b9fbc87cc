package sched

import (
	"sync"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/task"
)

// Router maps task kinds to queue ids and holds the per-kind splitting
// tuning (SetSplittable / SetMinVectorSize / SetMaxTasksPerSplit). A
// kind routes to exactly one queue; a queue may serve many kinds.
type Router struct {
	mu            sync.RWMutex
	queueOf       map[task.Kind]int
	splittable    map[task.Kind]bool
	minVectorSize map[task.Kind]int
	maxSubtasks   map[task.Kind]int
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{
		queueOf:       make(map[task.Kind]int),
		splittable:    make(map[task.Kind]bool),
		minVectorSize: make(map[task.Kind]int),
		maxSubtasks:   make(map[task.Kind]int),
	}
}

// AssignType routes every task of kind to queueID.
func (r *Router) AssignType(queueID int, kind task.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueOf[kind] = queueID
}

// SetSplittable marks kind as eligible for row-range splitting.
func (r *Router) SetSplittable(kind task.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.splittable[kind] = true
}

// SetMinVectorSize sets the minimum per-subtask row count for kind.
func (r *Router) SetMinVectorSize(kind task.Kind, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.minVectorSize[kind] = n
}

// SetMaxTasksPerSplit caps how many subtasks a split of kind may produce.
func (r *Router) SetMaxTasksPerSplit(kind task.Kind, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxSubtasks[kind] = n
}

// QueueFor returns the queue id assigned to kind, or a logic-error if
// none was assigned.
func (r *Router) QueueFor(kind task.Kind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.queueOf[kind]
	if !ok {
		return 0, ferrors.New(ferrors.ErrLogic, "task kind %q has no assigned queue", kind)
	}
	return id, nil
}

// IsSplittable reports whether kind was marked splittable.
func (r *Router) IsSplittable(kind task.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.splittable[kind]
}

// SplitParams returns the (maxSubtasks, minVectorSize) tuning for kind,
// defaulting each to 1 when unset so an unconfigured splittable kind
// degenerates to "never splits" rather than panicking.
func (r *Router) SplitParams(kind task.Kind) (maxSubtasks, minVectorSize int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	maxSubtasks = r.maxSubtasks[kind]
	minVectorSize = r.minVectorSize[kind]
	if maxSubtasks == 0 {
		maxSubtasks = 1
	}
	if minVectorSize == 0 {
		minVectorSize = 1
	}
	return maxSubtasks, minVectorSize
}
