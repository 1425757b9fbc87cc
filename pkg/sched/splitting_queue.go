package sched

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/flame-hpc/flame2/pkg/task"
)

// SplittingQueue wraps a FIFOQueue: on Enqueue it asks the router
// whether the task's kind is splittable and, if so, partitions it via
// task.Split and fans the subtasks into the inner queue. Subtasks of
// one split share their parent's Name, so the queue coalesces their
// individual completions into a single Callback invocation reporting
// the first subtask error (if any) once every subtask has finished.
type SplittingQueue struct {
	inner  *FIFOQueue
	router *Router

	mu       sync.Mutex
	pending  map[string]int
	firstErr map[string]error

	cb Callback
}

// NewSplittingQueue returns a splitting queue with slots worker
// goroutines, tuned via router.
func NewSplittingQueue(name string, slots int, router *Router) *SplittingQueue {
	sq := &SplittingQueue{
		inner:    NewFIFOQueue(name, slots),
		router:   router,
		pending:  make(map[string]int),
		firstErr: make(map[string]error),
	}
	sq.inner.SetCallback(sq.handleSubtaskDone)
	return sq
}

func (sq *SplittingQueue) SetCallback(cb Callback) { sq.cb = cb }

// Enqueue splits agent tasks of a splittable kind into row-range
// subtasks and enqueues each; everything else (board tasks, agent
// tasks of a non-splittable kind, or a kind the splitter declines to
// split) is enqueued as-is.
func (sq *SplittingQueue) Enqueue(t task.Task) {
	at, ok := t.(*task.AgentTask)
	if !ok || !sq.router.IsSplittable(t.Kind()) {
		sq.inner.Enqueue(t)
		return
	}

	maxSubtasks, minVectorSize := sq.router.SplitParams(t.Kind())
	subtasks, err := task.Split(at, maxSubtasks, minVectorSize)
	if err != nil {
		if sq.cb != nil {
			sq.cb(t.Name(), err)
		}
		return
	}
	if subtasks == nil {
		sq.inner.Enqueue(t)
		return
	}

	sq.mu.Lock()
	sq.pending[t.Name()] = len(subtasks)
	sq.mu.Unlock()

	log := slog.With("queue", sq.inner.name, "task", t.Name())
	for _, s := range subtasks {
		log.Info("split subtask enqueued", "subtask_id", uuid.NewString())
		sq.inner.Enqueue(s)
	}
}

func (sq *SplittingQueue) handleSubtaskDone(name string, err error) {
	sq.mu.Lock()
	if err != nil {
		if _, have := sq.firstErr[name]; !have {
			sq.firstErr[name] = err
		}
	}
	sq.pending[name]--
	done := sq.pending[name] <= 0
	var finalErr error
	if done {
		finalErr = sq.firstErr[name]
		delete(sq.pending, name)
		delete(sq.firstErr, name)
	}
	sq.mu.Unlock()

	if done && sq.cb != nil {
		sq.cb(name, finalErr)
	}
}

func (sq *SplittingQueue) GetNextTask() task.Task           { return sq.inner.GetNextTask() }
func (sq *SplittingQueue) TaskDone(name string, err error)  { sq.inner.TaskDone(name, err) }
func (sq *SplittingQueue) Start(ctx context.Context)        { sq.inner.Start(ctx) }
func (sq *SplittingQueue) Stop()                            { sq.inner.Stop() }
func (sq *SplittingQueue) Health() QueueHealth              { return sq.inner.Health() }
