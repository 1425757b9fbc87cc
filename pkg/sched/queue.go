package sched

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/flame-hpc/flame2/pkg/task"
	"golang.org/x/sync/errgroup"
)

// terminateTaskName is the poison-pill name a worker recognizes as
// "stop, and wake one peer on your way out."
const terminateTaskName = "∞" // ∞

type terminateMarker struct{}

func (terminateMarker) Name() string    { return terminateTaskName }
func (terminateMarker) Kind() task.Kind { return "" }
func (terminateMarker) Run() error      { return nil }

var terminateTask task.Task = terminateMarker{}

// Callback is invoked once a dispatched task (or, for a splitting
// queue, all of its subtasks) has finished. err is the task's own
// error, or the first subtask error encountered.
type Callback func(name string, err error)

// Queue is the dispatch unit the Scheduler enqueues ready tasks onto.
// A Queue owns its worker goroutines; Start/Stop manage their
// lifecycle independently of any single RunIteration call so a pool
// can be reused across iterations.
type Queue interface {
	Enqueue(t task.Task)
	GetNextTask() task.Task
	TaskDone(name string, err error)
	SetCallback(cb Callback)
	Start(ctx context.Context)
	Stop()
	Health() QueueHealth
}

// QueueHealth is a point-in-time snapshot for introspection.
type QueueHealth struct {
	Slots  int
	Depth  int
	Active int32
	Name   string
}

// FIFOQueue is a bounded channel fronting a fixed pool of worker
// goroutines, each running the generic dequeue/run/report loop. The
// pool's lifecycle is managed by an errgroup.Group: Start launches
// slots workers, Stop posts one poison pill and waits on the group.
type FIFOQueue struct {
	name   string
	ch     chan task.Task
	slots  int
	cb     Callback
	group  *errgroup.Group
	active int32
}

// NewFIFOQueue returns a queue with slots worker goroutines, started
// by a subsequent call to Start.
func NewFIFOQueue(name string, slots int) *FIFOQueue {
	return &FIFOQueue{name: name, ch: make(chan task.Task, 4096), slots: slots}
}

func (q *FIFOQueue) SetCallback(cb Callback) { q.cb = cb }

func (q *FIFOQueue) Enqueue(t task.Task) { q.ch <- t }

func (q *FIFOQueue) GetNextTask() task.Task { return <-q.ch }

func (q *FIFOQueue) TaskDone(name string, err error) {
	if q.cb != nil {
		q.cb(name, err)
	}
}

// Start spawns the worker pool. Safe to call once per queue lifetime.
func (q *FIFOQueue) Start(ctx context.Context) {
	log := slog.With("queue", q.name)
	log.Info("starting queue workers", "slots", q.slots)
	group, gctx := errgroup.WithContext(ctx)
	q.group = group
	for i := 0; i < q.slots; i++ {
		id := i
		group.Go(func() error {
			q.worker(gctx, id, log)
			return nil
		})
	}
}

func (q *FIFOQueue) worker(ctx context.Context, id int, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.ch:
			if t.Name() == terminateTaskName {
				q.ch <- terminateTask // wake one more peer
				return
			}
			atomic.AddInt32(&q.active, 1)
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("task %s panicked: %v", t.Name(), r)
					}
				}()
				return t.Run()
			}()
			atomic.AddInt32(&q.active, -1)
			if err != nil {
				log.Error("task failed", "worker", id, "task", t.Name(), "error", err)
			}
			q.TaskDone(t.Name(), err)
		}
	}
}

// Stop posts one poison pill and waits for every worker to exit. It is
// not safe to call concurrently with Start.
func (q *FIFOQueue) Stop() {
	q.ch <- terminateTask
	if q.group != nil {
		_ = q.group.Wait()
	}
}

func (q *FIFOQueue) Health() QueueHealth {
	return QueueHealth{
		Name:   q.name,
		Slots:  q.slots,
		Depth:  len(q.ch),
		Active: atomic.LoadInt32(&q.active),
	}
}
