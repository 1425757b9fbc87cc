package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/flame-hpc/flame2/pkg/board"
	"github.com/flame-hpc/flame2/pkg/memory"
	"github.com/flame-hpc/flame2/pkg/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCircle(t *testing.T, n int) *memory.Shadow {
	t.Helper()
	a := memory.New("Circle", false)
	require.NoError(t, memory.RegisterVar[int](a, "x"))
	a.HintPopulation(n)
	xVec, err := memory.GetVector[int](a, "x")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		xVec.Append(0)
	}
	shadow := memory.NewShadow(a)
	require.NoError(t, shadow.AllowAccess("x", true))
	return shadow
}

func incrementTask(name string, shadow *memory.Shadow, boards *board.Manager) *task.AgentTask {
	return task.NewAgentTask(name, "k", "Circle", shadow, func(ctx *task.Context) (task.Status, error) {
		v, err := task.GetMem[int](ctx, "x")
		if err != nil {
			return task.Alive, err
		}
		if err := task.SetMem[int](ctx, "x", v+1); err != nil {
			return task.Alive, err
		}
		return task.Alive, nil
	}, boards)
}

// TestRunIterationReleasesDependents builds a diamond t1 -> {t2, t3} -> t4
// over a one-row population (so each task's function is invoked once)
// and verifies every task ran exactly once, in an order respecting the
// dependency edges.
func TestRunIterationReleasesDependents(t *testing.T) {
	shadow := newCircle(t, 1)
	boards := board.NewManager()

	var mu sync.Mutex
	var order []string
	record := func(name string) task.TransitionFunc {
		return func(ctx *task.Context) (task.Status, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return task.Alive, nil
		}
	}

	tm := NewTaskManager()
	t1 := task.NewAgentTask("t1", "k", "Circle", shadow, record("t1"), boards)
	t2 := task.NewAgentTask("t2", "k", "Circle", shadow, record("t2"), boards)
	t3 := task.NewAgentTask("t3", "k", "Circle", shadow, record("t3"), boards)
	t4 := task.NewAgentTask("t4", "k", "Circle", shadow, record("t4"), boards)
	require.NoError(t, tm.Add(t1))
	require.NoError(t, tm.Add(t2))
	require.NoError(t, tm.Add(t3))
	require.NoError(t, tm.Add(t4))
	require.NoError(t, tm.AddDependency("t2", "t1"))
	require.NoError(t, tm.AddDependency("t3", "t1"))
	require.NoError(t, tm.AddDependency("t4", "t2"))
	require.NoError(t, tm.AddDependency("t4", "t3"))

	router := NewRouter()
	router.AssignType(0, "k")
	sched := NewScheduler(tm, router)
	require.NoError(t, sched.CreateQueue(0, 4))

	ctx := context.Background()
	sched.Start(ctx)
	defer sched.Stop()

	require.NoError(t, sched.RunIteration(ctx))

	require.Len(t, order, 4)
	assert.Equal(t, "t1", order[0])
	assert.Equal(t, "t4", order[3])
}

// TestRunIterationPropagatesTaskError verifies that an error returned by
// a task's transition function is surfaced from RunIteration.
func TestRunIterationPropagatesTaskError(t *testing.T) {
	shadow := newCircle(t, 3)
	boards := board.NewManager()

	tm := NewTaskManager()
	failing := task.NewAgentTask("bad", "k", "Circle", shadow, func(ctx *task.Context) (task.Status, error) {
		_, err := task.GetMem[float64](ctx, "x")
		return task.Alive, err
	}, boards)
	require.NoError(t, tm.Add(failing))

	router := NewRouter()
	router.AssignType(0, "k")
	sched := NewScheduler(tm, router)
	require.NoError(t, sched.CreateQueue(0, 1))

	ctx := context.Background()
	sched.Start(ctx)
	defer sched.Stop()

	err := sched.RunIteration(ctx)
	require.Error(t, err)
}

// TestRunIterationSkipsDependentsAfterFailure verifies the abort-at-next-
// drain behaviour: once a task fails, a task still waiting on it is
// never released, even though RunIteration still returns once every
// branch has settled.
func TestRunIterationSkipsDependentsAfterFailure(t *testing.T) {
	shadow := newCircle(t, 3)
	boards := board.NewManager()

	tm := NewTaskManager()
	failing := task.NewAgentTask("bad", "k", "Circle", shadow, func(ctx *task.Context) (task.Status, error) {
		_, err := task.GetMem[float64](ctx, "x")
		return task.Alive, err
	}, boards)

	var ran int32
	downstream := task.NewAgentTask("downstream", "k", "Circle", shadow, func(ctx *task.Context) (task.Status, error) {
		atomic.AddInt32(&ran, 1)
		return task.Alive, nil
	}, boards)

	require.NoError(t, tm.Add(failing))
	require.NoError(t, tm.Add(downstream))
	require.NoError(t, tm.AddDependency("downstream", "bad"))

	router := NewRouter()
	router.AssignType(0, "k")
	sched := NewScheduler(tm, router)
	require.NoError(t, sched.CreateQueue(0, 1))

	ctx := context.Background()
	sched.Start(ctx)
	defer sched.Stop()

	err := sched.RunIteration(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

// TestSplittingQueueCoalescesSubtaskCompletion verifies that a parent
// task split into several subtasks reports exactly one completion.
func TestSplittingQueueCoalescesSubtaskCompletion(t *testing.T) {
	shadow := newCircle(t, 100)
	boards := board.NewManager()

	tm := NewTaskManager()
	at := incrementTask("grow", shadow, boards)
	require.NoError(t, tm.Add(at))

	router := NewRouter()
	router.AssignType(0, "k")
	router.SetSplittable("k")
	router.SetMinVectorSize("k", 10)
	router.SetMaxTasksPerSplit("k", 4)
	sched := NewScheduler(tm, router)
	require.NoError(t, sched.CreateSplittingQueue(0, 4))

	ctx := context.Background()
	sched.Start(ctx)
	defer sched.Stop()

	require.NoError(t, sched.RunIteration(ctx))

	a := shadow.Agent()
	xVec, err := memory.GetVector[int](a, "x")
	require.NoError(t, err)
	for i := 0; i < xVec.Len(); i++ {
		assert.Equal(t, 1, xVec.At(i))
	}
}

func TestTaskManagerRejectsCycle(t *testing.T) {
	shadow := newCircle(t, 1)
	boards := board.NewManager()
	tm := NewTaskManager()
	a := task.NewAgentTask("a", "k", "Circle", shadow, nil, boards)
	b := task.NewAgentTask("b", "k", "Circle", shadow, nil, boards)
	require.NoError(t, tm.Add(a))
	require.NoError(t, tm.Add(b))
	require.NoError(t, tm.AddDependency("b", "a"))

	err := tm.AddDependency("a", "b")
	require.Error(t, err)
	assert.Equal(t, 1, tm.Indegree("b"))
	assert.Equal(t, 0, tm.Indegree("a"))
}

func TestTaskManagerDuplicateAndUnknown(t *testing.T) {
	shadow := newCircle(t, 1)
	boards := board.NewManager()
	tm := NewTaskManager()
	a := task.NewAgentTask("a", "k", "Circle", shadow, nil, boards)
	require.NoError(t, tm.Add(a))
	require.Error(t, tm.Add(a))

	err := tm.AddDependency("a", "missing")
	require.Error(t, err)
}
