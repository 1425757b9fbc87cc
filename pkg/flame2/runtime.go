// Package flame2 is the top-level facade gluing the agent-memory
// store, message boards, task graph and scheduler together behind the
// driver-facing API: register agents/variables/messages, build tasks
// with their ACLs and dependencies, configure queues and split tuning,
// then call RunIteration repeatedly.
package flame2

import (
	"context"
	"sync"

	"github.com/flame-hpc/flame2/pkg/board"
	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/memory"
	"github.com/flame-hpc/flame2/pkg/sched"
	"github.com/flame-hpc/flame2/pkg/task"
)

// Runtime bundles one simulation's agent stores, board registry, task
// graph and scheduler. Nothing here is package-level state; callers
// construct as many independent Runtimes as they need.
type Runtime struct {
	mu        sync.Mutex
	debugMode bool

	agents map[string]*memory.AgentMemory
	boards *board.Manager
	tasks  *sched.TaskManager
	router *sched.Router
	sched  *sched.Scheduler

	started bool
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithDebugMode toggles the agent-memory internal-consistency checks
// described in memory.AgentMemory.PopulationSize.
func WithDebugMode(enabled bool) Option {
	return func(rt *Runtime) { rt.debugMode = enabled }
}

// NewRuntime assembles an empty Runtime ready for registration calls.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		agents: make(map[string]*memory.AgentMemory),
		boards: board.NewManager(),
		tasks:  sched.NewTaskManager(),
		router: sched.NewRouter(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	rt.sched = sched.NewScheduler(rt.tasks, rt.router)
	return rt
}

// RegisterAgent creates an empty agent-memory store named name.
// Registering the same name twice is a logic-error.
func (rt *Runtime) RegisterAgent(name string) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if _, exists := rt.agents[name]; exists {
		return ferrors.New(ferrors.ErrLogic, "agent %q already registered", name)
	}
	rt.agents[name] = memory.New(name, rt.debugMode)
	return nil
}

func (rt *Runtime) agent(name string) (*memory.AgentMemory, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	a, ok := rt.agents[name]
	if !ok {
		return nil, ferrors.New(ferrors.ErrUnknownVariable, "agent %q not registered", name)
	}
	return a, nil
}

// RegisterAgentVar registers variable name of type T on agentName.
func RegisterAgentVar[T any](rt *Runtime, agentName, name string) error {
	a, err := rt.agent(agentName)
	if err != nil {
		return err
	}
	return memory.RegisterVar[T](a, name)
}

// HintPopulationSize closes registration on agentName and reserves n
// elements on every one of its columns.
func (rt *Runtime) HintPopulationSize(agentName string, n int) error {
	a, err := rt.agent(agentName)
	if err != nil {
		return err
	}
	a.HintPopulation(n)
	return nil
}

// GetVector returns agentName's typed column named name, the seam an
// external population-IO layer appends rows into.
func GetVector[T any](rt *Runtime, agentName, name string) (*memory.Vector[T], error) {
	a, err := rt.agent(agentName)
	if err != nil {
		return nil, err
	}
	return memory.GetVector[T](a, name)
}

// RegisterMessage creates a new message board of element type T named
// name. Registering the same name twice is a logic-error.
func RegisterMessage[T any](rt *Runtime, name string) (*board.Board[T], error) {
	return board.Register[T](rt.boards, name)
}

// CreateAgentTask builds an agent transition task over agentName with
// no ACLs granted; call AllowAccess/AllowMessagePost/AllowMessageRead
// on the returned handle, then register it with the runtime's task
// graph via AddDependency as needed.
func (rt *Runtime) CreateAgentTask(name string, kind task.Kind, agentName string, fn task.TransitionFunc) (*task.AgentTask, error) {
	a, err := rt.agent(agentName)
	if err != nil {
		return nil, err
	}
	shadow := memory.NewShadow(a)
	t := task.NewAgentTask(name, kind, agentName, shadow, fn, rt.boards)
	if err := rt.tasks.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateMessageBoardTask builds a SYNC/CLEAR task over boardName.
func (rt *Runtime) CreateMessageBoardTask(name string, kind task.Kind, boardName string, op task.Op) (*task.BoardTask, error) {
	if !rt.boards.Has(boardName) {
		return nil, ferrors.New(ferrors.ErrInvalidArgument, "unknown board %q", boardName)
	}
	t := task.NewBoardTask(name, kind, boardName, op, rt.boards)
	if err := rt.tasks.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// AddDependency records that successor may not start until predecessor
// completes.
func (rt *Runtime) AddDependency(successor, predecessor string) error {
	return rt.tasks.AddDependency(successor, predecessor)
}

// CreateQueue registers a plain FIFO queue under id with slots workers.
func (rt *Runtime) CreateQueue(id, slots int) error {
	return rt.sched.CreateQueue(id, slots)
}

// CreateSplittingQueue registers a row-splitting queue under id with
// slots workers.
func (rt *Runtime) CreateSplittingQueue(id, slots int) error {
	return rt.sched.CreateSplittingQueue(id, slots)
}

// AssignType routes every task of kind to queue id.
func (rt *Runtime) AssignType(id int, kind task.Kind) { rt.router.AssignType(id, kind) }

// SetSplittable marks kind as eligible for row-range splitting.
func (rt *Runtime) SetSplittable(kind task.Kind) { rt.router.SetSplittable(kind) }

// SetMinVectorSize sets the minimum per-subtask row count for kind.
func (rt *Runtime) SetMinVectorSize(kind task.Kind, n int) { rt.router.SetMinVectorSize(kind, n) }

// SetMaxTasksPerSplit caps how many subtasks a split of kind may produce.
func (rt *Runtime) SetMaxTasksPerSplit(kind task.Kind, n int) {
	rt.router.SetMaxTasksPerSplit(kind, n)
}

// Start launches every registered queue's worker pool. Idempotent
// across repeated calls is the caller's responsibility; queues persist
// across RunIteration calls until Stop.
func (rt *Runtime) Start(ctx context.Context) {
	rt.mu.Lock()
	rt.started = true
	rt.mu.Unlock()
	rt.sched.Start(ctx)
}

// Stop gracefully drains and halts every queue's worker pool.
func (rt *Runtime) Stop() {
	rt.sched.Stop()
}

// RunIteration compacts DEAD rows left over from the previous
// iteration, then drives one full pass over the dependency graph. The
// first call implicitly starts the scheduler's queues if Start was
// never called.
func (rt *Runtime) RunIteration(ctx context.Context) error {
	rt.mu.Lock()
	started := rt.started
	rt.started = true
	rt.mu.Unlock()
	if !started {
		rt.sched.Start(ctx)
	}

	rt.compactDeadRows()
	return rt.sched.RunIteration(ctx)
}

func (rt *Runtime) compactDeadRows() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, a := range rt.agents {
		if a.HasPendingDeadRows() {
			a.CompactDeadRows()
		}
	}
}

// Health reports a point-in-time snapshot of every registered queue,
// for an introspection endpoint to render.
func (rt *Runtime) Health() []sched.QueueHealth {
	return rt.sched.Health()
}

// Boards exposes the board registry for code that needs a board
// handle directly (e.g. the example driver or introspection surface).
func (rt *Runtime) Boards() *board.Manager { return rt.boards }

// Tasks exposes the task manager, e.g. for TopologicalOrder logging.
func (rt *Runtime) Tasks() *sched.TaskManager { return rt.tasks }
