// Package task implements the agent-transition and message-board task
// types, their access-control lists, the balanced task splitter, and
// the in-function user-API facade (Context) bound to one agent row.
package task

import (
	"fmt"

	"github.com/flame-hpc/flame2/pkg/board"
	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/flame-hpc/flame2/pkg/memory"
)

// Kind groups tasks for queue routing and split-tuning purposes
// (sched.Router.AssignType, SetSplittable, SetMinVectorSize,
// SetMaxTasksPerSplit all key off Kind, not Name).
type Kind string

// Status is the return value of a TransitionFunc: it governs whether
// the agent row survives to the next iteration.
type Status int

const (
	Alive Status = iota
	Dead
)

// TransitionFunc is user-written model code bound to one agent row via
// a *Context.
type TransitionFunc func(ctx *Context) (Status, error)

// Task is the common interface the scheduler drives: agent transition
// tasks and message-board tasks both implement it.
type Task interface {
	Name() string
	Kind() Kind
	Run() error
}

// AgentTask runs a transition function over an agent population (or a
// contiguous subrange of it, when split).
type AgentTask struct {
	name      string
	kind      Kind
	agentName string
	fn        TransitionFunc
	shadow    *memory.Shadow
	boards    *board.Manager

	readMsgs map[string]struct{}
	postMsgs map[string]struct{}

	isSplit bool
	offset  int
	count   int
}

// NewAgentTask creates an agent transition task with no ACLs granted
// yet; call AllowAccess/AllowMessagePost/AllowMessageRead before
// running it.
func NewAgentTask(name string, kind Kind, agentName string, shadow *memory.Shadow, fn TransitionFunc, boards *board.Manager) *AgentTask {
	return &AgentTask{
		name:      name,
		kind:      kind,
		agentName: agentName,
		fn:        fn,
		shadow:    shadow,
		boards:    boards,
		readMsgs:  make(map[string]struct{}),
		postMsgs:  make(map[string]struct{}),
	}
}

func (t *AgentTask) Name() string     { return t.name }
func (t *AgentTask) Kind() Kind       { return t.kind }
func (t *AgentTask) AgentName() string { return t.agentName }

// Shadow exposes the task's memory shadow, used by the splitter and by
// tests asserting on granted access.
func (t *AgentTask) Shadow() *memory.Shadow { return t.shadow }

// AllowAccess grants the underlying shadow read (and optionally write)
// access to an agent variable. See memory.Shadow.AllowAccess for the
// exact error conditions.
func (t *AgentTask) AllowAccess(varName string, writable bool) error {
	return t.shadow.AllowAccess(varName, writable)
}

// AllowMessagePost grants this task permission to post to boardName. A
// board already granted for read (or post) on this task is an
// invalid-operation, and an unregistered board name is invalid-argument.
func (t *AgentTask) AllowMessagePost(boardName string) error {
	if !t.boards.Has(boardName) {
		return ferrors.New(ferrors.ErrInvalidArgument, "unknown board %q", boardName)
	}
	if _, already := t.readMsgs[boardName]; already {
		return ferrors.New(ferrors.ErrInvalidOperation, "board %q already granted for read on task %q", boardName, t.name)
	}
	if _, already := t.postMsgs[boardName]; already {
		return ferrors.New(ferrors.ErrInvalidOperation, "board %q already granted for post on task %q", boardName, t.name)
	}
	t.postMsgs[boardName] = struct{}{}
	return nil
}

// AllowMessageRead grants this task permission to read boardName. A
// board already granted for post (or read) on this task is an
// invalid-operation, and an unregistered board name is invalid-argument.
func (t *AgentTask) AllowMessageRead(boardName string) error {
	if !t.boards.Has(boardName) {
		return ferrors.New(ferrors.ErrInvalidArgument, "unknown board %q", boardName)
	}
	if _, already := t.postMsgs[boardName]; already {
		return ferrors.New(ferrors.ErrInvalidOperation, "board %q already granted for post on task %q", boardName, t.name)
	}
	if _, already := t.readMsgs[boardName]; already {
		return ferrors.New(ferrors.ErrInvalidOperation, "board %q already granted for read on task %q", boardName, t.name)
	}
	t.readMsgs[boardName] = struct{}{}
	return nil
}

// PopulationSize returns the task's agent population size, used by the
// splitter to decide whether and how to split this task.
func (t *AgentTask) PopulationSize() (int, error) {
	return t.shadow.Agent().PopulationSize()
}

// Run iterates the task's row range (the full population, or a split
// subrange), invoking fn once per row via a fresh Context, and marks
// DEAD rows on the underlying agent memory without compacting them.
func (t *AgentTask) Run() error {
	var it *memory.Iterator
	var err error
	if t.isSplit {
		it, err = t.shadow.NewIteratorRange(t.offset, t.count)
	} else {
		it, err = t.shadow.NewIterator()
	}
	if err != nil {
		return fmt.Errorf("agent task %s: %w", t.name, err)
	}

	client := &messageClient{task: t, boards: t.boards, writers: make(map[string]any)}

	for !it.AtEnd() {
		ctx := &Context{it: it, client: client}
		status, ferr := t.fn(ctx)
		if ferr != nil {
			return fmt.Errorf("agent task %s: row %d: %w", t.name, it.Index(), ferr)
		}
		if status == Dead {
			t.shadow.Agent().MarkDead(it.Index())
		}
		it.Step()
	}
	return nil
}

// cloneSplit produces a subtask sharing this task's shadow, function
// and ACLs but covering [offset, offset+count) in isolation. Used
// exclusively by Split.
func (t *AgentTask) cloneSplit(offset, count int) *AgentTask {
	return &AgentTask{
		name:      t.name,
		kind:      t.kind,
		agentName: t.agentName,
		fn:        t.fn,
		shadow:    t.shadow,
		boards:    t.boards,
		readMsgs:  t.readMsgs,
		postMsgs:  t.postMsgs,
		isSplit:   true,
		offset:    offset,
		count:     count,
	}
}

// IsSplit reports whether this is a subtask produced by the splitter.
func (t *AgentTask) IsSplit() bool { return t.isSplit }

// Range returns the subtask's row range; only meaningful when IsSplit.
func (t *AgentTask) Range() (offset, count int) { return t.offset, t.count }
