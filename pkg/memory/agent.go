// Package memory implements the columnar agent-memory store: typed
// vectors keyed by variable name, capability-restricted shadow views
// over a subset of those variables, and row-range iterators used by
// agent transition tasks.
package memory

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/flame-hpc/flame2/pkg/ferrors"
)

// AgentMemory is the per-agent-type map from variable name to typed
// vector. Variables may be registered only while registration is open;
// HintPopulation closes registration permanently for the lifetime of
// this value.
type AgentMemory struct {
	name string

	mu                 sync.RWMutex
	columns            map[string]Column
	registrationClosed bool
	debugMode          bool
	deadRows           map[int]struct{}
}

// New creates an empty agent memory store for the named agent type.
// debugMode enables the internal-consistency check described in
// PopulationSize.
func New(name string, debugMode bool) *AgentMemory {
	return &AgentMemory{
		name:      name,
		columns:   make(map[string]Column),
		debugMode: debugMode,
		deadRows:  make(map[int]struct{}),
	}
}

// Name returns the agent type name.
func (a *AgentMemory) Name() string { return a.name }

// RegisterVar registers a new variable of type T. Registering twice, or
// registering after HintPopulation has closed registration, is a
// logic-error.
func RegisterVar[T any](a *AgentMemory, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.registrationClosed {
		return ferrors.New(ferrors.ErrLogic,
			"agent %s: cannot register var %q after HintPopulation", a.name, name)
	}
	if _, exists := a.columns[name]; exists {
		return ferrors.New(ferrors.ErrLogic,
			"agent %s: variable %q already registered", a.name, name)
	}
	a.columns[name] = NewVector[T]()
	return nil
}

// HintPopulation closes registration and reserves n elements on every
// column. Further RegisterVar calls after this raise a logic-error.
func (a *AgentMemory) HintPopulation(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.registrationClosed = true
	for _, col := range a.columns {
		col.Reserve(n)
	}
}

// RegistrationClosed reports whether HintPopulation has been called.
func (a *AgentMemory) RegistrationClosed() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.registrationClosed
}

// HasVar reports whether name was registered.
func (a *AgentMemory) HasVar(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.columns[name]
	return ok
}

// GetVector returns the typed vector registered under name. A missing
// name raises unknown-variable; a type mismatch between T and the
// registered element type raises type-mismatch.
func GetVector[T any](a *AgentMemory, name string) (*Vector[T], error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	col, ok := a.columns[name]
	if !ok {
		return nil, ferrors.New(ferrors.ErrUnknownVariable, "agent %s: variable %q", a.name, name)
	}
	vec, ok := col.(*Vector[T])
	if !ok {
		return nil, ferrors.New(ferrors.ErrTypeMismatch,
			"agent %s: variable %q is %s, not requested type", a.name, name, col.TypeName())
	}
	return vec, nil
}

// PopulationSize returns the common length of every column. In debug
// mode it also verifies every column shares that length, raising
// internal-consistency on the first mismatch found.
func (a *AgentMemory) PopulationSize() (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.populationSizeLocked()
}

func (a *AgentMemory) populationSizeLocked() (int, error) {
	size := -1
	for name, col := range a.columns {
		if size == -1 {
			size = col.Len()
			if !a.debugMode {
				break
			}
			continue
		}
		if a.debugMode && col.Len() != size {
			return 0, ferrors.New(ferrors.ErrInternalConsistency,
				"agent %s: column %q has length %d, expected %d", a.name, name, col.Len(), size)
		}
	}
	if size == -1 {
		size = 0
	}
	return size, nil
}

// MarkDead records that row idx should be removed at the next
// CompactDeadRows call. Per spec §4.3/§9, a DEAD return marks a row for
// later deletion; compaction never happens mid-iteration.
func (a *AgentMemory) MarkDead(idx int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deadRows[idx] = struct{}{}
}

// HasPendingDeadRows reports whether any row is queued for compaction.
func (a *AgentMemory) HasPendingDeadRows() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.deadRows) > 0
}

// CompactDeadRows removes every row marked dead since the last call,
// across every column. It must only be invoked between iterations,
// never while a task's iterator is live.
func (a *AgentMemory) CompactDeadRows() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.deadRows) == 0 {
		return
	}
	indices := make([]int, 0, len(a.deadRows))
	for idx := range a.deadRows {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, col := range a.columns {
		col.removeIndices(indices)
	}
	slog.Info("compacted dead agent rows", "agent", a.name, "removed", len(indices))
	a.deadRows = make(map[int]struct{})
}
