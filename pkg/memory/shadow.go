package memory

import "github.com/flame-hpc/flame2/pkg/ferrors"

// Shadow is a capability-restricted view over a subset of an agent's
// variables. It never owns vectors; it is a permissions filter used by
// exactly one task. Writable is always a subset of readable.
type Shadow struct {
	agent    *AgentMemory
	readable map[string]struct{}
	writable map[string]struct{}
}

// NewShadow creates an empty shadow over agent; no variables are
// accessible until AllowAccess is called.
func NewShadow(agent *AgentMemory) *Shadow {
	return &Shadow{
		agent:    agent,
		readable: make(map[string]struct{}),
		writable: make(map[string]struct{}),
	}
}

// Agent returns the underlying agent memory this shadow filters.
func (s *Shadow) Agent() *AgentMemory { return s.agent }

// AllowAccess grants read (and, if writable, write) access to name.
// Unknown variable names raise unknown-variable; granting the same
// name twice raises a logic-error.
func (s *Shadow) AllowAccess(name string, writable bool) error {
	if !s.agent.HasVar(name) {
		return ferrors.New(ferrors.ErrUnknownVariable, "agent %s: variable %q", s.agent.name, name)
	}
	if _, already := s.readable[name]; already {
		return ferrors.New(ferrors.ErrLogic, "variable %q already granted on this shadow", name)
	}
	s.readable[name] = struct{}{}
	if writable {
		s.writable[name] = struct{}{}
	}
	return nil
}

// CanRead reports whether name is readable through this shadow.
func (s *Shadow) CanRead(name string) bool {
	_, ok := s.readable[name]
	return ok
}

// CanWrite reports whether name is writable through this shadow.
func (s *Shadow) CanWrite(name string) bool {
	_, ok := s.writable[name]
	return ok
}

// NewIterator returns an iterator over the full population.
func (s *Shadow) NewIterator() (*Iterator, error) {
	n, err := s.agent.PopulationSize()
	if err != nil {
		return nil, err
	}
	return s.NewIteratorRange(0, n)
}

// NewIteratorRange returns an iterator over [offset, offset+count).
// Negative offset/count, or a range exceeding the population size,
// raises invalid-argument.
func (s *Shadow) NewIteratorRange(offset, count int) (*Iterator, error) {
	popSize, err := s.agent.PopulationSize()
	if err != nil {
		return nil, err
	}
	if offset < 0 || count < 0 || offset+count > popSize {
		return nil, ferrors.New(ferrors.ErrInvalidArgument,
			"agent %s: range [%d,%d) out of bounds for population %d", s.agent.name, offset, offset+count, popSize)
	}
	return &Iterator{shadow: s, offset: offset, count: count}, nil
}
