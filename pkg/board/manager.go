package board

import (
	"sync"

	"github.com/flame-hpc/flame2/pkg/ferrors"
)

// Manager is the process-wide registry of message boards, keyed by
// name. Registration is single-threaded (model-assembly phase);
// runtime lookups are read-only, matching the init-then-serve
// lifecycle the scheduler and board tasks rely on.
type Manager struct {
	mu     sync.RWMutex
	boards map[string]Handle
}

// NewManager returns an empty board registry.
func NewManager() *Manager {
	return &Manager{boards: make(map[string]Handle)}
}

// Register creates and registers a new board of message type T under
// name. Registering the same name twice is a logic-error.
func Register[T any](m *Manager, name string) (*Board[T], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.boards[name]; exists {
		return nil, ferrors.New(ferrors.ErrLogic, "message board %q already registered", name)
	}
	b := New[T](name)
	m.boards[name] = b
	return b, nil
}

// Handle returns the type-erased handle registered under name.
func (m *Manager) Handle(name string) (Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.boards[name]
	if !ok {
		return nil, ferrors.New(ferrors.ErrUnknownBoard, "board %q", name)
	}
	return h, nil
}

// Has reports whether name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.boards[name]
	return ok
}

// Names returns every registered board name, for introspection.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.boards))
	for name := range m.boards {
		names = append(names, name)
	}
	return names
}

// Get returns the typed board registered under name. A missing name
// raises unknown-board; a type mismatch raises type-mismatch.
func Get[T any](m *Manager, name string) (*Board[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.boards[name]
	if !ok {
		return nil, ferrors.New(ferrors.ErrUnknownBoard, "board %q", name)
	}
	b, ok := h.(*Board[T])
	if !ok {
		return nil, ferrors.New(ferrors.ErrTypeMismatch, "board %q holds a different message type", name)
	}
	return b, nil
}
