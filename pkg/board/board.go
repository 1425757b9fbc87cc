// Package board implements the message-board subsystem: sealed typed
// bags of messages with per-thread board writers, a two-phase
// post-then-sync publish cycle, and read-only snapshot iterators.
package board

import (
	"sync"

	"github.com/flame-hpc/flame2/pkg/ferrors"
)

// Handle is the type-erased view of a Board[T] used by the board
// registry, the scheduler's board tasks, and the introspection surface
// — none of which need to know the message element type.
type Handle interface {
	Name() string
	Sync()
	Clear()
	Count() int
}

// Board is a sealed typed bag of messages. Posts land in a Writer's
// private buffer; Sync appends every outstanding writer's buffer into
// live atomically and invalidates those writers; Clear truncates live.
// Outside Sync/Clear, live is append-only and safe to read
// concurrently; writer buffers are each owned by exactly one goroutine.
type Board[T any] struct {
	name string

	mu      sync.Mutex
	live    []T
	writers []*Writer[T]
}

// New creates an empty, unregistered board named name. Most callers
// should go through Manager.Register instead so the board is reachable
// by name from board tasks.
func New[T any](name string) *Board[T] {
	return &Board[T]{name: name}
}

// Name returns the board's registered name.
func (b *Board[T]) Name() string { return b.name }

// NewWriter returns a fresh writer with an empty private buffer,
// registered against this board in call order. Ordering of messages
// from distinct writers after Sync is guaranteed only by this
// registration order: all of w1's messages precede all of w2's iff w1
// was registered first.
func (b *Board[T]) NewWriter() *Writer[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	w := &Writer[T]{board: b, valid: true}
	b.writers = append(b.writers, w)
	return w
}

// Sync atomically moves every outstanding writer's buffer into live, in
// writer registration order, then invalidates every writer. Together
// with Clear it is the only place live is mutated, guarded by the
// board's own lock; dependency edges upstream guarantee no message
// iterator is alive while Sync runs.
func (b *Board[T]) Sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range b.writers {
		if len(w.buffer) > 0 {
			b.live = append(b.live, w.buffer...)
		}
		w.buffer = nil
		w.valid = false
	}
	b.writers = b.writers[:0]
}

// Clear atomically truncates live. Clearing an empty board is a no-op.
func (b *Board[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = b.live[:0]
}

// Count returns the number of messages currently visible to readers.
func (b *Board[T]) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// NewIterator snapshots live at the moment of acquisition. The
// returned Iterator shares live's backing array — no message is
// copied — so it must not be retained across a subsequent Sync/Clear;
// the scheduler enforces this via dependency edges around message
// reads.
func (b *Board[T]) NewIterator() *Iterator[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Iterator[T]{snapshot: b.live}
}

// Writer is a per-thread private buffer draining into a Board on Sync.
// A writer is valid from creation until the next Sync of its board;
// posting through an invalidated writer is an invalid-operation.
type Writer[T any] struct {
	board  *Board[T]
	buffer []T
	valid  bool
}

// Post appends msg to the writer's private buffer without locking. It
// is the caller's responsibility to confine one Writer to one
// goroutine.
func (w *Writer[T]) Post(msg T) error {
	if !w.valid {
		return ferrors.New(ferrors.ErrInvalidOperation, "writer for board %q invalidated by a prior Sync", w.board.name)
	}
	w.buffer = append(w.buffer, msg)
	return nil
}

// Iterator is a snapshot view over a board's live messages, acquired at
// a single point in time.
type Iterator[T any] struct {
	snapshot []T
	pos      int
}

// AtEnd reports whether the iterator has reached the end of its snapshot.
func (it *Iterator[T]) AtEnd() bool { return it.pos >= len(it.snapshot) }

// Next advances the iterator by one message.
func (it *Iterator[T]) Next() { it.pos++ }

// Get returns the message at the iterator's current position.
func (it *Iterator[T]) Get() T { return it.snapshot[it.pos] }

// Rewind resets the iterator to the start of its snapshot.
func (it *Iterator[T]) Rewind() { it.pos = 0 }

// GetCount returns the total number of messages in the snapshot.
func (it *Iterator[T]) GetCount() int { return len(it.snapshot) }
