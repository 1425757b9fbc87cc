package memory

import "github.com/flame-hpc/flame2/pkg/ferrors"

// Iterator steps over a contiguous row range of one agent's population,
// restricted to the variables a Shadow allows. Position 0 corresponds
// to row `offset`; AtEnd reports pos == count.
//
// The spec describes stepping in terms of one raw-pointer cursor per
// allowed variable advancing in lock-step. Since every column shares
// the iterator's row indexing, a single position counter is an
// equivalent, simpler realization: GetVar/SetVar resolve the current
// absolute row as offset+pos against whichever column they need,
// which is exactly what N independent cursors advanced together would
// produce.
type Iterator struct {
	shadow *Shadow
	offset int
	count  int
	pos    int
}

// AtEnd reports whether the iterator has exhausted its range.
func (it *Iterator) AtEnd() bool { return it.pos >= it.count }

// Step advances the iterator by one row.
func (it *Iterator) Step() { it.pos++ }

// Rewind restores the iterator to its base offset.
func (it *Iterator) Rewind() { it.pos = 0 }

// Index returns the absolute row index the iterator currently points at.
func (it *Iterator) Index() int { return it.offset + it.pos }

// Offset returns the iterator's base offset.
func (it *Iterator) Offset() int { return it.offset }

// Count returns the number of rows this iterator covers.
func (it *Iterator) Count() int { return it.count }

// Shadow returns the shadow this iterator was created from.
func (it *Iterator) Shadow() *Shadow { return it.shadow }

// GetVar reads variable name at the iterator's current row. Access
// outside the shadow's readable set raises access-denied; a type tag
// mismatch raises type-mismatch.
func GetVar[T any](it *Iterator, name string) (T, error) {
	var zero T
	if !it.shadow.CanRead(name) {
		return zero, ferrors.New(ferrors.ErrAccessDenied, "variable %q is not readable by this task", name)
	}
	vec, err := GetVector[T](it.shadow.agent, name)
	if err != nil {
		return zero, err
	}
	return vec.At(it.Index()), nil
}

// SetVar writes variable name at the iterator's current row. Access
// outside the shadow's writable set raises access-denied; a type tag
// mismatch raises type-mismatch.
func SetVar[T any](it *Iterator, name string, value T) error {
	if !it.shadow.CanWrite(name) {
		return ferrors.New(ferrors.ErrAccessDenied, "variable %q is not writable by this task", name)
	}
	vec, err := GetVector[T](it.shadow.agent, name)
	if err != nil {
		return err
	}
	vec.Set(it.Index(), value)
	return nil
}
