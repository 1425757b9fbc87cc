package memory

import (
	"testing"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVarDuplicate(t *testing.T) {
	a := New("Circle", false)
	require.NoError(t, RegisterVar[int](a, "x"))

	err := RegisterVar[int](a, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrLogic)
}

func TestRegisterVarAfterClosure(t *testing.T) {
	a := New("Circle", false)
	require.NoError(t, RegisterVar[int](a, "x"))
	a.HintPopulation(10)

	err := RegisterVar[float64](a, "y")
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrLogic)
}

func TestGetVectorUnknownAndMismatch(t *testing.T) {
	a := New("Circle", false)
	require.NoError(t, RegisterVar[int](a, "x"))

	_, err := GetVector[int](a, "missing")
	assert.ErrorIs(t, err, ferrors.ErrUnknownVariable)

	_, err = GetVector[float64](a, "x")
	assert.ErrorIs(t, err, ferrors.ErrTypeMismatch)

	vec, err := GetVector[int](a, "x")
	require.NoError(t, err)
	assert.Equal(t, 0, vec.Len())
}

func TestPopulationSizeDebugModeConsistency(t *testing.T) {
	a := New("Circle", true)
	require.NoError(t, RegisterVar[int](a, "x"))
	require.NoError(t, RegisterVar[int](a, "y"))

	xVec, err := GetVector[int](a, "x")
	require.NoError(t, err)
	yVec, err := GetVector[int](a, "y")
	require.NoError(t, err)

	xVec.Append(1)
	xVec.Append(2)
	yVec.Append(1)

	_, err = a.PopulationSize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrInternalConsistency)

	yVec.Append(2)
	size, err := a.PopulationSize()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestCompactDeadRowsPreservesOrder(t *testing.T) {
	a := New("Circle", true)
	require.NoError(t, RegisterVar[int](a, "id"))
	vec, err := GetVector[int](a, "id")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		vec.Append(i)
	}

	a.MarkDead(1)
	a.MarkDead(3)
	require.True(t, a.HasPendingDeadRows())
	a.CompactDeadRows()
	require.False(t, a.HasPendingDeadRows())

	size, err := a.PopulationSize()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	want := []int{0, 2, 4}
	for i, w := range want {
		assert.Equal(t, w, vec.At(i))
	}
}
