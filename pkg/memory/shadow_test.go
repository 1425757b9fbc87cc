package memory

import (
	"testing"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPopulatedCircle(t *testing.T, n int) *AgentMemory {
	t.Helper()
	a := New("Circle", true)
	require.NoError(t, RegisterVar[int](a, "x_int"))
	require.NoError(t, RegisterVar[float64](a, "y_dbl"))
	a.HintPopulation(n)

	xVec, err := GetVector[int](a, "x_int")
	require.NoError(t, err)
	yVec, err := GetVector[float64](a, "y_dbl")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		xVec.Append(i)
		yVec.Append(0)
	}
	return a
}

func TestShadowAllowAccessValidation(t *testing.T) {
	a := newPopulatedCircle(t, 5)
	s := NewShadow(a)

	require.NoError(t, s.AllowAccess("x_int", false))
	assert.True(t, s.CanRead("x_int"))
	assert.False(t, s.CanWrite("x_int"))

	err := s.AllowAccess("x_int", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrLogic)

	err = s.AllowAccess("z_missing", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrUnknownVariable)
}

func TestIteratorRangeBounds(t *testing.T) {
	a := newPopulatedCircle(t, 10)
	s := NewShadow(a)
	require.NoError(t, s.AllowAccess("x_int", true))

	_, err := s.NewIteratorRange(-1, 5)
	assert.ErrorIs(t, err, ferrors.ErrInvalidArgument)

	_, err = s.NewIteratorRange(5, 10)
	assert.ErrorIs(t, err, ferrors.ErrInvalidArgument)

	it, err := s.NewIteratorRange(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, it.Index())
	it.Step()
	assert.Equal(t, 3, it.Index())
	it.Step()
	it.Step()
	assert.True(t, it.AtEnd())
	it.Rewind()
	assert.Equal(t, 2, it.Index())
}

func TestGetSetVarACL(t *testing.T) {
	a := newPopulatedCircle(t, 3)
	s := NewShadow(a)
	require.NoError(t, s.AllowAccess("x_int", false))
	require.NoError(t, s.AllowAccess("y_dbl", true))

	it, err := s.NewIterator()
	require.NoError(t, err)

	_, err = GetVar[int](it, "x_int")
	require.NoError(t, err)

	err = SetVar[int](it, "x_int", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrAccessDenied)

	_, err = GetVar[int](it, "z_dbl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrAccessDenied)

	_, err = GetVar[float64](it, "x_int")
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrTypeMismatch)

	require.NoError(t, SetVar[float64](it, "y_dbl", 3.5))
	v, err := GetVar[float64](it, "y_dbl")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}
