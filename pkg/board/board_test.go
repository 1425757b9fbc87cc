package board

import (
	"testing"

	"github.com/flame-hpc/flame2/pkg/ferrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locationMessage struct {
	ID int
}

func TestSyncRoundTrip(t *testing.T) {
	b := New[locationMessage]("location")

	w := b.NewWriter()
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Post(locationMessage{ID: i}))
	}
	b.Sync()

	assert.Equal(t, 100, b.Count())

	it := b.NewIterator()
	sum := 0
	for !it.AtEnd() {
		sum += it.Get().ID
		it.Next()
	}
	assert.Equal(t, 4950, sum)
	assert.Equal(t, 100, it.GetCount())
}

func TestClearIdempotentOnEmptyBoard(t *testing.T) {
	b := New[locationMessage]("location")
	b.Clear()
	assert.Equal(t, 0, b.Count())

	b.Sync() // no pending posts; live stays unchanged
	assert.Equal(t, 0, b.Count())
}

func TestWriterInvalidationOnSync(t *testing.T) {
	b := New[locationMessage]("location")

	w1 := b.NewWriter()
	require.NoError(t, w1.Post(locationMessage{ID: 1}))
	require.NoError(t, w1.Post(locationMessage{ID: 2}))
	b.Sync()

	err := w1.Post(locationMessage{ID: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrInvalidOperation)

	w2 := b.NewWriter()
	require.NoError(t, w2.Post(locationMessage{ID: 3}))
	b.Sync()

	assert.Equal(t, 3, b.Count())
}

func TestWriterOrderingAcrossRegistration(t *testing.T) {
	b := New[locationMessage]("location")

	w1 := b.NewWriter()
	w2 := b.NewWriter()
	require.NoError(t, w2.Post(locationMessage{ID: 20}))
	require.NoError(t, w1.Post(locationMessage{ID: 10}))
	b.Sync()

	it := b.NewIterator()
	var order []int
	for !it.AtEnd() {
		order = append(order, it.Get().ID)
		it.Next()
	}
	assert.Equal(t, []int{10, 20}, order)
}

func TestManagerRegisterAndLookup(t *testing.T) {
	m := NewManager()

	_, err := Register[locationMessage](m, "location")
	require.NoError(t, err)

	_, err = Register[locationMessage](m, "location")
	require.Error(t, err)
	assert.ErrorIs(t, err, ferrors.ErrLogic)

	_, err = Get[locationMessage](m, "missing")
	assert.ErrorIs(t, err, ferrors.ErrUnknownBoard)

	type other struct{ X int }
	_, err = Get[other](m, "location")
	assert.ErrorIs(t, err, ferrors.ErrTypeMismatch)

	h, err := m.Handle("location")
	require.NoError(t, err)
	assert.Equal(t, "location", h.Name())
}
