package task

import (
	"testing"

	"github.com/flame-hpc/flame2/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioESplitting exercises spec.md Scenario E.
func TestScenarioESplitting(t *testing.T) {
	shadow := newCircleShadow(t, 1000)
	boards := board.NewManager()
	at := NewAgentTask("t", "k", "Circle", shadow, nil, boards)

	subtasks, err := Split(at, 4, 100)
	require.NoError(t, err)
	require.Len(t, subtasks, 4)
	for _, s := range subtasks {
		_, count := s.Range()
		assert.Equal(t, 250, count)
	}
	assertContiguousCover(t, subtasks, 1000)

	subtasks, err = Split(at, 4, 400)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)
	sizes := []int{}
	for _, s := range subtasks {
		_, count := s.Range()
		sizes = append(sizes, count)
	}
	assert.ElementsMatch(t, []int{500, 500}, sizes)
	assertContiguousCover(t, subtasks, 1000)

	subtasks, err = Split(at, 1, 100)
	require.NoError(t, err)
	assert.Nil(t, subtasks)
}

func TestSplitBalanceProperty(t *testing.T) {
	sizes := []int{7, 23, 101, 997}
	for _, n := range sizes {
		shadow := newCircleShadow(t, n)
		boards := board.NewManager()
		at := NewAgentTask("t", "k", "Circle", shadow, nil, boards)

		subtasks, err := Split(at, 8, 3)
		require.NoError(t, err)
		if subtasks == nil {
			continue
		}
		assertContiguousCover(t, subtasks, n)

		minCount, maxCount := -1, -1
		for _, s := range subtasks {
			_, count := s.Range()
			if minCount == -1 || count < minCount {
				minCount = count
			}
			if count > maxCount {
				maxCount = count
			}
		}
		assert.LessOrEqual(t, maxCount-minCount, 1)
	}
}

func assertContiguousCover(t *testing.T, subtasks []*AgentTask, n int) {
	t.Helper()
	covered := make([]bool, n)
	pos := 0
	for _, s := range subtasks {
		offset, count := s.Range()
		assert.Equal(t, pos, offset, "subtask ranges must be contiguous and ordered")
		for i := offset; i < offset+count; i++ {
			require.False(t, covered[i], "index %d covered twice", i)
			covered[i] = true
		}
		pos = offset + count
	}
	assert.Equal(t, n, pos)
	for i, c := range covered {
		assert.True(t, c, "index %d not covered", i)
	}
}
