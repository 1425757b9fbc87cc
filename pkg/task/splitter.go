package task

import "github.com/flame-hpc/flame2/pkg/ferrors"

// Split partitions parent into balanced row-range subtasks per spec
// §4.3. It returns (nil, nil) when the parent should not be split:
// population below 2*minVectorSize, or maxSubtasks <= 1.
//
// Otherwise it computes k = min(maxSubtasks, N/minVectorSize) and
// partitions [0,N) into k contiguous windows of size floor(N/k), with
// the first N mod k windows taking one extra row — so window lengths
// differ by at most one and their union is exactly [0,N).
func Split(parent *AgentTask, maxSubtasks, minVectorSize int) ([]*AgentTask, error) {
	if minVectorSize <= 0 {
		return nil, ferrors.New(ferrors.ErrInvalidArgument, "min vector size must be positive, got %d", minVectorSize)
	}
	n, err := parent.PopulationSize()
	if err != nil {
		return nil, err
	}
	if n < 2*minVectorSize || maxSubtasks <= 1 {
		return nil, nil
	}

	k := maxSubtasks
	if alt := n / minVectorSize; alt < k {
		k = alt
	}
	if k < 1 {
		k = 1
	}
	if k == 1 {
		return nil, nil
	}

	base := n / k
	rem := n % k

	subtasks := make([]*AgentTask, 0, k)
	offset := 0
	for i := 0; i < k; i++ {
		count := base
		if i < rem {
			count++
		}
		subtasks = append(subtasks, parent.cloneSplit(offset, count))
		offset += count
	}
	return subtasks, nil
}
