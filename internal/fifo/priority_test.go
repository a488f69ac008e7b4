package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_NextJumpsAheadOfNormal(t *testing.T) {
	q := NewPriorityQueue()
	require.NoError(t, q.Enqueue(&Job{ID: 1, Priority: PriorityNormal}))
	require.NoError(t, q.Enqueue(&Job{ID: 2, Priority: PriorityNext}))

	ids := make([]uint64, len(q.jobs))
	for i, j := range q.jobs {
		ids[i] = j.ID
	}
	assert.Equal(t, []uint64{2, 1}, ids)
}

func TestPriorityQueue_DetectsWaitForCycle(t *testing.T) {
	q := NewPriorityQueue()
	require.NoError(t, q.Enqueue(&Job{ID: 1, WaitFor: []uint64{2}}))
	err := q.Enqueue(&Job{ID: 2, WaitFor: []uint64{1}})
	assert.Error(t, err)
}

func TestPriorityQueue_ReadyRequiresAllDepsDone(t *testing.T) {
	q := NewPriorityQueue()
	j1 := &Job{ID: 1}
	require.NoError(t, q.Enqueue(j1))
	j1.State = JobDone
	j2 := &Job{ID: 2, WaitFor: []uint64{1}}
	require.NoError(t, q.Enqueue(j2))
	assert.True(t, q.Ready(j2))

	j3 := &Job{ID: 3, WaitFor: []uint64{1, 99}}
	require.NoError(t, q.Enqueue(j3))
	assert.False(t, q.Ready(j3))
}

func TestPriorityQueue_RemoveRefusesWithUnresolvedDependents(t *testing.T) {
	q := NewPriorityQueue()
	require.NoError(t, q.Enqueue(&Job{ID: 1}))
	require.NoError(t, q.Enqueue(&Job{ID: 2, WaitFor: []uint64{1}}))

	err := q.Remove(1)
	assert.Error(t, err)

	q.lookup[2].State = JobDone
	assert.NoError(t, q.Remove(1))
}
