package fifo

import "fmt"

// The types in this file describe the optional priority/dependency-aware
// scheduler extension. It is not wired into FIFO or the manager: the
// shipped policy is a flat FIFO (see the package doc comment). This
// exists as a documented, independently testable building block for a
// future scheduler that needs more than strict first-come-first-served.

// JobState is the lifecycle of one entry in a PriorityQueue.
type JobState int

const (
	JobInit JobState = iota
	JobEnqueued
	JobWaiting
	JobRunning
	JobStopping
	JobDone
	JobDequeued
)

// Priority selects insertion position relative to existing entries of the
// same or lower priority: NEXT goes to the front of its priority band,
// NORMAL and LAST go to the back of theirs.
type Priority int

const (
	PriorityNext Priority = iota
	PriorityNormal
	PriorityLast
)

// Job is one entry in a PriorityQueue.
type Job struct {
	ID       uint64
	Priority Priority
	State    JobState
	WaitFor  []uint64
}

// PriorityQueue orders jobs by priority band, with NEXT-priority jobs
// jumping ahead of NORMAL and LAST jobs already queued, and supports
// wait_for dependencies gating a job's transition into RUNNING.
type PriorityQueue struct {
	jobs   []*Job
	lookup map[uint64]*Job
}

// NewPriorityQueue creates an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{lookup: make(map[uint64]*Job)}
}

// Enqueue inserts a job at the position dictated by its priority relative
// to existing same-or-lower priority entries, and detects wait_for cycles.
func (q *PriorityQueue) Enqueue(j *Job) error {
	if err := q.detectCycle(j); err != nil {
		return err
	}
	j.State = JobEnqueued
	q.lookup[j.ID] = j

	insertAt := len(q.jobs)
	for i, existing := range q.jobs {
		if existing.Priority > j.Priority || (j.Priority == PriorityNext && existing.Priority == j.Priority) {
			insertAt = i
			break
		}
	}
	q.jobs = append(q.jobs, nil)
	copy(q.jobs[insertAt+1:], q.jobs[insertAt:])
	q.jobs[insertAt] = j
	return nil
}

// detectCycle walks j's wait_for graph looking for a path back to j.ID.
func (q *PriorityQueue) detectCycle(j *Job) error {
	visited := map[uint64]bool{j.ID: true}
	var walk func(ids []uint64) error
	walk = func(ids []uint64) error {
		for _, id := range ids {
			if id == j.ID {
				return fmt.Errorf("fifo: wait_for cycle detected at job %d", id)
			}
			if visited[id] {
				continue
			}
			visited[id] = true
			if dep, ok := q.lookup[id]; ok {
				if err := walk(dep.WaitFor); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(j.WaitFor)
}

// Ready reports whether every job in WaitFor has reached JobDone, meaning
// j may transition out of JobWaiting into JobRunning.
func (q *PriorityQueue) Ready(j *Job) bool {
	for _, id := range j.WaitFor {
		dep, ok := q.lookup[id]
		if !ok || dep.State != JobDone {
			return false
		}
	}
	return true
}

// Dependents returns the ids of jobs whose WaitFor references id.
func (q *PriorityQueue) Dependents(id uint64) []uint64 {
	var out []uint64
	for _, j := range q.jobs {
		for _, w := range j.WaitFor {
			if w == id {
				out = append(out, j.ID)
				break
			}
		}
	}
	return out
}

// Remove removes a job, refusing to do so while it has dependents that
// have not themselves reached a terminal state.
func (q *PriorityQueue) Remove(id uint64) error {
	for _, depID := range q.Dependents(id) {
		dep := q.lookup[depID]
		if dep.State != JobDone && dep.State != JobDequeued {
			return fmt.Errorf("fifo: job %d has unresolved dependent %d", id, depID)
		}
	}
	delete(q.lookup, id)
	for i, j := range q.jobs {
		if j.ID == id {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			break
		}
	}
	return nil
}
