package timeline

import (
	"container/heap"
	"time"
)

// Task is a deferred callback registered with a Scheduler.
type Task struct {
	due       time.Time
	seq       uint64
	fn        func()
	cancelled bool
	index     int
}

// Cancel prevents the task from running. It is safe to call on a nil task,
// on a task that already ran, and more than once.
func (t *Task) Cancel() {
	if t != nil {
		t.cancelled = true
	}
}

// Pending reports whether the task is still waiting to run.
func (t *Task) Pending() bool {
	return t != nil && !t.cancelled && t.index >= 0
}

// Scheduler is a cooperative timer queue. Nothing runs until Advance is
// called, and callbacks run on the caller's goroutine in due order. While a
// callback runs, Now reports that task's due time, so chains of After calls
// accumulate no drift.
type Scheduler struct {
	now   time.Time
	seq   uint64
	queue taskQueue
}

func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start}
}

func (s *Scheduler) Now() time.Time { return s.now }

// After schedules fn to run d after the scheduler's current time.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Task{due: s.now.Add(d), seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// Advance runs every task due at or before to, including tasks scheduled by
// callbacks during the advance, then sets the clock to to. The clock never
// moves backwards.
func (s *Scheduler) Advance(to time.Time) {
	for s.queue.Len() > 0 {
		next := s.queue[0]
		if next.due.After(to) {
			break
		}
		heap.Pop(&s.queue)
		if next.cancelled {
			continue
		}
		if next.due.After(s.now) {
			s.now = next.due
		}
		next.fn()
	}
	if to.After(s.now) {
		s.now = to
	}
}

// Pending returns the number of queued tasks that have not been cancelled.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.queue {
		if !t.cancelled {
			n++
		}
	}
	return n
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	t := x.(*Task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
