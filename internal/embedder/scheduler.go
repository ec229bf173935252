package embedder

import (
	"container/heap"
	"time"

	"github.com/seleneworks/lumen/internal/embedder/logging"
	"github.com/seleneworks/lumen/internal/embedder/metrics"
)

// Task is an opaque unit of engine work. The scheduler never inspects it; it
// only hands it back to the executor at or after its deadline.
type Task any

// TaskExecutor runs one deferred engine task on the event-loop thread.
type TaskExecutor func(task Task) error

type deferredTask struct {
	deadline time.Time
	seq      uint64 // insertion order, breaks deadline ties stably
	task     Task
}

type taskHeap []deferredTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(deferredTask)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = deferredTask{}
	*h = old[:n-1]
	return item
}

// Scheduler owns the time-ordered queue of deferred engine tasks. It is
// confined to the event-loop thread: the engine posts back on the thread it
// was handed as a task-runner, and the loop drains due entries once per
// iteration. No internal locking.
type Scheduler struct {
	log     logging.Logger
	exec    TaskExecutor
	metrics *metrics.Metrics
	tasks   taskHeap
	seq     uint64
}

// NewScheduler builds a scheduler draining into the executor. The metrics
// set may be nil.
func NewScheduler(log logging.Logger, exec TaskExecutor, m *metrics.Metrics) *Scheduler {
	return &Scheduler{log: log, exec: exec, metrics: m}
}

// Post enqueues a task to run at or after the deadline. It never blocks.
func (s *Scheduler) Post(task Task, deadline time.Time) {
	s.seq++
	heap.Push(&s.tasks, deferredTask{deadline: deadline, seq: s.seq, task: task})
	if s.metrics != nil {
		s.metrics.TasksPosted.Inc()
	}
}

// RunDue pops and executes every entry whose deadline is at or before now,
// in deadline order, and returns the number executed. It does not wait for
// future deadlines. A failing task is logged and the drain continues.
func (s *Scheduler) RunDue(now time.Time) int {
	executed := 0
	for len(s.tasks) > 0 && !s.tasks[0].deadline.After(now) {
		entry := heap.Pop(&s.tasks).(deferredTask)
		executed++
		if s.metrics != nil {
			s.metrics.TasksExecuted.Inc()
		}
		if err := s.exec(entry.task); err != nil {
			if s.metrics != nil {
				s.metrics.TasksFailed.Inc()
			}
			s.log.Error("deferred task failed", err, logging.LogFields{
				"deadline": entry.deadline,
			})
		}
	}
	return executed
}

// NextDeadline reports the earliest queued deadline. The event-loop wait
// must be bounded by it whenever the queue is non-empty.
func (s *Scheduler) NextDeadline() (time.Time, bool) {
	if len(s.tasks) == 0 {
		return time.Time{}, false
	}
	return s.tasks[0].deadline, true
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	return len(s.tasks)
}

// Drain drops every queued task without executing it and returns how many
// were dropped. Called on shutdown.
func (s *Scheduler) Drain() int {
	dropped := len(s.tasks)
	s.tasks = nil
	return dropped
}
