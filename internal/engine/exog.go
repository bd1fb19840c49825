package engine

import (
	"sync"

	"golog/internal/ast"
	"golog/internal/golerr"
	"golog/internal/logging"
)

// ExogQueue is the mutex+condition-variable-guarded FIFO of exogenous
// transitions: producer backends push to it from their own goroutines,
// and the single logical execution thread drains it either without
// blocking (between plan-element steps) or by blocking until something
// arrives (when trans has nothing left to offer). Ordering of pushes
// equals ordering of history appends.
type ExogQueue struct {
	mu         sync.Mutex
	cond       *sync.Cond
	queue      []ast.Transition
	terminated bool
}

func NewExogQueue() *ExogQueue {
	q := &ExogQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues an exogenous transition, waking any blocked drain.
func (q *ExogQueue) Push(t ast.Transition) {
	q.mu.Lock()
	q.queue = append(q.queue, t)
	q.mu.Unlock()
	q.cond.Signal()
	logging.ExogDebug("pushed %s", t)
	logging.AuditWithCategory(logging.CategoryExog).ExogPush(t.Grounding.Hash())
}

// DrainNonblocking returns and clears whatever is currently queued,
// possibly nothing.
func (q *ExogQueue) DrainNonblocking() []ast.Transition {
	q.mu.Lock()
	out := q.queue
	q.queue = nil
	q.mu.Unlock()
	if len(out) > 0 {
		logging.AuditWithCategory(logging.CategoryExog).ExogDrain(len(out), true)
	}
	return out
}

// DrainBlocking waits until at least one transition is queued, or the
// queue is terminated, and then returns the full queued batch. This is
// one of the engine's exactly two suspension points.
func (q *ExogQueue) DrainBlocking() ([]ast.Transition, error) {
	q.mu.Lock()
	for len(q.queue) == 0 && !q.terminated {
		q.cond.Wait()
	}
	if q.terminated && len(q.queue) == 0 {
		q.mu.Unlock()
		return nil, golerr.Terminate
	}
	out := q.queue
	q.queue = nil
	q.mu.Unlock()
	logging.AuditWithCategory(logging.CategoryExog).ExogDrain(len(out), true)
	return out, nil
}

// Terminate unblocks any pending DrainBlocking with golerr.Terminate.
func (q *ExogQueue) Terminate() {
	q.mu.Lock()
	q.terminated = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
