// internal/sched/multiqueue.go

package sched

import "sync"

// MultiQueue is a strict-priority scheduler over the four class queues.
//
// PickNext takes the front of the most urgent non-empty class and requeues it
// at the tail of requeue(class). With demotion (NewMLFQ) that is the next
// lower class, giving a multi-level feedback queue; without it (NewMultiQueue)
// each class round-robins on its own.
type MultiQueue struct {
	mu      sync.Mutex // held for the whole of every operation
	name    string
	requeue func(Class) Class
	rq      *RunQueueSet
	halted  *InvariantError
}

// NewMLFQ returns the demoting multi-level feedback queue, named "adv".
func NewMLFQ() *MultiQueue {
	return &MultiQueue{
		name:    "adv",
		requeue: Class.Lower,
		rq:      NewRunQueueSet(),
	}
}

// NewMultiQueue returns the per-class round-robin scheduler, named "mq".
func NewMultiQueue() *MultiQueue {
	return &MultiQueue{
		name:    "mq",
		requeue: func(c Class) Class { return c },
		rq:      NewRunQueueSet(),
	}
}

func (s *MultiQueue) Name() string { return s.name }

func (s *MultiQueue) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rq.Reset()
	s.halted = nil
}

// Admit appends e to the tail of its declared class. An entity still queued
// from an earlier demotion is moved back up.
func (s *MultiQueue) Admit(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRunning("admit")

	if err := s.rq.Push(Classify(e), e); err != nil {
		s.halt("admit", err)
	}
}

func (s *MultiQueue) Evict(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRunning("evict")

	if _, _, err := s.rq.Remove(e.ID()); err != nil {
		s.halt("evict", err)
	}
}

func (s *MultiQueue) PickNext() (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRunning("pick")

	for c := ClassRealtime; c < NumClasses; c++ {
		if s.rq.Len(c) == 0 {
			continue
		}
		e, err := s.rq.PopFront(c)
		if err != nil {
			s.halt("pick", err)
		}
		if err := s.rq.Push(s.requeue(c), e); err != nil {
			s.halt("pick", err)
		}
		return e, true
	}
	return nil, false
}

// Snapshot returns the queued entity IDs per class, front first.
func (s *MultiQueue) Snapshot() [NumClasses][]EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rq.Snapshot()
}

// halt marks the set unusable and panics. Must be called with mu held.
func (s *MultiQueue) halt(op string, err error) {
	s.halted = &InvariantError{Algorithm: s.name, Op: op, Err: err}
	panic(s.halted)
}

func (s *MultiQueue) ensureRunning(op string) {
	if s.halted != nil {
		panic(&InvariantError{Algorithm: s.name, Op: op, Err: s.halted})
	}
}
