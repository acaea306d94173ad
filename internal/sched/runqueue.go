// internal/sched/runqueue.go

package sched

import (
	"container/list"
	"fmt"
)

// RunQueueSet holds one FIFO run-queue per priority class.
//
// Each class queue is a doubly linked list, front = next candidate. An index
// of every queued entity's list element keeps an entity in at most one queue
// at a time and makes append, pop and removal by identity constant time.
//
// RunQueueSet is not safe for concurrent use; callers hold their own lock.
type RunQueueSet struct {
	queues [NumClasses]*list.List
	index  map[EntityID]slot
}

// slot records where a queued entity currently lives.
type slot struct {
	class Class
	elem  *list.Element
}

// NewRunQueueSet returns a set with all four class queues empty.
func NewRunQueueSet() *RunQueueSet {
	rq := &RunQueueSet{}
	rq.Reset()
	return rq
}

// Reset empties every class queue.
func (rq *RunQueueSet) Reset() {
	for c := range rq.queues {
		rq.queues[c] = list.New()
	}
	rq.index = make(map[EntityID]slot)
}

// Push appends e to the tail of class c. An entity already queued elsewhere
// is unlinked first.
func (rq *RunQueueSet) Push(c Class, e Entity) error {
	if _, _, err := rq.Remove(e.ID()); err != nil {
		return err
	}

	rq.index[e.ID()] = slot{class: c, elem: rq.queues[c].PushBack(e)}
	return nil
}

// Remove unlinks the entity with the given ID from whichever queue holds it
// and reports whether it was queued. An index entry whose element is not in
// the recorded queue is an invariant violation.
func (rq *RunQueueSet) Remove(id EntityID) (Entity, bool, error) {
	sl, ok := rq.index[id]
	if !ok {
		return nil, false, nil
	}
	q := rq.queues[sl.class]
	before := q.Len()
	// list.Remove ignores elements linked into another list
	q.Remove(sl.elem)
	if q.Len() == before {
		return nil, false, fmt.Errorf("entity %d is indexed in %s queue but not linked there", id, sl.class)
	}
	delete(rq.index, id)
	return sl.elem.Value.(Entity), true, nil
}

// PopFront removes and returns the entity at the front of class c.
// An empty queue or a front element the index does not agree with is an
// invariant violation.
func (rq *RunQueueSet) PopFront(c Class) (Entity, error) {
	front := rq.queues[c].Front()
	if front == nil {
		return nil, fmt.Errorf("%s queue empty at removal", c)
	}
	e := front.Value.(Entity)
	if sl, ok := rq.index[e.ID()]; !ok || sl.class != c || sl.elem != front {
		return nil, fmt.Errorf("entity %d at front of %s queue is not indexed there", e.ID(), c)
	}
	rq.queues[c].Remove(front)
	delete(rq.index, e.ID())
	return e, nil
}

// Len returns the number of entities queued in class c.
func (rq *RunQueueSet) Len(c Class) int {
	return rq.queues[c].Len()
}

// Total returns the number of entities queued across all classes.
func (rq *RunQueueSet) Total() int {
	n := 0
	for _, q := range rq.queues {
		n += q.Len()
	}
	return n
}

// Lookup reports the class an entity is currently queued in.
func (rq *RunQueueSet) Lookup(id EntityID) (Class, bool) {
	sl, ok := rq.index[id]
	return sl.class, ok
}

// Snapshot returns the queued entity IDs of every class, front first.
func (rq *RunQueueSet) Snapshot() [NumClasses][]EntityID {
	var out [NumClasses][]EntityID
	for c, q := range rq.queues {
		ids := make([]EntityID, 0, q.Len())
		for el := q.Front(); el != nil; el = el.Next() {
			ids = append(ids, el.Value.(Entity).ID())
		}
		out[c] = ids
	}
	return out
}

// Check verifies that every queued element is indexed at its position and
// that no entity is queued twice.
func (rq *RunQueueSet) Check() error {
	seen := make(map[EntityID]Class, len(rq.index))
	for c, q := range rq.queues {
		for el := q.Front(); el != nil; el = el.Next() {
			id := el.Value.(Entity).ID()
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("entity %d queued in both %s and %s", id, prev, Class(c))
			}
			seen[id] = Class(c)
			if sl, ok := rq.index[id]; !ok || sl.class != Class(c) || sl.elem != el {
				return fmt.Errorf("entity %d in %s queue is not indexed there", id, Class(c))
			}
		}
	}
	if len(seen) != len(rq.index) {
		return fmt.Errorf("index holds %d entities but queues hold %d", len(rq.index), len(seen))
	}
	return nil
}
