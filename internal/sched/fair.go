// internal/sched/fair.go

package sched

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// Fair picks the queued entity with the least CPU runtime, ties broken by ID.
// Picked entities stay queued until the host evicts them.
type Fair struct {
	mu      sync.Mutex
	rbt     *redblacktree.Tree // red-black tree ordered by runtime and entity ID
	keys    map[EntityID]nodeKey
	current Entity // last entity returned by PickNext
}

// NewFair returns the runtime-fair baseline, named "cfs".
func NewFair() *Fair {
	return &Fair{
		rbt:  redblacktree.NewWith(cmp),
		keys: make(map[EntityID]nodeKey),
	}
}

func (s *Fair) Name() string { return "cfs" }

func (s *Fair) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rbt.Clear()
	s.keys = make(map[EntityID]nodeKey)
	s.current = nil
}

func (s *Fair) Admit(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(e)
}

func (s *Fair) Evict(e Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.keys[e.ID()]; ok {
		s.rbt.Remove(key)
		delete(s.keys, e.ID())
	}
	if s.current != nil && s.current.ID() == e.ID() {
		s.current = nil
	}
}

func (s *Fair) PickNext() (Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only the last dispatched entity has run since it was keyed, so it is
	// the only one whose position can be stale.
	if s.current != nil {
		if _, queued := s.keys[s.current.ID()]; queued {
			s.put(s.current)
		}
	}

	node := s.rbt.Left()
	if node == nil {
		s.current = nil
		return nil, false
	}
	s.current = node.Value.(Entity)
	return s.current, true
}

// Snapshot reports queued entities under their declared class, in pick order.
func (s *Fair) Snapshot() [NumClasses][]EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [NumClasses][]EntityID
	for _, v := range s.rbt.Values() {
		e := v.(Entity)
		c := Classify(e)
		out[c] = append(out[c], e.ID())
	}
	return out
}

// put (re)inserts e under its current runtime. Must be called with mu held.
func (s *Fair) put(e Entity) {
	if old, ok := s.keys[e.ID()]; ok {
		s.rbt.Remove(old)
	}
	key := nodeKey{runtime: e.CPURuntime(), id: e.ID()}
	s.rbt.Put(key, e)
	s.keys[e.ID()] = key
}

// nodeKey is used as a key in the red-black tree.
type nodeKey struct {
	runtime time.Duration
	id      EntityID
}

// cmp orders nodeKeys by runtime, then ID.
func cmp(a, b any) int {
	ka, kb := a.(nodeKey), b.(nodeKey)
	switch {
	case ka.runtime < kb.runtime:
		return -1
	case ka.runtime > kb.runtime:
		return 1
	case ka.id < kb.id:
		return -1
	case ka.id > kb.id:
		return 1
	default:
		return 0
	}
}
