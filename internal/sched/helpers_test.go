package sched

import "time"

// entity is a minimal host-side Entity for algorithm tests.
type entity struct {
	id      EntityID
	prio    int
	runtime time.Duration
}

func (e *entity) ID() EntityID              { return e.id }
func (e *entity) Priority() int             { return e.prio }
func (e *entity) CPURuntime() time.Duration { return e.runtime }

func newEntity(id EntityID, c Class) *entity {
	return &entity{id: id, prio: int(c)}
}
