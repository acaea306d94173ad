package sched

import (
	"context"
	"sync/atomic"
	"time"
)

// EntityID uniquely identifies a scheduling entity.
type EntityID uint64

// Entity is what a scheduling algorithm sees of a runnable unit of work.
// Entities are owned by the host; algorithms only hold references to them
// and never mutate them.
type Entity interface {
	ID() EntityID
	Priority() int             // declared class, see Classify
	CPURuntime() time.Duration // accounted by the host, read-only here
}

// Task represents one schedulable task unit owned by the host.
type Task struct {
	id       EntityID
	priority Class
	runtime  atomic.Int64                    // nanoseconds of CPU time the host has accounted
	Run      func(ctx context.Context) error // work function, cancelled at slice expiry
}

// NewTask creates a new task in the given priority class.
// NOTE: the runtime starts at zero and is only advanced by the host.
func NewTask(id EntityID, class Class, work func(ctx context.Context) error) *Task {
	// clamp class within the legal region.
	if class < ClassRealtime {
		class = ClassRealtime
	} else if class > ClassDaemon {
		class = ClassDaemon
	}

	return &Task{
		id:       id,
		priority: class,
		Run:      work,
	}
}

func (t *Task) ID() EntityID { return t.id }

func (t *Task) Priority() int { return int(t.priority) }

func (t *Task) Class() Class { return t.priority }

func (t *Task) CPURuntime() time.Duration { return time.Duration(t.runtime.Load()) }

// account adds d to the task's CPU runtime.
func (t *Task) account(d time.Duration) {
	t.runtime.Add(int64(d))
}
