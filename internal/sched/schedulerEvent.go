// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusAdmit
	StatusDispatch
	StatusPreempt
	StatusBlock
	StatusWake
	StatusFinish
	StatusTick
	StatusHalt
)

// StatusEvent is emitted every tick or on key actions
type StatusEvent struct {
	Time     time.Time
	Kind     StatusKind
	TaskID   EntityID
	Class    Class // declared class of the task
	Runtime  time.Duration
	RanTicks int64
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusAdmit:
		return "Admit"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusBlock:
		return "Block"
	case StatusWake:
		return "Wake"
	case StatusFinish:
		return "Finish"
	case StatusTick:
		return "Tick"
	case StatusHalt:
		return "Halt"
	default:
		return "Unknown"
	}
}
